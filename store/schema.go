package store

// schemaSQL is the DDL for all tables.
const schemaSQL = `
-- Source publication registry
CREATE TABLE IF NOT EXISTS papers (
    id INTEGER PRIMARY KEY,
    paper_id TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    url TEXT,
    year INTEGER,
    extra JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Extracted triples with per-triple provenance
CREATE TABLE IF NOT EXISTS triples (
    id INTEGER PRIMARY KEY,
    subject TEXT NOT NULL,
    predicate TEXT NOT NULL,
    object TEXT NOT NULL,
    confidence REAL NOT NULL,
    paper_id TEXT,
    title TEXT,
    url TEXT,
    source_text TEXT,
    extraction_date TEXT,
    extraction_method TEXT,
    extra JSON
);

-- One row per extraction run
CREATE TABLE IF NOT EXISTS extraction_runs (
    id INTEGER PRIMARY KEY,
    total_papers INTEGER NOT NULL,
    total_triples INTEGER NOT NULL,
    model TEXT,
    min_confidence REAL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Query audit log
CREATE TABLE IF NOT EXISTS query_log (
    id INTEGER PRIMARY KEY,
    query TEXT NOT NULL,
    intent_type TEXT,
    focus_area TEXT,
    matched INTEGER DEFAULT 0,
    answer TEXT,
    intent_source TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject);
CREATE INDEX IF NOT EXISTS idx_triples_object ON triples(object);
CREATE INDEX IF NOT EXISTS idx_triples_predicate ON triples(predicate);
CREATE INDEX IF NOT EXISTS idx_triples_paper ON triples(paper_id);
CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year);
`
