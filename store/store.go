package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// QueryRecord is one entry in the query audit log.
type QueryRecord struct {
	Query      string `json:"query"`
	IntentType string `json:"intent_type"`
	FocusArea  string `json:"focus_area"`
	Matched    int    `json:"matched"`
	Answer     string `json:"answer"`
	Source     string `json:"intent_source"`
}

// Store wraps the SQLite cache of papers, triples and extraction runs.
// The JSON interchange file remains the canonical exchange format; the
// database lets repeated runs skip re-extraction and keeps the query log.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Paper operations ---

// UpsertPaper inserts or updates a paper record keyed by paper_id.
// Returns the row ID.
func (s *Store) UpsertPaper(ctx context.Context, p Paper) (int64, error) {
	extra, err := metadataJSON(p.Extra)
	if err != nil {
		return 0, fmt.Errorf("encoding paper extra: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO papers (paper_id, title, url, year, extra)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(paper_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			year = excluded.year,
			extra = excluded.extra,
			updated_at = CURRENT_TIMESTAMP
	`, p.PaperID, p.Title, p.URL, p.Year, extra)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	// If UPSERT did an UPDATE, LastInsertId may not reflect the existing row.
	if id == 0 {
		row := s.db.QueryRowContext(ctx, "SELECT id FROM papers WHERE paper_id = ?", p.PaperID)
		if err := row.Scan(&id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GetPaper retrieves a paper by its paper_id.
func (s *Store) GetPaper(ctx context.Context, paperID string) (*Paper, error) {
	p := &Paper{}
	var url sql.NullString
	var year sql.NullInt64
	var extra sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT paper_id, title, url, year, extra
		FROM papers WHERE paper_id = ?
	`, paperID).Scan(&p.PaperID, &p.Title, &url, &year, &extra)
	if err != nil {
		return nil, err
	}
	p.URL = url.String
	p.Year = int(year.Int64)
	if err := metadataFromJSON(extra, &p.Extra); err != nil {
		return nil, fmt.Errorf("decoding paper extra: %w", err)
	}
	return p, nil
}

// ListPapers returns all papers in insertion order.
func (s *Store) ListPapers(ctx context.Context) ([]Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT paper_id, title, url, year, extra
		FROM papers ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []Paper
	for rows.Next() {
		var p Paper
		var url sql.NullString
		var year sql.NullInt64
		var extra sql.NullString
		if err := rows.Scan(&p.PaperID, &p.Title, &url, &year, &extra); err != nil {
			return nil, err
		}
		p.URL = url.String
		p.Year = int(year.Int64)
		if err := metadataFromJSON(extra, &p.Extra); err != nil {
			return nil, fmt.Errorf("decoding paper extra: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// --- Triple operations ---

// InsertTriples appends triples in one transaction, preserving input order.
func (s *Store) InsertTriples(ctx context.Context, triples []Triple) error {
	if len(triples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO triples (subject, predicate, object, confidence,
			paper_id, title, url, source_text, extraction_date, extraction_method, extra)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range triples {
		extra, err := metadataJSON(t.Extra)
		if err != nil {
			return fmt.Errorf("encoding triple extra: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			t.Subject, t.Predicate, t.Object, t.Confidence,
			t.PaperID, t.Title, t.URL, t.SourceText,
			t.ExtractionDate, t.ExtractionMethod, extra); err != nil {
			return fmt.Errorf("inserting triple %q: %w", t.Key(), err)
		}
	}

	return tx.Commit()
}

// AllTriples returns every cached triple in insertion order.
func (s *Store) AllTriples(ctx context.Context) ([]Triple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject, predicate, object, confidence,
			paper_id, title, url, source_text, extraction_date, extraction_method, extra
		FROM triples ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triples []Triple
	for rows.Next() {
		var t Triple
		var paperID, title, url, sourceText, date, method, extra sql.NullString
		if err := rows.Scan(&t.Subject, &t.Predicate, &t.Object, &t.Confidence,
			&paperID, &title, &url, &sourceText, &date, &method, &extra); err != nil {
			return nil, err
		}
		t.PaperID = paperID.String
		t.Title = title.String
		t.URL = url.String
		t.SourceText = sourceText.String
		t.ExtractionDate = date.String
		t.ExtractionMethod = method.String
		if err := metadataFromJSON(extra, &t.Extra); err != nil {
			return nil, fmt.Errorf("decoding triple extra: %w", err)
		}
		triples = append(triples, t)
	}
	return triples, rows.Err()
}

// ClearTriples removes all cached triples before a fresh extraction run.
func (s *Store) ClearTriples(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM triples")
	return err
}

// --- Extraction runs ---

// RecordExtractionRun appends a row summarizing one extraction run.
func (s *Store) RecordExtractionRun(ctx context.Context, info ExtractionInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extraction_runs (total_papers, total_triples, model, min_confidence)
		VALUES (?, ?, ?, ?)
	`, info.TotalPapers, info.TotalTriples, info.Model, info.MinConfidence)
	return err
}

// LastExtractionRun returns the most recent extraction run summary, or
// sql.ErrNoRows when no run has been recorded.
func (s *Store) LastExtractionRun(ctx context.Context) (*ExtractionInfo, error) {
	info := &ExtractionInfo{}
	var model sql.NullString
	var minConf sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT total_papers, total_triples, model, min_confidence, created_at
		FROM extraction_runs ORDER BY id DESC LIMIT 1
	`).Scan(&info.TotalPapers, &info.TotalTriples, &model, &minConf, &info.ExtractionDate)
	if err != nil {
		return nil, err
	}
	info.Model = model.String
	info.MinConfidence = minConf.Float64
	return info, nil
}

// --- Query log ---

// LogQuery appends an entry to the query audit log.
func (s *Store) LogQuery(ctx context.Context, rec QueryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (query, intent_type, focus_area, matched, answer, intent_source)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Query, rec.IntentType, rec.FocusArea, rec.Matched, rec.Answer, rec.Source)
	return err
}

// metadataJSON encodes extra metadata for a JSON column; empty metadata is
// stored as NULL.
func metadataJSON(m Metadata) (any, error) {
	if m.Len() == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// metadataFromJSON decodes a nullable JSON column into extra metadata.
func metadataFromJSON(col sql.NullString, m *Metadata) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), m)
}
