package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Extraction methods recorded on triples.
const (
	MethodLLM      = "llm"
	MethodFallback = "fallback"
)

// Triple is one (subject, predicate, object) statement extracted from a paper,
// with its confidence and provenance. Extra carries any additional fields that
// arrived with the source record; extractor-assigned fields always win over
// Extra fields of the same name when serialized.
type Triple struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`

	PaperID          string `json:"paper_id,omitempty"`
	Title            string `json:"title,omitempty"`
	URL              string `json:"url,omitempty"`
	SourceText       string `json:"source_text,omitempty"`
	ExtractionDate   string `json:"extraction_date,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`

	Extra Metadata `json:"-"`
}

// tripleCoreKeys are the JSON keys owned by Triple itself. Extra fields with
// these names are dropped on output so the extractor-assigned value wins.
var tripleCoreKeys = map[string]bool{
	"subject": true, "predicate": true, "object": true, "confidence": true,
	"paper_id": true, "title": true, "url": true, "source_text": true,
	"extraction_date": true, "extraction_method": true,
}

// Key returns the deduplication key: the lowercased, space-trimmed
// subject|predicate|object.
func (t Triple) Key() string {
	return strings.ToLower(strings.TrimSpace(t.Subject)) + "|" +
		strings.ToLower(strings.TrimSpace(t.Predicate)) + "|" +
		strings.ToLower(strings.TrimSpace(t.Object))
}

// MarshalJSON writes the core fields followed by the Extra fields in their
// insertion order, as a single flat object.
func (t Triple) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}

	if err := writeField("subject", t.Subject); err != nil {
		return nil, err
	}
	if err := writeField("predicate", t.Predicate); err != nil {
		return nil, err
	}
	if err := writeField("object", t.Object); err != nil {
		return nil, err
	}
	if err := writeField("confidence", t.Confidence); err != nil {
		return nil, err
	}
	optional := []struct {
		key   string
		value string
	}{
		{"paper_id", t.PaperID},
		{"title", t.Title},
		{"url", t.URL},
		{"source_text", t.SourceText},
		{"extraction_date", t.ExtractionDate},
		{"extraction_method", t.ExtractionMethod},
	}
	for _, f := range optional {
		if f.value == "" {
			continue
		}
		if err := writeField(f.key, f.value); err != nil {
			return nil, err
		}
	}
	for _, k := range t.Extra.keys {
		if tripleCoreKeys[k] {
			continue
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(t.Extra.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat triple object, routing unrecognized keys into
// Extra in document order.
func (t *Triple) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("triple: expected JSON object, got %v", tok)
	}

	*t = Triple{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("triple: non-string key %v", keyTok)
		}
		switch key {
		case "subject":
			err = dec.Decode(&t.Subject)
		case "predicate":
			err = dec.Decode(&t.Predicate)
		case "object":
			err = dec.Decode(&t.Object)
		case "confidence":
			err = dec.Decode(&t.Confidence)
		case "paper_id":
			err = dec.Decode(&t.PaperID)
		case "title":
			err = dec.Decode(&t.Title)
		case "url":
			err = dec.Decode(&t.URL)
		case "source_text":
			err = dec.Decode(&t.SourceText)
		case "extraction_date":
			err = dec.Decode(&t.ExtractionDate)
		case "extraction_method":
			err = dec.Decode(&t.ExtractionMethod)
		default:
			var raw json.RawMessage
			if err = dec.Decode(&raw); err == nil {
				t.Extra.SetRaw(key, raw)
			}
		}
		if err != nil {
			return fmt.Errorf("triple: field %q: %w", key, err)
		}
	}
	_, err = dec.Token() // closing brace
	return err
}

// Paper identifies one source publication in the corpus. Text holds the
// loaded full text for extraction and is never persisted.
type Paper struct {
	PaperID string `json:"paper_id"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Year    int    `json:"year,omitempty"`

	Text  string   `json:"-"`
	Extra Metadata `json:"-"`
}

var paperCoreKeys = map[string]bool{
	"paper_id": true, "title": true, "url": true, "year": true,
}

// MarshalJSON writes the core fields followed by Extra fields in insertion
// order. Text is intentionally excluded.
func (p Paper) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}

	if err := writeField("paper_id", p.PaperID); err != nil {
		return nil, err
	}
	if err := writeField("title", p.Title); err != nil {
		return nil, err
	}
	if p.URL != "" {
		if err := writeField("url", p.URL); err != nil {
			return nil, err
		}
	}
	if p.Year != 0 {
		if err := writeField("year", p.Year); err != nil {
			return nil, err
		}
	}
	for _, k := range p.Extra.keys {
		if paperCoreKeys[k] {
			continue
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(p.Extra.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat paper object, routing unrecognized keys into
// Extra in document order.
func (p *Paper) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("paper: expected JSON object, got %v", tok)
	}

	*p = Paper{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("paper: non-string key %v", keyTok)
		}
		switch key {
		case "paper_id":
			err = dec.Decode(&p.PaperID)
		case "title":
			err = dec.Decode(&p.Title)
		case "url":
			err = dec.Decode(&p.URL)
		case "year":
			err = dec.Decode(&p.Year)
		default:
			var raw json.RawMessage
			if err = dec.Decode(&raw); err == nil {
				p.Extra.SetRaw(key, raw)
			}
		}
		if err != nil {
			return fmt.Errorf("paper: field %q: %w", key, err)
		}
	}
	_, err = dec.Token() // closing brace
	return err
}

// ExtractionInfo summarizes one extraction run.
type ExtractionInfo struct {
	TotalPapers    int     `json:"total_papers"`
	TotalTriples   int     `json:"total_triples"`
	ExtractionDate string  `json:"extraction_date"`
	Model          string  `json:"model,omitempty"`
	MinConfidence  float64 `json:"min_confidence,omitempty"`
}

// Corpus is the persisted interchange shape: extraction summary, the papers
// that were processed, and every triple that survived filtering.
type Corpus struct {
	ExtractionInfo  ExtractionInfo `json:"extraction_info"`
	ProcessedPapers []Paper        `json:"processed_papers"`
	Triples         []Triple       `json:"triples"`
}
