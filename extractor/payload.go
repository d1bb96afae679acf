package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

var (
	// ErrNoPayload is returned when the model reply contains no JSON object.
	ErrNoPayload = errors.New("extractor: no json payload in reply")

	// ErrInvalidPayload is returned when a JSON object was found but could
	// not be decoded into the triples shape, even after a repair pass.
	ErrInvalidPayload = errors.New("extractor: invalid triples payload")
)

// codeFenceRe strips markdown code fences from LLM output.
var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractPayload locates the JSON object embedded in raw LLM output.
// It handles common model quirks: markdown code fences and prose before
// or after the object.
func extractPayload(raw string) (string, error) {
	if m := codeFenceRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}

	return "", ErrNoPayload
}

// triplesPayload is the JSON shape the extraction prompt asks for. Unknown
// per-triple keys survive into Triple.Extra.
type triplesPayload struct {
	Triples []store.Triple `json:"triples"`
}

// parseTriples decodes the triples payload from a raw model reply. The reply
// is untrusted text: a strict parse is tried first, then a jsonrepair pass
// for the malformed-but-salvageable output smaller models produce (single
// quotes, trailing commas, unquoted keys).
func parseTriples(raw string) ([]store.Triple, error) {
	payload, err := extractPayload(raw)
	if err != nil {
		return nil, err
	}

	var out triplesPayload
	if err := json.Unmarshal([]byte(payload), &out); err == nil {
		return out.Triples, nil
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: repair: %v", ErrInvalidPayload, err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return out.Triples, nil
}
