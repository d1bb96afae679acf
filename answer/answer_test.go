package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/llm"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/query"
	"github.com/Wasifzf/Space-Bio-Knowledge-Engine/store"
)

// generateFunc adapts a function to the llm.Provider interface.
type generateFunc func(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error)

func (f generateFunc) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	return f(ctx, req)
}

func replyWith(content string) generateFunc {
	return func(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
		return &llm.GenerateResponse{Content: content}, nil
	}
}

func failWith(err error) generateFunc {
	return func(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
		return nil, err
	}
}

func rankedTriple(subject, predicate, object string, confidence float64, title string) store.Triple {
	return store.Triple{
		Subject:    subject,
		Predicate:  predicate,
		Object:     object,
		Confidence: confidence,
		Title:      title,
	}
}

func sampleRanked() []store.Triple {
	return []store.Triple{
		rankedTriple("Microgravity", "affects", "Bone Density", 0.95,
			"Effects of Microgravity on Bone Density in Mice"),
		rankedTriple("Plants", "grown_in", "Microgravity", 0.8,
			"Plant Growth in Space"),
	}
}

// ---------------------------------------------------------------------------
// Lister
// ---------------------------------------------------------------------------

func TestListerEmpty(t *testing.T) {
	got, err := Lister{}.Format(context.Background(), "anything", query.Intent{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != noFindingsMessage {
		t.Errorf("got %q, want the no-findings message", got)
	}
}

func TestListerFormat(t *testing.T) {
	got, err := Lister{}.Format(context.Background(), "q", query.Intent{}, sampleRanked())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Based on the research data, here are the relevant findings:\n\n" +
		"1. Microgravity affects Bone Density\n" +
		"   (Confidence: 0.95, Source: Effects of Microgravity on Bone Density in Mice...)\n\n" +
		"2. Plants grown_in Microgravity\n" +
		"   (Confidence: 0.8, Source: Plant Growth in Space...)\n\n"
	if got != want {
		t.Errorf("got:\n%q\nwant:\n%q", got, want)
	}
}

func TestListerTruncatesLongTitle(t *testing.T) {
	long := strings.Repeat("t", 60)
	ranked := []store.Triple{rankedTriple("A", "links", "B", 0.9, long)}

	got, _ := Lister{}.Format(context.Background(), "q", query.Intent{}, ranked)
	if strings.Contains(got, long) {
		t.Error("long title not truncated")
	}
	if !strings.Contains(got, strings.Repeat("t", 50)+"...") {
		t.Errorf("missing 50-rune excerpt with ellipsis:\n%s", got)
	}
}

func TestListerSuffixBeyondFive(t *testing.T) {
	var ranked []store.Triple
	for i := 0; i < 7; i++ {
		ranked = append(ranked, rankedTriple("Microgravity", "affects", "Bone Density", 0.9, "Title"))
	}

	got, _ := Lister{}.Format(context.Background(), "q", query.Intent{}, ranked)
	if !strings.HasSuffix(got, "... and 2 more related findings.") {
		t.Errorf("missing remainder suffix:\n%s", got)
	}
	if !strings.Contains(got, "5. Microgravity") {
		t.Error("fifth finding missing")
	}
	if strings.Contains(got, "6. Microgravity") {
		t.Error("sixth finding listed, want only five")
	}
}

func TestListerExactlyFiveNoSuffix(t *testing.T) {
	var ranked []store.Triple
	for i := 0; i < 5; i++ {
		ranked = append(ranked, rankedTriple("A", "links", "B", 0.9, "Title"))
	}

	got, _ := Lister{}.Format(context.Background(), "q", query.Intent{}, ranked)
	if strings.Contains(got, "more related findings") {
		t.Error("suffix present with exactly five findings")
	}
}

func TestListerConfidenceFormat(t *testing.T) {
	ranked := []store.Triple{
		rankedTriple("A", "links", "B", 0.7, "Title"),
		rankedTriple("A", "links", "C", 0.85, "Title"),
	}

	got, _ := Lister{}.Format(context.Background(), "q", query.Intent{}, ranked)
	if !strings.Contains(got, "(Confidence: 0.7,") {
		t.Errorf("0.7 not rendered bare:\n%s", got)
	}
	if !strings.Contains(got, "(Confidence: 0.85,") {
		t.Errorf("0.85 not rendered bare:\n%s", got)
	}
}

// ---------------------------------------------------------------------------
// Generative
// ---------------------------------------------------------------------------

func TestGenerativeUsesLLM(t *testing.T) {
	var got llm.GenerateRequest
	provider := generateFunc(func(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
		got = req
		return &llm.GenerateResponse{Content: "\n Microgravity steadily erodes bone density in mice. \n"}, nil
	})
	g := NewGenerative(provider, "llama-3.3-70b-versatile")

	intent := query.Intent{Description: "User wants bone effects.", Focus: query.FocusBone}
	text, err := g.Format(context.Background(), "How does microgravity affect bone density?", intent, sampleRanked())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Microgravity steadily erodes bone density in mice." {
		t.Errorf("got %q, want the trimmed model reply", text)
	}

	if got.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", got.Temperature)
	}
	if got.MaxTokens != 800 {
		t.Errorf("max tokens = %d, want 800", got.MaxTokens)
	}
	if got.Model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q", got.Model)
	}
	for _, fragment := range []string{
		`"How does microgravity affect bone density?"`,
		"Knowledge Relationships:",
		"Microgravity affects Bone Density",
		"Query Intent: User wants bone effects.",
		"Focus Area: bone",
	} {
		if !strings.Contains(got.Prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}

func TestGenerativePromptDefaults(t *testing.T) {
	var prompt string
	provider := generateFunc(func(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
		prompt = req.Prompt
		return &llm.GenerateResponse{Content: "ok"}, nil
	})
	g := NewGenerative(provider, "m")

	if _, err := g.Format(context.Background(), "q", query.Intent{}, sampleRanked()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "Query Intent: General inquiry") {
		t.Error("missing default intent description")
	}
	if !strings.Contains(prompt, "Focus Area: General") {
		t.Error("missing default focus area")
	}
}

func TestGenerativeContextCap(t *testing.T) {
	var prompt string
	provider := generateFunc(func(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
		prompt = req.Prompt
		return &llm.GenerateResponse{Content: "ok"}, nil
	})
	g := NewGenerative(provider, "m")

	var ranked []store.Triple
	for i := 0; i < 12; i++ {
		ranked = append(ranked, rankedTriple("A", "links", "B", 0.9, "Title"))
	}
	if _, err := g.Format(context.Background(), "q", query.Intent{}, ranked); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(prompt, `"relationship"`); n != 10 {
		t.Errorf("prompt carries %d relationships, want 10", n)
	}
}

func TestGenerativeIncludesEvidence(t *testing.T) {
	var prompt string
	provider := generateFunc(func(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
		prompt = req.Prompt
		return &llm.GenerateResponse{Content: "ok"}, nil
	})
	g := NewGenerative(provider, "m")

	tr := sampleRanked()[:1]
	tr[0].SourceText = "The study lasted ninety days. Mice exposed to microgravity lost significant bone density."
	if _, err := g.Format(context.Background(), "How does microgravity affect bone density?", query.Intent{}, tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "Mice exposed to microgravity lost significant bone density.") {
		t.Errorf("prompt missing the evidence sentence:\n%s", prompt)
	}
	if strings.Contains(prompt, "The study lasted ninety days.") {
		t.Error("prompt carries the irrelevant sentence as evidence")
	}
}

func TestGenerativeFallsBackOnError(t *testing.T) {
	g := NewGenerative(failWith(errors.New("rate limited")), "m")

	got, err := g.Format(context.Background(), "q", query.Intent{}, sampleRanked())
	if err != nil {
		t.Fatalf("fallback should absorb the error, got %v", err)
	}
	if !strings.HasPrefix(got, "Based on the research data") {
		t.Errorf("got %q, want the list fallback", got)
	}
}

func TestGenerativeEmptyReplyFallsBack(t *testing.T) {
	g := NewGenerative(replyWith("  \n"), "m")

	got, _ := g.Format(context.Background(), "q", query.Intent{}, sampleRanked())
	if !strings.HasPrefix(got, "Based on the research data") {
		t.Errorf("got %q, want the list fallback", got)
	}
}

func TestGenerativeNothingToCiteSkipsLLM(t *testing.T) {
	calls := 0
	provider := generateFunc(func(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
		calls++
		return &llm.GenerateResponse{Content: "should not be used"}, nil
	})
	g := NewGenerative(provider, "m")

	got, _ := g.Format(context.Background(), "q", query.Intent{}, nil)
	if got != noFindingsMessage {
		t.Errorf("got %q, want the no-findings message", got)
	}
	if calls != 0 {
		t.Errorf("llm called %d times with nothing to cite, want 0", calls)
	}
}

func TestGenerativeNilProvider(t *testing.T) {
	g := NewGenerative(nil, "")

	got, _ := g.Format(context.Background(), "q", query.Intent{}, sampleRanked())
	if !strings.HasPrefix(got, "Based on the research data") {
		t.Errorf("got %q, want the list output", got)
	}
}

// ---------------------------------------------------------------------------
// Evidence snippets
// ---------------------------------------------------------------------------

func TestBestEvidence(t *testing.T) {
	qwords := significantWords("How does microgravity affect bone density?")

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "picks overlapping sentence",
			text: "The study lasted ninety days. Mice exposed to microgravity lost significant bone density.",
			want: "Mice exposed to microgravity lost significant bone density.",
		},
		{
			name: "joins scoring neighbor",
			text: "Bone loss accelerated in microgravity. Density dropped fastest in load-bearing bone.",
			want: "Bone loss accelerated in microgravity. Density dropped fastest in load-bearing bone.",
		},
		{
			name: "no overlap",
			text: "Nothing relevant in this passage at all.",
			want: "",
		},
		{
			name: "empty text",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bestEvidence(tt.text, qwords); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBestEvidenceNoQuestionWords(t *testing.T) {
	if got := bestEvidence("Bone density dropped.", nil); got != "" {
		t.Errorf("got %q, want empty with no question words", got)
	}
}

func TestSignificantWords(t *testing.T) {
	got := significantWords("The mice that were exposed to microgravity")

	for _, want := range []string{"mice", "exposed", "microgravity"} {
		if !got[want] {
			t.Errorf("missing %q", want)
		}
	}
	for _, absent := range []string{"that", "were", "the", "to"} {
		if got[absent] {
			t.Errorf("%q should be excluded", absent)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One sentence. Another one? Yes! Trailing fragment")
	want := []string{"One sentence.", "Another one?", "Yes!", "Trailing fragment"}

	if len(got) != len(want) {
		t.Fatalf("got %d sentences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
