package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/codecheck/internal/cache"
	"github.com/dshills/codecheck/internal/providers"
)

// stubReviewer maps a substring of the user prompt to a canned response.
// Safe for concurrent use.
type stubReviewer struct {
	mu        sync.Mutex
	calls     int
	prompts   []string
	responses map[string]string
	failFor   string // fail any prompt containing this
}

func (s *stubReviewer) Review(_ context.Context, req providers.ReviewRequest) (providers.ReviewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, req.UserPrompt)
	if s.failFor != "" && strings.Contains(req.UserPrompt, s.failFor) {
		return providers.ReviewResponse{}, errors.New("model unavailable")
	}
	for sub, resp := range s.responses {
		if strings.Contains(req.UserPrompt, sub) {
			return providers.ReviewResponse{Content: resp, TokensUsed: 10}, nil
		}
	}
	return providers.ReviewResponse{Content: "[]", TokensUsed: 5}, nil
}

func (s *stubReviewer) Name() string { return "stub" }

func (s *stubReviewer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// sequenceReviewer returns canned responses in call order.
type sequenceReviewer struct {
	mu    sync.Mutex
	calls int
	seq   []string
}

func (s *sequenceReviewer) Review(_ context.Context, _ providers.ReviewRequest) (providers.ReviewResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx < len(s.seq) {
		return providers.ReviewResponse{Content: s.seq[idx], TokensUsed: 10}, nil
	}
	return providers.ReviewResponse{Content: "[]"}, nil
}

func (s *sequenceReviewer) Name() string { return "sequence" }

func newTestRequester(r providers.Reviewer, opts Options) *requester {
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 100 // keep tests fast
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newRequester(r, opts, logger)
}

func testChunks(files ...string) []Chunk {
	chunks := make([]Chunk, len(files))
	for i, f := range files {
		chunks[i] = Chunk{File: f, Text: "+change in " + f + "\n", Index: 0, Total: 1}
	}
	return chunks
}

func TestRequestAll_CollectsInChunkOrder(t *testing.T) {
	stub := &stubReviewer{responses: map[string]string{
		"a.go": `[{"hunk":1,"line":1,"severity":"low","comment":"a"}]`,
		"b.go": `[{"hunk":1,"line":2,"severity":"high","comment":"b"}]`,
		"c.go": `[]`,
	}}
	r := newTestRequester(stub, Options{})

	results, failures, _ := r.requestAll(context.Background(), testChunks("a.go", "b.go", "c.go"))
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"a.go", "b.go", "c.go"} {
		if results[i].Chunk.File != want {
			t.Errorf("results[%d].File = %q, want %q", i, results[i].Chunk.File, want)
		}
	}
	if len(results[0].Suggestions) != 1 || results[0].Suggestions[0].Body != "a" {
		t.Errorf("results[0] suggestions = %+v", results[0].Suggestions)
	}
	if stub.callCount() != 3 {
		t.Errorf("reviewer called %d times, want 3", stub.callCount())
	}
}

func TestRequestAll_PartialFailure(t *testing.T) {
	stub := &stubReviewer{failFor: "b.go"}
	r := newTestRequester(stub, Options{})

	results, failures, _ := r.requestAll(context.Background(), testChunks("a.go", "b.go", "c.go"))
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if failures[0].File != "b.go" {
		t.Errorf("failure file = %q, want b.go", failures[0].File)
	}
	if failures[0].Cause == "" {
		t.Error("failure cause is empty")
	}
}

func TestRequestAll_RepairPass(t *testing.T) {
	seq := &sequenceReviewer{seq: []string{
		"I think the code looks mostly fine {{{",
		`[{"hunk":1,"line":1,"severity":"low","comment":"repaired"}]`,
	}}
	r := newTestRequester(seq, Options{})

	results, failures, _ := r.requestAll(context.Background(), testChunks("a.go"))
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(results) != 1 || len(results[0].Suggestions) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Suggestions[0].Body != "repaired" {
		t.Errorf("Body = %q, want repaired", results[0].Suggestions[0].Body)
	}
	if seq.calls != 2 {
		t.Errorf("reviewer called %d times, want 2 (initial + repair)", seq.calls)
	}
	// Token usage accumulates across both calls.
	if results[0].TokensUsed != 20 {
		t.Errorf("TokensUsed = %d, want 20", results[0].TokensUsed)
	}
}

func TestRequestAll_RepairFails(t *testing.T) {
	seq := &sequenceReviewer{seq: []string{"still {{{", "not json either"}}
	r := newTestRequester(seq, Options{})

	results, failures, _ := r.requestAll(context.Background(), testChunks("a.go"))
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if !strings.Contains(failures[0].Cause, "after repair") {
		t.Errorf("Cause = %q, want repair failure", failures[0].Cause)
	}
}

func TestRequestAll_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubReviewer{}
	r := newTestRequester(stub, Options{})

	results, failures, _ := r.requestAll(ctx, testChunks("a.go", "b.go"))
	if len(results) != 0 {
		t.Errorf("got %d results after cancellation, want 0", len(results))
	}
	if len(failures) != 2 {
		t.Errorf("got %d failures, want every chunk recorded", len(failures))
	}
}

func TestRequestOne_CachePopulatesAndHits(t *testing.T) {
	store, err := cache.New(true, t.TempDir(), 3600)
	if err != nil {
		t.Fatal(err)
	}
	stub := &stubReviewer{responses: map[string]string{
		"a.go": `[{"hunk":1,"line":1,"severity":"low","comment":"cached"}]`,
	}}
	r := newTestRequester(stub, Options{Cache: store, Provider: "openai", Model: "gpt-4o"})

	chunk := testChunks("a.go")[0]

	first, err := r.requestOne(context.Background(), chunk)
	if err != nil {
		t.Fatalf("first requestOne error: %v", err)
	}
	if first.FromCache {
		t.Error("first request should not come from cache")
	}

	second, err := r.requestOne(context.Background(), chunk)
	if err != nil {
		t.Fatalf("second requestOne error: %v", err)
	}
	if !second.FromCache {
		t.Error("second request should come from cache")
	}
	if stub.callCount() != 1 {
		t.Errorf("reviewer called %d times, want 1", stub.callCount())
	}
	if len(second.Suggestions) != 1 || second.Suggestions[0].Body != "cached" {
		t.Errorf("cached suggestions = %+v", second.Suggestions)
	}
}

func TestRequestOne_TruncatesOversized(t *testing.T) {
	stub := &stubReviewer{}
	r := newTestRequester(stub, Options{ChunkBudget: 50})

	chunk := Chunk{
		File:      "big.go",
		Text:      strings.Repeat("x", 200),
		Index:     0,
		Total:     1,
		Oversized: true,
	}
	if _, err := r.requestOne(context.Background(), chunk); err != nil {
		t.Fatalf("requestOne error: %v", err)
	}

	prompt := stub.prompts[0]
	if !strings.Contains(prompt, truncationMarker) {
		t.Error("prompt missing truncation marker")
	}
	if strings.Contains(prompt, strings.Repeat("x", 51)) {
		t.Error("prompt contains more than the budgeted diff text")
	}
}
