package files

import (
	"context"
	"testing"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/logging"
)

type scriptedLister struct {
	calls   int
	results []func() ([]api.DocumentRecord, error)
}

func (s *scriptedLister) ListFiles(ctx context.Context) ([]api.DocumentRecord, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx]()
}

func ok(records ...api.DocumentRecord) func() ([]api.DocumentRecord, error) {
	return func() ([]api.DocumentRecord, error) { return records, nil }
}

func fail(kind api.ErrorKind) func() ([]api.DocumentRecord, error) {
	return func() ([]api.DocumentRecord, error) { return nil, &api.Error{Kind: kind} }
}

func TestRefreshSucceedsOnThirdAttempt(t *testing.T) {
	want := api.DocumentRecord{ID: 1, Filename: "notes.txt"}
	lister := &scriptedLister{results: []func() ([]api.DocumentRecord, error){
		fail(api.KindNetworkUnavailable),
		fail(api.KindServer),
		ok(want),
	}}
	r := NewRegistry(lister, logging.Discard())
	r.SetRetryPolicy(3, 0)

	records, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if lister.calls != 3 {
		t.Fatalf("calls = %d, want 3", lister.calls)
	}
	if len(records) != 1 || records[0].Filename != "notes.txt" {
		t.Fatalf("records = %+v", records)
	}
	if cached, loaded := r.Documents(); !loaded || len(cached) != 1 {
		t.Fatalf("cache = %+v loaded=%v", cached, loaded)
	}
}

func TestExhaustedRefreshPreservesCache(t *testing.T) {
	seed := api.DocumentRecord{ID: 7, Filename: "paper.pdf"}
	lister := &scriptedLister{results: []func() ([]api.DocumentRecord, error){ok(seed)}}
	r := NewRegistry(lister, logging.Discard())
	r.SetRetryPolicy(3, 0)
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}

	lister.results = []func() ([]api.DocumentRecord, error){fail(api.KindServer)}
	lister.calls = 0
	if _, err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if lister.calls != 3 {
		t.Fatalf("calls = %d, want bounded 3", lister.calls)
	}

	cached, loaded := r.Documents()
	if !loaded || len(cached) != 1 || cached[0].Filename != "paper.pdf" {
		t.Fatalf("cache was not preserved: %+v loaded=%v", cached, loaded)
	}
}

func TestUnauthorizedStopsRetrying(t *testing.T) {
	lister := &scriptedLister{results: []func() ([]api.DocumentRecord, error){fail(api.KindUnauthorized)}}
	r := NewRegistry(lister, logging.Discard())
	r.SetRetryPolicy(3, 0)

	_, err := r.Refresh(context.Background())
	if api.KindOf(err) != api.KindUnauthorized {
		t.Fatalf("kind = %v", api.KindOf(err))
	}
	if lister.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on authorization loss)", lister.calls)
	}
}

func TestDocumentsBeforeFirstRefresh(t *testing.T) {
	r := NewRegistry(&scriptedLister{results: []func() ([]api.DocumentRecord, error){ok()}}, logging.Discard())
	if _, loaded := r.Documents(); loaded {
		t.Fatal("cache must report unloaded before first refresh")
	}
}
