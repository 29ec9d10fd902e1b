package files

import (
	"context"
	"sync"
	"time"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/api"
	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/logging"
)

// Lister is the slice of the gateway the registry needs.
type Lister interface {
	ListFiles(ctx context.Context) ([]api.DocumentRecord, error)
}

// Registry caches the confirmed document list. Refreshes retry a bounded
// number of times; a failed refresh never empties a populated cache
// (stale-but-available).
type Registry struct {
	mu     sync.Mutex
	lister Lister
	log    *logging.Logger

	attempts int
	delay    time.Duration

	cache  []api.DocumentRecord
	loaded bool
}

func NewRegistry(lister Lister, log *logging.Logger) *Registry {
	return &Registry{
		lister:   lister,
		log:      log,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
}

// SetRetryPolicy overrides the attempt count and inter-attempt delay.
func (r *Registry) SetRetryPolicy(attempts int, delay time.Duration) {
	if attempts > 0 {
		r.attempts = attempts
	}
	if delay >= 0 {
		r.delay = delay
	}
}

// Refresh fetches the document list, retrying up to the attempt limit with
// a short fixed delay. On exhaustion the previous cache is preserved and the
// last error is returned.
func (r *Registry) Refresh(ctx context.Context) ([]api.DocumentRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		records, err := r.lister.ListFiles(ctx)
		if err == nil {
			r.mu.Lock()
			r.cache = records
			r.loaded = true
			r.mu.Unlock()
			return records, nil
		}
		lastErr = err
		// Authorization loss is handled globally; retrying would just
		// hammer the backend with a dead credential.
		if api.KindOf(err) == api.KindUnauthorized {
			break
		}
		r.log.Error("file list refresh failed", map[string]interface{}{
			"attempt": attempt, "kind": api.KindOf(err).String(),
		})
		if attempt < r.attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}
	return nil, lastErr
}

// Documents returns the cached list; ok is false before the first
// successful refresh.
func (r *Registry) Documents() ([]api.DocumentRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil, false
	}
	out := make([]api.DocumentRecord, len(r.cache))
	copy(out, r.cache)
	return out, true
}
