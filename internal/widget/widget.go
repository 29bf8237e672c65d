package widget

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Display is the surface the widget draws on.
type Display interface {
	SetLoading(loading bool)
	Clear()
	Render(v View)
}

// Recommender fetches recommendations for a trimmed user id.
type Recommender interface {
	Recommend(ctx context.Context, userID string) (*Response, error)
}

// Widget drives one input box and one result area. Each submission takes
// a sequence number and only the latest submission may touch the display.
type Widget struct {
	client  Recommender
	display Display
	seq     atomic.Uint64
	mu      sync.Mutex
}

func New(client Recommender, display Display) *Widget {
	return &Widget{client: client, display: display}
}

// Submit runs one submission to completion. It returns false when the
// response was discarded because a newer submission started meanwhile.
func (w *Widget) Submit(ctx context.Context, raw string) bool {
	userID := strings.TrimSpace(raw)

	// Issuing the token and preparing the display happen under one lock,
	// so a submission can never redraw over a newer one.
	w.mu.Lock()
	token := w.seq.Add(1)
	if userID == "" {
		defer w.mu.Unlock()
		w.display.SetLoading(false)
		w.display.Clear()
		w.display.Render(ErrorView(ValidationMessage))
		return true
	}
	w.display.SetLoading(true)
	w.display.Clear()
	w.mu.Unlock()

	resp, err := w.client.Recommend(ctx, userID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq.Load() != token {
		return false
	}
	w.display.SetLoading(false)
	w.display.Render(ResultView(resp, err))
	return true
}

// SubmitAsync starts Submit in its own goroutine. The channel yields
// Submit's result once the submission settles.
func (w *Widget) SubmitAsync(ctx context.Context, raw string) <-chan bool {
	done := make(chan bool, 1)
	go func() {
		done <- w.Submit(ctx, raw)
	}()
	return done
}
