package service

import (
	"context"
	"sync"
	"time"
)

// DefaultSuggestDebounce is the quiet period before a lookup starts.
const DefaultSuggestDebounce = 300 * time.Millisecond

// SuggestInput is one edit of the description or merchant field.
type SuggestInput struct {
	Description string
	Merchant    *string
}

// SuggestResult pairs an input with the suggestion computed for it.
type SuggestResult struct {
	Input      SuggestInput
	Suggestion Suggestion
	Err        error
}

// Suggester runs engine lookups off the typing path. Every Update cancels
// the lookup in flight and restarts the quiet period, so only the newest
// input can ever reach the callback. deliver runs under the Suggester lock
// and must not call back into it.
type Suggester struct {
	engine  *Engine
	delay   time.Duration
	deliver func(SuggestResult)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSuggester(engine *Engine, delay time.Duration, deliver func(SuggestResult)) *Suggester {
	if delay <= 0 {
		delay = DefaultSuggestDebounce
	}
	return &Suggester{engine: engine, delay: delay, deliver: deliver}
}

// Update supersedes any pending or running lookup with in.
func (s *Suggester) Update(ctx context.Context, in SuggestInput) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, seq, in)
}

func (s *Suggester) run(ctx context.Context, seq uint64, in SuggestInput) {
	defer s.wg.Done()

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	sug, err := s.engine.Suggest(ctx, in.Description, in.Merchant)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return
	}
	s.deliver(SuggestResult{Input: in, Suggestion: sug, Err: err})
}

// Cancel drops any pending lookup.
func (s *Suggester) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Close cancels and waits for lookups in flight to return.
func (s *Suggester) Close() {
	s.Cancel()
	s.wg.Wait()
}
