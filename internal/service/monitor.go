package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/domain"
)

// DefaultPollInterval is how often the monitor asks the feed for news.
const DefaultPollInterval = 5 * time.Minute

// ErrMonitorRunning is returned by Start on a running monitor.
var ErrMonitorRunning = errors.New("monitor already running")

// FeedPage is one batch from a bank feed. Cursor marks where the next fetch
// resumes.
type FeedPage struct {
	Items  []domain.PendingTransaction
	Cursor string
}

// Feed is a source of imported candidates, such as a bank API.
type Feed interface {
	Fetch(ctx context.Context, cursor string) (FeedPage, error)
}

// CursorStore keeps a feed cursor across restarts.
type CursorStore interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Monitor polls a feed into the stager until stopped. A poll in progress
// always finishes before a pause takes effect, and the cursor only advances
// after every item of a page is staged, so pausing neither drops nor repeats
// records.
type Monitor struct {
	feed     Feed
	stager   *Stager
	interval time.Duration
	log      zerolog.Logger

	poll      sync.Mutex // one poll at a time
	cursor    string
	cursors   CursorStore
	cursorKey string
	restored  bool

	mu      sync.Mutex
	paused  bool
	cancel  context.CancelFunc
	done    chan struct{}
	resumed chan struct{}
}

func NewMonitor(feed Feed, stager *Stager, interval time.Duration, log zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		feed:     feed,
		stager:   stager,
		interval: interval,
		log:      log.With().Str("component", "monitor").Logger(),
	}
}

// PersistCursor makes the monitor resume from the cursor saved under key and
// save every cursor it advances to. Call it before the first poll.
func (m *Monitor) PersistCursor(store CursorStore, key string) {
	m.poll.Lock()
	defer m.poll.Unlock()
	m.cursors, m.cursorKey, m.restored = store, key, false
}

// Start launches the loop. It polls once immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return ErrMonitorRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.resumed = make(chan struct{}, 1)
	go m.loop(ctx, m.done, m.resumed)
	m.log.Info().Dur("interval", m.interval).Msg("monitor started")
	return nil
}

// Stop cancels the loop and waits for it to exit. Stopping an idle monitor
// is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Info().Msg("monitor stopped")
}

func (m *Monitor) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		m.paused = true
		m.log.Info().Msg("monitor paused")
	}
}

// Resume lifts a pause and polls right away.
func (m *Monitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.paused {
		return
	}
	m.paused = false
	m.log.Info().Msg("monitor resumed")
	if m.resumed != nil {
		select {
		case m.resumed <- struct{}{}:
		default:
		}
	}
}

func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Running reports whether the loop is active, paused or not.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}, resumed <-chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if !m.Paused() {
			if _, err := m.Poll(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn().Err(err).Msg("poll failed")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-resumed:
		}
	}
}

// Poll fetches one page and stages every record not staged before. It
// returns how many records were staged.
func (m *Monitor) Poll(ctx context.Context) (int, error) {
	m.poll.Lock()
	defer m.poll.Unlock()

	if m.cursors != nil && !m.restored {
		saved, ok, err := m.cursors.GetSetting(ctx, m.cursorKey)
		if err != nil {
			return 0, err
		}
		if ok {
			m.cursor = saved
		}
		m.restored = true
	}

	page, err := m.feed.Fetch(ctx, m.cursor)
	if err != nil {
		return 0, err
	}
	staged := 0
	for _, item := range page.Items {
		exists, err := m.stager.IsStaged(ctx, item.BankTransactionID)
		if err != nil {
			return staged, err
		}
		if exists {
			continue
		}
		if _, err := m.stager.Stage(ctx, item); err != nil {
			return staged, err
		}
		staged++
	}
	if m.cursors != nil && page.Cursor != m.cursor {
		if err := m.cursors.SetSetting(ctx, m.cursorKey, page.Cursor); err != nil {
			return staged, err
		}
	}
	m.cursor = page.Cursor
	if staged > 0 {
		m.log.Info().Int("staged", staged).Str("cursor", m.cursor).Msg("feed polled")
	}
	return staged, nil
}
