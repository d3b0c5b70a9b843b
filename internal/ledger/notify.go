package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/domain"
)

// Snapshot is the full committed state published after mutations.
type Snapshot struct {
	Transactions []domain.Transaction // top level only, splits attached
	Accounts     []domain.Account
	Categories   []domain.Category
}

// broadcaster fans values out to subscribers. Each subscriber channel holds
// at most one value; a slow reader only ever sees the newest.
type broadcaster[T any] struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan T
	last   T
	has    bool
	closed bool
}

func newBroadcaster[T any]() *broadcaster[T] {
	return &broadcaster[T]{subs: make(map[int]chan T)}
}

func (b *broadcaster[T]) subscribe() (<-chan T, func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan T, 1)
	if b.closed {
		close(ch)
		return ch, func() {}, true
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	if b.has {
		ch <- b.last
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel, b.has
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last, b.has = v, true
	for _, ch := range b.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// Replace the unread value.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (b *broadcaster[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// notifier gates publication behind a timer: the first change after a quiet
// period arms it, later changes ride along, and one snapshot is loaded when
// it fires.
type notifier struct {
	window time.Duration
	load   func(context.Context) (Snapshot, error)
	log    zerolog.Logger

	mu     sync.Mutex
	timer  *time.Timer
	armed  bool
	closed bool

	// fire serializes load-and-publish so snapshots go out in commit
	// order.
	fire sync.Mutex

	transactions *broadcaster[[]domain.Transaction]
	accounts     *broadcaster[[]domain.Account]
	categories   *broadcaster[[]domain.Category]
}

func newNotifier(window time.Duration, load func(context.Context) (Snapshot, error), log zerolog.Logger) *notifier {
	return &notifier{
		window:       window,
		load:         load,
		log:          log,
		transactions: newBroadcaster[[]domain.Transaction](),
		accounts:     newBroadcaster[[]domain.Account](),
		categories:   newBroadcaster[[]domain.Category](),
	}
}

func (n *notifier) changed() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.armed {
		return
	}
	n.armed = true
	if n.timer == nil {
		n.timer = time.AfterFunc(n.window, n.run)
		return
	}
	n.timer.Reset(n.window)
}

func (n *notifier) run() {
	n.fire.Lock()
	defer n.fire.Unlock()

	n.mu.Lock()
	n.armed = false
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return
	}

	snap, err := n.load(context.Background())
	if err != nil {
		n.log.Error().Err(err).Msg("snapshot load failed")
		return
	}
	n.transactions.publish(snap.Transactions)
	n.accounts.publish(snap.Accounts)
	n.categories.publish(snap.Categories)
	n.log.Debug().
		Int("transactions", len(snap.Transactions)).
		Int("accounts", len(snap.Accounts)).
		Int("categories", len(snap.Categories)).
		Msg("snapshot published")
}

func (n *notifier) close() {
	n.mu.Lock()
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()

	n.transactions.close()
	n.accounts.close()
	n.categories.close()
}

// primed schedules a first load for a subscriber that arrived before any
// publication.
func (n *notifier) primed(had bool) {
	if !had {
		n.changed()
	}
}

// SubscribeTransactions delivers the top-level transaction list after every
// burst of committed mutations. The channel is closed by cancel or Close.
func (s *Store) SubscribeTransactions() (<-chan []domain.Transaction, func()) {
	ch, cancel, had := s.notifier.transactions.subscribe()
	s.notifier.primed(had)
	return ch, cancel
}

// SubscribeAccounts delivers the account list, balances included.
func (s *Store) SubscribeAccounts() (<-chan []domain.Account, func()) {
	ch, cancel, had := s.notifier.accounts.subscribe()
	s.notifier.primed(had)
	return ch, cancel
}

func (s *Store) SubscribeCategories() (<-chan []domain.Category, func()) {
	ch, cancel, had := s.notifier.categories.subscribe()
	s.notifier.primed(had)
	return ch, cancel
}

func (s *Store) loadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.read(ctx, func(u *unit) error {
		var err error
		if snap.Transactions, err = u.listTopLevel(ctx, domain.TransactionFilter{}); err != nil {
			return err
		}
		if snap.Accounts, err = u.accounts.List(ctx); err != nil {
			return err
		}
		snap.Categories, err = u.categories.List(ctx)
		return err
	})
	return snap, err
}
