// Package ledger is the transactional persistence boundary. Account
// balances are a projection of transaction history maintained in the same
// unit of work as every record change, and multi-record edits commit or roll
// back as one.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/database"
	"github.com/jask/jaskledger/internal/database/repository"
	"github.com/jask/jaskledger/internal/repoerr"
)

// DefaultNotifyDebounce coalesces bursts of mutations into one snapshot.
const DefaultNotifyDebounce = 150 * time.Millisecond

// Options tune a Store.
type Options struct {
	NotifyDebounce time.Duration
	Logger         zerolog.Logger
	Clock          func() time.Time
}

// Store is the single-writer ledger. Mutations are serialized by mu; reads
// go straight to the database and observe only committed state.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
	now func() time.Time

	notifier *notifier
}

// New wraps an open, migrated database.
func New(db *sql.DB, opts Options) *Store {
	if opts.NotifyDebounce <= 0 {
		opts.NotifyDebounce = DefaultNotifyDebounce
	}
	if opts.Clock == nil {
		opts.Clock = database.Now
	}
	s := &Store{
		db:  db,
		log: opts.Logger.With().Str("component", "ledger").Logger(),
		now: func() time.Time { return opts.Clock().UTC() },
	}
	s.notifier = newNotifier(opts.NotifyDebounce, s.loadSnapshot, s.log)
	return s
}

// OpenConfig selects and prepares the backing database.
type OpenConfig struct {
	Path        string // database.MemoryPath for an in-memory store
	AutoMigrate bool
}

// Open opens the database at cfg.Path, migrating it or verifying its schema.
func Open(ctx context.Context, cfg OpenConfig, opts Options) (*Store, error) {
	if cfg.Path != database.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, repoerr.Unavailable(err)
		}
	}
	db, err := database.Open(cfg.Path)
	if err != nil {
		return nil, repoerr.Unavailable(err)
	}
	if cfg.AutoMigrate {
		err = database.RunMigrations(db)
	} else {
		err = database.CheckSchema(db)
	}
	if err != nil {
		_ = db.Close()
		if cfg.AutoMigrate || errors.Is(err, database.ErrSchemaOutdated) || errors.Is(err, database.ErrSchemaDirty) {
			return nil, repoerr.Migration("schema does not match this build", err)
		}
		return nil, repoerr.Unavailable(err)
	}
	return New(db, opts), nil
}

// DB exposes the handle for maintenance tooling.
func (s *Store) DB() *sql.DB { return s.db }

// Close stops notifications and closes the database.
func (s *Store) Close() error {
	s.notifier.close()
	return s.db.Close()
}

// mutate runs fn as one unit of work under the writer lock. notify requests
// a snapshot publication after a successful commit.
func (s *Store) mutate(ctx context.Context, op string, notify bool, fn func(u *unit) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(newUnit(tx, s.now))
	})
	if err != nil {
		err = classify(err, repoerr.SaveFailed)
		s.log.Warn().Str("op", op).Stringer("kind", kindOf(err)).Err(err).Msg("unit of work rolled back")
		return err
	}
	s.log.Debug().Str("op", op).Msg("committed")
	if notify {
		s.notifier.changed()
	}
	return nil
}

// read runs fn inside a transaction so multi-query reads see one state.
func (s *Store) read(ctx context.Context, fn func(u *unit) error) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(newUnit(tx, s.now))
	})
	if err != nil {
		return classify(err, repoerr.FetchFailed)
	}
	return nil
}

// classify turns anything that is not already typed into a typed error.
func classify(err error, fallback repoerr.Kind) error {
	if e := repoerr.As(err); e != nil {
		return e
	}
	if database.IsClosed(err) {
		return repoerr.Unavailable(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &repoerr.Error{Kind: fallback, Detail: "cancelled", Err: err}
	}
	if database.IsConstraint(err) {
		return &repoerr.Error{Kind: repoerr.ConflictDetected, Detail: "constraint violated", Err: err}
	}
	return &repoerr.Error{Kind: fallback, Err: err}
}

func kindOf(err error) repoerr.Kind {
	k, _ := repoerr.KindOf(err)
	return k
}

func fetchErr(err error) error { return classify(err, repoerr.FetchFailed) }

func (s *Store) accountsRepo() *repository.AccountRepo {
	return repository.NewAccountRepo(s.db)
}

func (s *Store) categoriesRepo() *repository.CategoryRepo {
	return repository.NewCategoryRepo(s.db)
}
