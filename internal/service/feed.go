package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jask/jaskledger/internal/domain"
)

// DirFeed serves bank statement CSVs dropped into a directory. Files are
// consumed in name order; the cursor is the last file name read, so export
// files named by date are picked up exactly once.
type DirFeed struct {
	Dir       string
	AccountID uuid.UUID
	TZ        *time.Location
	Log       zerolog.Logger
}

func (f *DirFeed) Fetch(ctx context.Context, cursor string) (FeedPage, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return FeedPage{}, fmt.Errorf("read feed dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if e.Name() > cursor {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	page := FeedPage{Cursor: cursor}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return FeedPage{}, err
		}
		items, err := f.readFile(name)
		if err != nil {
			return FeedPage{}, err
		}
		page.Items = append(page.Items, items...)
		page.Cursor = name
	}
	return page, nil
}

func (f *DirFeed) readFile(name string) ([]domain.PendingTransaction, error) {
	fh, err := os.Open(filepath.Join(f.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer fh.Close()

	rows, errs := parseStatement(fh, f.AccountID, f.TZ)
	for _, e := range errs {
		f.Log.Warn().Err(e).Str("file", name).Msg("statement row skipped")
	}
	out := make([]domain.PendingTransaction, len(rows))
	for i, r := range rows {
		out[i] = r.p
	}
	return out, nil
}
