package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeStatement(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestDirFeedReadsNewFilesInOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, st, cash := newStager(t)
	dir := t.TempDir()

	writeStatement(t, dir, "2026-02-02.csv", "2026-02-02,-12.00,КАВА,,b-2\n")
	writeStatement(t, dir, "2026-02-01.csv", "date,amount,description\n2026-02-01,-30.00,АТБ,,b-1\nbad,row,here\n")
	writeStatement(t, dir, "notes.txt", "ignored")

	feed := &DirFeed{Dir: dir, AccountID: cash.ID, TZ: time.UTC, Log: zerolog.Nop()}
	page, err := feed.Fetch(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "2026-02-02.csv", page.Cursor)
	require.Len(t, page.Items, 2)
	require.Equal(t, "b-1", page.Items[0].BankTransactionID)
	require.Equal(t, "b-2", page.Items[1].BankTransactionID)

	page, err = feed.Fetch(ctx, page.Cursor)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, "2026-02-02.csv", page.Cursor)

	m := NewMonitor(feed, st, time.Hour, zerolog.Nop())
	n, err := m.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	writeStatement(t, dir, "2026-02-03.csv", "2026-02-03,-12.00,КАВА,,b-2\n2026-02-03,-5.00,ХЛІБ,,b-3\n")
	n, err = m.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	open, err := st.List(ctx, &cash.ID)
	require.NoError(t, err)
	require.Len(t, open, 3)
}

func TestDirFeedMissingDir(t *testing.T) {
	t.Parallel()
	feed := &DirFeed{Dir: filepath.Join(t.TempDir(), "nope"), Log: zerolog.Nop()}
	_, err := feed.Fetch(context.Background(), "")
	require.Error(t, err)
}

func TestMonitorResumesFromSavedCursor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, st, cash := newStager(t)
	dir := t.TempDir()
	writeStatement(t, dir, "2026-02-01.csv", "2026-02-01,-30.00,АТБ,,b-1\n")

	feed := &DirFeed{Dir: dir, AccountID: cash.ID, TZ: time.UTC, Log: zerolog.Nop()}
	first := NewMonitor(feed, st, time.Hour, zerolog.Nop())
	first.PersistCursor(s, "feed_cursor:test")
	n, err := first.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	saved, ok, err := s.GetSetting(ctx, "feed_cursor:test")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2026-02-01.csv", saved)

	// A fresh monitor over the same store must not re-read the old file.
	calls := &countingFeed{Feed: feed}
	second := NewMonitor(calls, st, time.Hour, zerolog.Nop())
	second.PersistCursor(s, "feed_cursor:test")
	n, err = second.Poll(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, []string{"2026-02-01.csv"}, calls.cursors)
}

type countingFeed struct {
	Feed
	cursors []string
}

func (f *countingFeed) Fetch(ctx context.Context, cursor string) (FeedPage, error) {
	f.cursors = append(f.cursors, cursor)
	return f.Feed.Fetch(ctx, cursor)
}
