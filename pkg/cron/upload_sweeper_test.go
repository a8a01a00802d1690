package cron

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"pgfinder_backend/pkg/logger"
	"pgfinder_backend/pkg/utils/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	refs map[string]bool
	err  error
	seen []string
}

func (f *fakeIndex) Referenced(_ context.Context, paths []string) (map[string]bool, error) {
	f.seen = append(f.seen, paths...)
	if f.err != nil {
		return nil, f.err
	}
	return f.refs, nil
}

func seed(t *testing.T, s *storage.LocalStorage, name string, age time.Duration) {
	t.Helper()
	_, err := s.Save(context.Background(), name, strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	ts := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), name), ts, ts))
}

func remaining(t *testing.T, s *storage.LocalStorage) []string {
	t.Helper()
	var out []string
	require.NoError(t, s.Walk(context.Background(), func(path string, _ time.Time) error {
		out = append(out, path)
		return nil
	}))
	sort.Strings(out)
	return out
}

func TestSweep_RemovesOnlyOldUnreferencedFiles(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	seed(t, s, "old-orphan.png", 72*time.Hour)
	seed(t, s, "old-used.png", 72*time.Hour)
	seed(t, s, "fresh-orphan.png", time.Hour)

	index := &fakeIndex{refs: map[string]bool{"uploads/old-used.png": true}}
	sweeper := NewUploadSweeper(s, index, 48*time.Hour, logger.Discard())

	removed, err := sweeper.Sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"uploads/fresh-orphan.png", "uploads/old-used.png"}, remaining(t, s))
	assert.ElementsMatch(t, []string{"uploads/old-orphan.png", "uploads/old-used.png"}, index.seen)
}

func TestSweep_NothingOldSkipsLookup(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)
	seed(t, s, "new.png", time.Minute)

	index := &fakeIndex{}
	removed, err := NewUploadSweeper(s, index, time.Hour, logger.Discard()).Sweep(context.Background())

	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Empty(t, index.seen)
}

func TestSweep_IndexErrorKeepsFiles(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)
	seed(t, s, "old.png", 72*time.Hour)

	index := &fakeIndex{err: errors.New("db down")}
	_, err = NewUploadSweeper(s, index, time.Hour, logger.Discard()).Sweep(context.Background())

	require.Error(t, err)
	assert.Equal(t, []string{"uploads/old.png"}, remaining(t, s))
}

func TestInitUploadSweeperCron_RejectsBadSchedule(t *testing.T) {
	_, err := InitUploadSweeperCron("not a schedule", &UploadSweeper{}, logger.Discard())
	assert.Error(t, err)
}
