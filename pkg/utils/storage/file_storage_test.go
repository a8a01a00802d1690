package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilename(t *testing.T) {
	a := NewFilename("My Room Photo.JPG", ".JPG")
	b := NewFilename("My Room Photo.JPG", ".JPG")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "my-room-photo-"), a)
	assert.True(t, strings.HasSuffix(a, ".jpg"), a)
	assert.NotContains(t, a, " ")

	c := NewFilename("....png", ".png")
	assert.True(t, strings.HasSuffix(c, ".png"))
	_, err := FilenameFromPath(c)
	assert.NoError(t, err)
}

func TestFilenameFromPath(t *testing.T) {
	name, err := FilenameFromPath("uploads/abc.png")
	require.NoError(t, err)
	assert.Equal(t, "abc.png", name)

	for _, bad := range []string{"", "uploads/", "uploads/../etc/passwd", "../x.png", `uploads/a\b.png`, "uploads/.."} {
		_, err := FilenameFromPath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestLocalStorage_SaveWalkDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "uploads"), "http://localhost:3000/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := s.Save(ctx, "room.png", strings.NewReader("data"), 4, "image/png")
	require.NoError(t, err)
	assert.Equal(t, Object{
		Filename: "room.png",
		Path:     "uploads/room.png",
		URL:      "http://localhost:3000/uploads/room.png",
	}, obj)

	content, err := os.ReadFile(filepath.Join(s.Dir(), "room.png"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	_, err = s.Save(ctx, "room.png", strings.NewReader("again"), 5, "image/png")
	assert.Error(t, err, "existing files are never overwritten")

	var seen []string
	require.NoError(t, s.Walk(ctx, func(path string, modTime time.Time) error {
		seen = append(seen, path)
		assert.False(t, modTime.IsZero())
		return nil
	}))
	assert.Equal(t, []string{"uploads/room.png"}, seen)

	require.NoError(t, s.Delete(ctx, obj.Path))
	_, err = os.Stat(filepath.Join(s.Dir(), "room.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, obj.Path), "deleting a missing file is not an error")
	assert.ErrorIs(t, s.Delete(ctx, "uploads/../secret"), ErrInvalidPath)
}
