package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// PathPrefix starts every stored image path; listing_images rows hold these paths.
const PathPrefix = "uploads/"

var ErrInvalidPath = errors.New("invalid storage path")

type Object struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

// Storage keeps uploaded images. Paths are always PathPrefix + filename.
type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, path string) error
	Walk(ctx context.Context, fn func(path string, modTime time.Time) error) error
}

// NewFilename builds a collision-free object name that keeps a readable hint of the original.
func NewFilename(original, ext string) string {
	base := slug.Make(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))
	if len(base) > 40 {
		base = strings.Trim(base[:40], "-")
	}
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.New().String())
	if base != "" {
		name = base + "-" + name
	}
	return name + strings.ToLower(ext)
}

// FilenameFromPath returns the bare filename of a stored path, rejecting anything
// that would escape the upload directory.
func FilenameFromPath(path string) (string, error) {
	name := strings.TrimPrefix(path, PathPrefix)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidPath
	}
	return name, nil
}

type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Save(_ context.Context, filename string, r io.Reader, _ int64, _ string) (Object, error) {
	if _, err := FilenameFromPath(filename); err != nil {
		return Object{}, err
	}

	dst, err := os.OpenFile(filepath.Join(s.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return Object{}, fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return Object{}, fmt.Errorf("close file: %w", err)
	}

	return Object{
		Filename: filename,
		Path:     PathPrefix + filename,
		URL:      s.baseURL + "/" + filename,
	}, nil
}

func (s *LocalStorage) Delete(_ context.Context, path string) error {
	name, err := FilenameFromPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Walk(ctx context.Context, fn func(path string, modTime time.Time) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read upload dir: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if err := fn(PathPrefix+e.Name(), info.ModTime()); err != nil {
			return err
		}
	}
	return nil
}
