package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pgfinder_backend/internal/model"
	"pgfinder_backend/pkg/utils/storage"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const referenceBatch = 500

// ImageIndex tells which stored paths are still referenced by a listing image row.
type ImageIndex interface {
	Referenced(ctx context.Context, paths []string) (map[string]bool, error)
}

type GormImageIndex struct {
	db *gorm.DB
}

func NewGormImageIndex(db *gorm.DB) *GormImageIndex {
	return &GormImageIndex{db: db}
}

func (g *GormImageIndex) Referenced(ctx context.Context, paths []string) (map[string]bool, error) {
	refs := make(map[string]bool, len(paths))
	for start := 0; start < len(paths); start += referenceBatch {
		end := start + referenceBatch
		if end > len(paths) {
			end = len(paths)
		}
		var found []string
		if err := g.db.WithContext(ctx).Model(&model.ListingImage{}).
			Where("image_path IN ?", paths[start:end]).
			Distinct().
			Pluck("image_path", &found).Error; err != nil {
			return nil, fmt.Errorf("lookup image references: %w", err)
		}
		for _, p := range found {
			refs[p] = true
		}
	}
	return refs, nil
}

// UploadSweeper removes uploads that no listing ever claimed. Files younger than
// maxAge are left alone so a listing form still being filled in keeps its images.
type UploadSweeper struct {
	storage storage.Storage
	index   ImageIndex
	maxAge  time.Duration
	log     *slog.Logger
	now     func() time.Time
}

func NewUploadSweeper(s storage.Storage, index ImageIndex, maxAge time.Duration, log *slog.Logger) *UploadSweeper {
	return &UploadSweeper{storage: s, index: index, maxAge: maxAge, log: log, now: time.Now}
}

func (s *UploadSweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)

	var candidates []string
	err := s.storage.Walk(ctx, func(path string, modTime time.Time) error {
		if modTime.Before(cutoff) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk uploads: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	refs, err := s.index.Referenced(ctx, candidates)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range candidates {
		if refs[p] {
			continue
		}
		if err := s.storage.Delete(ctx, p); err != nil {
			s.log.Warn("could not remove orphaned upload", "op", "cron.Sweep", "path", p, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// InitUploadSweeperCron schedules the sweeper and starts the scheduler. The caller stops it on shutdown.
func InitUploadSweeperCron(schedule string, sweeper *UploadSweeper, log *slog.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		removed, err := sweeper.Sweep(ctx)
		if err != nil {
			log.Error("upload sweep failed", "op", "cron.Sweep", "error", err)
			return
		}
		log.Info("upload sweep finished", "removed", removed)
	})
	if err != nil {
		return nil, fmt.Errorf("could not initialize upload sweeper cron: %w", err)
	}

	c.Start()
	return c, nil
}
