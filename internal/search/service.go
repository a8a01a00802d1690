package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pgfinder_backend/internal/model"
)

var ErrSearchFailed = errors.New("search failed")

// Executor runs the count and page queries for one compiled filter.
// Without snapshot mode the two reads are independent, so a write landing between
// them can make total and page disagree by that row.
type Executor struct {
	store    Store
	snapshot bool
}

func NewExecutor(store Store, snapshot bool) *Executor {
	return &Executor{store: store, snapshot: snapshot}
}

func (e *Executor) Run(ctx context.Context, f Filter, page int) (int64, []ListingRow, error) {
	var (
		total int64
		rows  []ListingRow
	)

	page = ClampPage(int64(page))
	offset := (page - 1) * model.ListingsPerPage

	run := func(s Store) error {
		var err error
		if total, err = s.Count(ctx, f); err != nil {
			return err
		}
		rows, err = s.Find(ctx, f, model.ListingsPerPage, offset)
		return err
	}

	var err error
	if ss, ok := e.store.(SnapshotStore); ok && e.snapshot {
		err = ss.Snapshot(ctx, run)
	} else {
		err = run(e.store)
	}
	if err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

type Result struct {
	Listings []ListingRow `json:"listings"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	Pages    int          `json:"pages"`

	Ignored []IgnoredField `json:"-"`
}

// Present shapes a page. Pages is derived from total, never re-queried.
func Present(total int64, page int, rows []ListingRow) Result {
	if rows == nil {
		rows = []ListingRow{}
	}
	per := int64(model.ListingsPerPage)
	return Result{
		Listings: rows,
		Total:    total,
		Page:     page,
		Pages:    int((total + per - 1) / per),
	}
}

type Service struct {
	exec *Executor
	log  *slog.Logger
}

func NewService(exec *Executor, log *slog.Logger) *Service {
	return &Service{exec: exec, log: log}
}

func (s *Service) Search(ctx context.Context, raw RawParams) (Result, error) {
	criteria, ignored := Normalize(raw)
	if len(ignored) > 0 {
		s.log.Debug("search filters ignored", "ignored", ignored)
	}

	f := Compile(Build(criteria))

	total, rows, err := s.exec.Run(ctx, f, criteria.Page)
	if err != nil {
		s.log.Error("listing search failed", "op", "search.Search", "error", err)
		return Result{}, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	res := Present(total, criteria.Page, rows)
	res.Ignored = ignored
	return res, nil
}
