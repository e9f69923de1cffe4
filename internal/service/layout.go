package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/repository"
)

// BuildLayout reads the current config and every person with their
// placement and reconciles them into the desk grid and waiting roster.
// Both reads happen in one transaction so they observe the same state.
func (s *Service) BuildLayout(ctx context.Context) (*model.Layout, error) {
	start := time.Now()
	var (
		cfg    *model.Config
		people []model.PersonView
	)
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		cfg, err = q.LatestConfig(ctx)
		if errors.Is(err, repository.ErrConfigNotFound) {
			return notFound("no seating configuration has been saved")
		}
		if err != nil {
			return fromStore(err, "load config")
		}
		people, err = q.ListPersonViews(ctx)
		return fromStore(err, "load persons")
	})
	if err != nil {
		return nil, s.finish("build_layout", err)
	}

	layout := Reconcile(*cfg, people)
	s.metrics.ObserveLayout(time.Since(start), len(layout.Waiting))
	return &layout, s.finish("build_layout", nil)
}

// Reconcile derives the layout from a config and the stored placements.
// The grid always has exactly DeskCount desks of SeatsPerDesk seats.  A
// person goes to the waiting roster when they have no placement, a
// waiting-area placement, a placement outside the current grid, or a
// placement whose cell was already claimed by an earlier person.  Every
// person therefore appears exactly once.  Waiting persons are ordered by
// creation time, then id, and carry nil desk and seat numbers.
func Reconcile(cfg model.Config, people []model.PersonView) model.Layout {
	desks := make([]model.Desk, cfg.DeskCount)
	for d := range desks {
		seats := make([]model.SeatCell, cfg.SeatsPerDesk)
		for i := range seats {
			seats[i] = model.SeatCell{DeskNumber: d + 1, SeatNumber: i + 1}
		}
		desks[d] = model.Desk{DeskNumber: d + 1, Seats: seats}
	}

	waiting := make([]model.PersonView, 0)
	occupancy := make(map[int]int, cfg.DeskCount)
	for d := 1; d <= cfg.DeskCount; d++ {
		occupancy[d] = 0
	}
	occupied := 0

	for _, p := range people {
		if p.DeskNumber != nil && p.SeatNumber != nil && cfg.InRange(*p.DeskNumber, *p.SeatNumber) {
			cell := &desks[*p.DeskNumber-1].Seats[*p.SeatNumber-1]
			if cell.Person == nil {
				pv := p
				cell.Person = &pv
				occupancy[cell.DeskNumber]++
				occupied++
				continue
			}
		}
		p.DeskNumber, p.SeatNumber = nil, nil
		waiting = append(waiting, p)
	}

	sort.SliceStable(waiting, func(i, j int) bool {
		a, b := waiting[i], waiting[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := cfg.TotalSeats()
	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(occupied)/float64(total)*10000) / 100
	}
	return model.Layout{
		Config:  cfg,
		Desks:   desks,
		Waiting: waiting,
		Stats: model.LayoutStats{
			TotalSeats:      total,
			OccupiedSeats:   occupied,
			EmptySeats:      total - occupied,
			WaitingCount:    len(waiting),
			UtilizationRate: rate,
			DeskOccupancy:   occupancy,
		},
	}
}
