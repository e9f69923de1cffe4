package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/seat-planner/internal/model"
	"github.com/iliyamo/seat-planner/internal/queue"
	"github.com/iliyamo/seat-planner/internal/repository"
	"github.com/iliyamo/seat-planner/internal/validation"
)

// GetConfig returns the current configuration, or the built-in default
// (4 desks of 8 seats) when none has been saved.
func (s *Service) GetConfig(ctx context.Context) (model.Config, error) {
	cfg, err := currentConfig(ctx, s.store)
	return cfg, s.finish("get_config", err)
}

// UpdateConfig validates in and overwrites the current configuration.
// Stored placements are never touched: a placement that falls outside a
// smaller grid simply reconciles to the waiting area until the grid
// grows again.
func (s *Service) UpdateConfig(ctx context.Context, in ConfigInput) (*model.Config, error) {
	cfg, err := s.updateConfig(ctx, in)
	return cfg, s.finish("update_config", err)
}

func (s *Service) updateConfig(ctx context.Context, in ConfigInput) (*model.Config, error) {
	if err := rejected(validation.Check(in)); err != nil {
		return nil, err
	}
	cfg := &model.Config{
		DeskCount:       in.DeskCount,
		SeatsPerDesk:    in.SeatsPerDesk,
		DisplayColumns:  in.DisplayColumns,
		TableClothColor: in.TableClothColor,
	}
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		return fromStore(q.SaveConfig(ctx, cfg), "save config")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, queue.NewEvent(queue.EventConfigUpdated,
		fmt.Sprintf("layout set to %d desks x %d seats", cfg.DeskCount, cfg.SeatsPerDesk)))
	return cfg, nil
}
