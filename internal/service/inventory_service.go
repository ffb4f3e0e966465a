package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"csinventory/internal/repository"
)

type InventoryService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *InventoryService) List(ctx context.Context, limit, offset int) ([]repository.PositionView, int64, error) {
	items, err := s.Repo.ListPositionViews(ctx, repository.ListPositionsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountPositions(ctx)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []repository.PositionView{}
	}
	return items, total, nil
}

// Get returns the position of one item, or nil when nothing is held.
func (s *InventoryService) Get(ctx context.Context, nameID int64) (*repository.PositionView, error) {
	if nameID <= 0 {
		return nil, invalid("name_id", "must be positive")
	}
	view, err := s.Repo.GetPositionView(ctx, nameID)
	if err != nil {
		return nil, fmt.Errorf("get position %d: %w", nameID, err)
	}
	return view, nil
}

// Quantity is the number of units held; zero when no position exists.
func (s *InventoryService) Quantity(ctx context.Context, nameID int64) (int, error) {
	if nameID <= 0 {
		return 0, invalid("name_id", "must be positive")
	}
	pos, err := s.Repo.GetPosition(ctx, nameID)
	if err != nil {
		return 0, fmt.Errorf("get position %d: %w", nameID, err)
	}
	if pos == nil {
		return 0, nil
	}
	return pos.CurrentQuantity, nil
}
