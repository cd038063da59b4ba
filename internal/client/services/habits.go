package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
	"github.com/dmitrijs2005/nutrisync/internal/client/repositories/records"
	"github.com/dmitrijs2005/nutrisync/internal/logging"
)

// HabitRepository deletes with tombstones, so a habit removed while its
// server delete is outstanding never comes back on the next refresh.
type HabitRepository struct {
	*Repository[models.Habit]
}

func NewHabitRepository(store records.Store[models.Habit], endpoint RemoteEndpoint[models.Habit], oracle Oracle,
	log logging.Logger, opts ...Option) *HabitRepository {
	opts = append([]Option{WithDeletePolicy(Tombstone)}, opts...)
	return &HabitRepository{Repository: NewRepository(store, endpoint, oracle, log, opts...)}
}

// ToggleCompletion flips the habit's completed flag.
func (h *HabitRepository) ToggleCompletion(ctx context.Context, localID string) (*models.Record[models.Habit], error) {
	return h.Update(ctx, localID, func(p *models.Habit) { p.Toggle(h.now()) })
}

// ReadActive lists all of the owner's habits that are not deleted.
func (h *HabitRepository) ReadActive(ctx context.Context, ownerID string) ([]models.Record[models.Habit], error) {
	recs, err := h.store.ByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read habits: %w", err)
	}
	return recs, nil
}
