package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ScheduleSlotRepository provides read-only lookups over schedule slots.
type ScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewScheduleSlotRepository constructs the repository.
func NewScheduleSlotRepository(db *sqlx.DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

// Exists reports whether a schedule slot with the id is present.
func (r *ScheduleSlotRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM schedule_slots WHERE id = $1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check schedule slot: %w", err)
	}
	return true, nil
}
