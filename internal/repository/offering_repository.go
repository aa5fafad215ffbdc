package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const offeringDetailColumns = `o.id, o.course_id, o.section_code, o.semester, o.year, o.instructor_id, o.capacity, o.available_seats,
        c.code AS course_code, c.name AS course_name, c.credit_hours`

// OfferingRepository reads offerings and owns the per-offering seat ledger.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// FindDetail returns an offering joined with its course.
func (r *OfferingRepository) FindDetail(ctx context.Context, exec sqlx.QueryerContext, id string) (*models.OfferingDetail, error) {
	if exec == nil {
		exec = r.db
	}
	query := fmt.Sprintf(`SELECT %s FROM offerings o JOIN courses c ON c.id = o.course_id WHERE o.id = $1`, offeringDetailColumns)
	var detail models.OfferingDetail
	if err := sqlx.GetContext(ctx, exec, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// LockForUpdate reads the offering and holds a row lock until the transaction ends.
func (r *OfferingRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.OfferingDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM offerings o JOIN courses c ON c.id = o.course_id WHERE o.id = $1 FOR UPDATE OF o`, offeringDetailColumns)
	var detail models.OfferingDetail
	if err := tx.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ReserveSeat decrements the ledger when a seat is still free. It reports false
// when capacity is exhausted at the time of the write.
func (r *OfferingRepository) ReserveSeat(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	const query = `UPDATE offerings SET available_seats = available_seats - 1 WHERE id = $1 AND available_seats > 0`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seat rows affected: %w", err)
	}
	return affected == 1, nil
}

// ReleaseSeat returns one seat to the ledger.
func (r *OfferingRepository) ReleaseSeat(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE offerings SET available_seats = available_seats + 1 WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release seat rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("release seat: offering %s not found", id)
	}
	return nil
}

// ListMeetings returns the weekly meetings of the given offerings.
func (r *OfferingRepository) ListMeetings(ctx context.Context, exec sqlx.QueryerContext, offeringIDs []string) ([]models.OfferingMeeting, error) {
	if len(offeringIDs) == 0 {
		return nil, nil
	}
	if exec == nil {
		exec = r.db
	}
	query := fmt.Sprintf(`SELECT ss.offering_id, c.name AS course_name, ts.day_of_week, ts.start_time, ts.end_time
FROM schedule_slots ss
JOIN time_slots ts ON ts.id = ss.time_slot_id
JOIN offerings o ON o.id = ss.offering_id
JOIN courses c ON c.id = o.course_id
WHERE ss.offering_id IN (%s)
ORDER BY ss.offering_id, ts.day_of_week, ts.start_time`, placeholders(len(offeringIDs)))
	args := make([]interface{}, len(offeringIDs))
	for i, id := range offeringIDs {
		args[i] = id
	}
	var meetings []models.OfferingMeeting
	if err := sqlx.SelectContext(ctx, exec, &meetings, query, args...); err != nil {
		return nil, fmt.Errorf("list offering meetings: %w", err)
	}
	return meetings, nil
}
