package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// CartRepository persists carts and their staged schedule slots.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository constructs the repository.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// FindByStudent returns the student's cart or sql.ErrNoRows.
func (r *CartRepository) FindByStudent(ctx context.Context, studentID string) (*models.Cart, error) {
	const query = `SELECT id, student_id, created_at FROM carts WHERE student_id = $1`
	var cart models.Cart
	if err := r.db.GetContext(ctx, &cart, query, studentID); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the student's cart, creating it on first use.
func (r *CartRepository) GetOrCreate(ctx context.Context, studentID string) (*models.Cart, error) {
	const query = `INSERT INTO carts (id, student_id, created_at) VALUES ($1, $2, $3)
ON CONFLICT (student_id) DO UPDATE SET student_id = EXCLUDED.student_id
RETURNING id, student_id, created_at`
	var cart models.Cart
	if err := r.db.GetContext(ctx, &cart, query, uuid.NewString(), studentID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return &cart, nil
}

// AddItem stages a schedule slot. It reports false when the slot is already in the cart.
func (r *CartRepository) AddItem(ctx context.Context, item *models.CartItem) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	const query = `INSERT INTO cart_items (id, cart_id, schedule_slot_id, added_at)
VALUES (:id, :cart_id, :schedule_slot_id, :added_at)
ON CONFLICT (cart_id, schedule_slot_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return false, fmt.Errorf("add cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add cart item rows affected: %w", err)
	}
	return affected == 1, nil
}

// FindItem returns a cart item by id or sql.ErrNoRows.
func (r *CartRepository) FindItem(ctx context.Context, id string) (*models.CartItem, error) {
	const query = `SELECT id, cart_id, schedule_slot_id, added_at FROM cart_items WHERE id = $1`
	var item models.CartItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes one cart item.
func (r *CartRepository) RemoveItem(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

// ListItemDetails resolves each staged slot against offering, course, room and
// time slot. Missing references come back as NULL columns.
func (r *CartRepository) ListItemDetails(ctx context.Context, exec sqlx.QueryerContext, cartID string) ([]models.CartItemDetail, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `SELECT ci.id AS cart_item_id, ci.added_at, ci.schedule_slot_id,
        o.id AS offering_id, c.id AS course_id, c.code AS course_code, c.name AS course_name,
        o.section_code, o.available_seats, ts.id AS time_slot_id, ts.day_of_week, ts.start_time, ts.end_time,
        rm.name AS room_name, u.full_name AS instructor_name
FROM cart_items ci
LEFT JOIN schedule_slots ss ON ss.id = ci.schedule_slot_id
LEFT JOIN offerings o ON o.id = ss.offering_id
LEFT JOIN courses c ON c.id = o.course_id
LEFT JOIN time_slots ts ON ts.id = ss.time_slot_id
LEFT JOIN rooms rm ON rm.id = ss.room_id
LEFT JOIN instructors u ON u.id = COALESCE(ss.instructor_id, o.instructor_id)
WHERE ci.cart_id = $1
ORDER BY ci.added_at ASC, ci.id ASC`
	var items []models.CartItemDetail
	if err := sqlx.SelectContext(ctx, exec, &items, query, cartID); err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return items, nil
}

// Clear removes every item of the cart.
func (r *CartRepository) Clear(ctx context.Context, tx *sqlx.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
