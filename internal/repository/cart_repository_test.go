package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
)

func TestCartRepositoryAddItemDuplicate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCartRepository(db)

	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(sqlmock.AnyArg(), "cart-1", "slot-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(sqlmock.AnyArg(), "cart-1", "slot-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.AddItem(context.Background(), &models.CartItem{CartID: "cart-1", ScheduleSlotID: "slot-1"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.AddItem(context.Background(), &models.CartItem{CartID: "cart-1", ScheduleSlotID: "slot-1"})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryGetOrCreate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCartRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (student_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "stu-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "created_at"}).AddRow("cart-1", "stu-1", now))

	cart, err := repo.GetOrCreate(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", cart.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepositoryListItemDetailsKeepsUnresolvedRows(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCartRepository(db)

	columns := []string{"cart_item_id", "added_at", "schedule_slot_id", "offering_id", "course_id", "course_code", "course_name",
		"section_code", "available_seats", "time_slot_id", "day_of_week", "start_time", "end_time", "room_name", "instructor_name"}
	rows := sqlmock.NewRows(columns).
		AddRow("item-1", time.Now(), "slot-1", "off-1", "course-1", "CS101", "Intro to CS", "A", 5, "ts-1", "MONDAY", "09:00:00", "10:00:00", "R101", "Dr. Ada").
		AddRow("item-2", time.Now(), "slot-gone", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ci.cart_id = $1")).
		WithArgs("cart-1").
		WillReturnRows(rows)

	items, err := repo.ListItemDetails(context.Background(), nil, "cart-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Resolved())
	assert.Equal(t, "MONDAY 09:00-10:00", items[0].TimeSlot().String())
	assert.False(t, items[1].Resolved())
	assert.Equal(t, "slot-gone", items[1].ScheduleSlotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
