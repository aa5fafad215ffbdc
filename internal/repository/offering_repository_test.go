package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
)

func TestOfferingRepositoryReserveSeat(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfferingRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offerings SET available_seats = available_seats - 1 WHERE id = $1 AND available_seats > 0")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offerings SET available_seats = available_seats - 1")).
		WithArgs("off-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	reserved, err := repo.ReserveSeat(ctx, tx, "off-1")
	require.NoError(t, err)
	assert.True(t, reserved)

	reserved, err = repo.ReserveSeat(ctx, tx, "off-1")
	require.NoError(t, err)
	assert.False(t, reserved, "exhausted ledger must not be decremented")

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryReleaseSeatMissingOffering(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfferingRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE offerings SET available_seats = available_seats + 1 WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	err = repo.ReleaseSeat(ctx, tx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryLockForUpdate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfferingRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "course_id", "section_code", "semester", "year", "instructor_id", "capacity", "available_seats", "course_code", "course_name", "credit_hours"}).
		AddRow("off-1", "course-1", "A", "FALL", 2024, nil, 30, 12, "CS101", "Intro to CS", 3)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1 FOR UPDATE OF o")).
		WithArgs("off-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	detail, err := repo.LockForUpdate(ctx, tx, "off-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, models.SemesterFall, detail.Semester)
	assert.Equal(t, 12, detail.AvailableSeats)
	assert.Equal(t, "CS101", detail.CourseCode)
	assert.Nil(t, detail.InstructorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryListMeetings(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfferingRepository(db)

	rows := sqlmock.NewRows([]string{"offering_id", "course_name", "day_of_week", "start_time", "end_time"}).
		AddRow("off-1", "Intro to CS", "MONDAY", "09:00:00", "10:00:00").
		AddRow("off-2", "Calculus", "TUESDAY", "13:30:00", "15:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ss.offering_id IN ($1,$2)")).
		WithArgs("off-1", "off-2").
		WillReturnRows(rows)

	meetings, err := repo.ListMeetings(context.Background(), nil, []string{"off-1", "off-2"})
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, models.NewClockTime(9, 0), meetings[0].StartTime)
	assert.Equal(t, models.NewClockTime(15, 0), meetings[1].EndTime)
	assert.Equal(t, models.Tuesday, meetings[1].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingRepositoryListMeetingsEmpty(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewOfferingRepository(db)

	meetings, err := repo.ListMeetings(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, meetings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
