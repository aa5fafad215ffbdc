package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const transcriptColumns = `t.id, t.student_id, t.course_id, t.offering_id, t.grade, t.grade_points, t.credit_hours, t.semester, t.year, t.completed_at`

// TranscriptRepository persists transcript rows. Rows are written only by the
// transcript synchroniser.
type TranscriptRepository struct {
	db *sqlx.DB
}

// NewTranscriptRepository constructs the repository.
func NewTranscriptRepository(db *sqlx.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// FindByKey returns the row for (student, offering, course) or sql.ErrNoRows.
func (r *TranscriptRepository) FindByKey(ctx context.Context, tx *sqlx.Tx, studentID, offeringID, courseID string) (*models.Transcript, error) {
	query := fmt.Sprintf(`SELECT %s FROM transcripts t WHERE t.student_id = $1 AND t.offering_id = $2 AND t.course_id = $3`, transcriptColumns)
	var transcript models.Transcript
	if err := tx.GetContext(ctx, &transcript, query, studentID, offeringID, courseID); err != nil {
		return nil, err
	}
	return &transcript, nil
}

// Insert stores a transcript row and assigns its id.
func (r *TranscriptRepository) Insert(ctx context.Context, tx *sqlx.Tx, transcript *models.Transcript) error {
	const query = `INSERT INTO transcripts (student_id, course_id, offering_id, grade, grade_points, credit_hours, semester, year, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query,
		transcript.StudentID, transcript.CourseID, transcript.OfferingID, transcript.Grade, transcript.GradePoints,
		transcript.CreditHours, transcript.Semester, transcript.Year, transcript.CompletedAt,
	).Scan(&transcript.ID); err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// Update rewrites grade, points, credits and term of an existing row.
func (r *TranscriptRepository) Update(ctx context.Context, tx *sqlx.Tx, transcript *models.Transcript) error {
	const query = `UPDATE transcripts SET grade = $2, grade_points = $3, credit_hours = $4, semester = $5, year = $6, completed_at = $7 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, transcript.ID, transcript.Grade, transcript.GradePoints,
		transcript.CreditHours, transcript.Semester, transcript.Year, transcript.CompletedAt); err != nil {
		return fmt.Errorf("update transcript: %w", err)
	}
	return nil
}

// Delete removes a transcript row.
func (r *TranscriptRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM transcripts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}

// ListByStudent returns every transcript row of the student with course labels.
func (r *TranscriptRepository) ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.TranscriptDetail, error) {
	if exec == nil {
		exec = r.db
	}
	query := fmt.Sprintf(`SELECT %s, c.code AS course_code, c.name AS course_name
FROM transcripts t JOIN courses c ON c.id = t.course_id
WHERE t.student_id = $1 ORDER BY t.year ASC, t.completed_at ASC, t.id ASC`, transcriptColumns)
	var rows []models.TranscriptDetail
	if err := sqlx.SelectContext(ctx, exec, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	return rows, nil
}
