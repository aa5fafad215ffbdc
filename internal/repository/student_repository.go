package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const studentColumns = `id, user_id, student_number, full_name, gpa, completed_credits, registered_credits, updated_at`

// StudentRepository reads student profiles and writes their derived academic summary.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student profile by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.StudentProfile
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID resolves the profile owned by an identity user.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE user_id = $1`, studentColumns)
	var student models.StudentProfile
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListIDs returns the id of every student.
func (r *StudentRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM students ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list student ids: %w", err)
	}
	return ids, nil
}

// LockForUpdate reads the profile and holds its row lock for the transaction.
func (r *StudentRepository) LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1 FOR UPDATE`, studentColumns)
	var student models.StudentProfile
	if err := tx.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdateAcademicSummary stores recomputed GPA and credit totals.
func (r *StudentRepository) UpdateAcademicSummary(ctx context.Context, tx *sqlx.Tx, id string, summary models.AcademicSummary) error {
	const query = `UPDATE students SET gpa = $2, completed_credits = $3, registered_credits = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, summary.GPA, summary.CompletedCredits, summary.RegisteredCredits, time.Now().UTC()); err != nil {
		return fmt.Errorf("update academic summary: %w", err)
	}
	return nil
}
