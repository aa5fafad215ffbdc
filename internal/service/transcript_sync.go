package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
)

type transcriptStore interface {
	FindByKey(ctx context.Context, tx *sqlx.Tx, studentID, offeringID, courseID string) (*models.Transcript, error)
	Insert(ctx context.Context, tx *sqlx.Tx, transcript *models.Transcript) error
	Update(ctx context.Context, tx *sqlx.Tx, transcript *models.Transcript) error
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
	ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.TranscriptDetail, error)
}

type gpaRecalculator interface {
	Recalculate(ctx context.Context, tx *sqlx.Tx, studentID string) (*models.AcademicSummary, error)
}

// TranscriptSynchronizer projects an enrollment onto its transcript row and
// refreshes the student's academic summary, inside the caller's transaction.
type TranscriptSynchronizer struct {
	transcripts transcriptStore
	gpa         gpaRecalculator
	now         func() time.Time
	logger      *zap.Logger
}

// NewTranscriptSynchronizer constructs the synchroniser.
func NewTranscriptSynchronizer(transcripts transcriptStore, gpa gpaRecalculator, logger *zap.Logger) *TranscriptSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptSynchronizer{transcripts: transcripts, gpa: gpa, now: time.Now, logger: logger}
}

// Sync makes the transcript row for (student, offering, course) exist exactly
// when the enrollment is completed with a recordable grade, then recomputes GPA.
func (s *TranscriptSynchronizer) Sync(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment, offering *models.OfferingDetail) error {
	existing, err := s.transcripts.FindByKey(ctx, tx, enrollment.StudentID, enrollment.OfferingID, offering.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err = nil, nil
	}
	if err != nil {
		return asAppError(err, "failed to load transcript row")
	}

	wanted := enrollment.Status == models.EnrollmentStatusCompleted && enrollment.Grade != nil && enrollment.Grade.Recordable()
	switch {
	case wanted && existing == nil:
		row := &models.Transcript{
			StudentID:   enrollment.StudentID,
			CourseID:    offering.CourseID,
			OfferingID:  enrollment.OfferingID,
			CompletedAt: s.now().UTC(),
		}
		applyGrade(row, *enrollment.Grade, offering)
		if err := s.transcripts.Insert(ctx, tx, row); err != nil {
			return asAppError(err, "failed to insert transcript row")
		}
		s.logger.Debug("transcript row created", zap.String("student_id", row.StudentID), zap.String("offering_id", row.OfferingID))
	case wanted:
		applyGrade(existing, *enrollment.Grade, offering)
		if err := s.transcripts.Update(ctx, tx, existing); err != nil {
			return asAppError(err, "failed to update transcript row")
		}
	case existing != nil:
		if err := s.transcripts.Delete(ctx, tx, existing.ID); err != nil {
			return asAppError(err, "failed to delete transcript row")
		}
		s.logger.Debug("transcript row removed", zap.Int64("transcript_id", existing.ID))
	}

	_, err = s.gpa.Recalculate(ctx, tx, enrollment.StudentID)
	return err
}

// Purge removes the transcript row of an enrollment that is being deleted.
func (s *TranscriptSynchronizer) Purge(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment, offering *models.OfferingDetail) error {
	gone := *enrollment
	gone.Status = models.EnrollmentStatusDropped
	gone.Grade = nil
	return s.Sync(ctx, tx, &gone, offering)
}

func applyGrade(row *models.Transcript, grade models.GradeSymbol, offering *models.OfferingDetail) {
	row.Grade = grade
	row.GradePoints = grade.Points()
	row.CreditHours = offering.CreditHours
	row.Semester = offering.Semester
	row.Year = offering.Year
}
