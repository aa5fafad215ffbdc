package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/database"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type offeringStore interface {
	FindDetail(ctx context.Context, exec sqlx.QueryerContext, id string) (*models.OfferingDetail, error)
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.OfferingDetail, error)
	ReserveSeat(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
	ReleaseSeat(ctx context.Context, tx *sqlx.Tx, id string) error
}

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Enrollment, error)
	FindByStudentOfferingForUpdate(ctx context.Context, tx *sqlx.Tx, studentID, offeringID string) (*models.Enrollment, error)
	ListActiveByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error
	Save(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error
	Delete(ctx context.Context, tx *sqlx.Tx, id string) error
}

type studentLocker interface {
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentProfile, error)
}

type transcriptSyncer interface {
	Sync(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment, offering *models.OfferingDetail) error
	Purge(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment, offering *models.OfferingDetail) error
}

type settingsProvider interface {
	Current(ctx context.Context) (*dto.RegistrationSettings, error)
}

type transcriptInvalidator interface {
	InvalidateTranscript(ctx context.Context, studentID string)
}

// EnrollmentDeps bundles the collaborators of EnrollmentService.
type EnrollmentDeps struct {
	Tx          txProvider
	Offerings   offeringStore
	Enrollments enrollmentStore
	Students    studentLocker
	Transcripts transcriptSyncer
	Settings    settingsProvider
	Records     transcriptInvalidator
	Metrics     *MetricsService
	Audit       auditRecorder
	Notifier    Notifier
}

// EnrollmentService owns the enrollment lifecycle and the seat ledger pairing:
// every seat decrement or increment is written in the same transaction as the
// status change that causes it.
type EnrollmentService struct {
	tx          txProvider
	offerings   offeringStore
	enrollments enrollmentStore
	students    studentLocker
	transcripts transcriptSyncer
	settings    settingsProvider
	records     transcriptInvalidator
	metrics     *MetricsService
	effects     sideEffects
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(deps EnrollmentDeps, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		tx:          deps.Tx,
		offerings:   deps.Offerings,
		enrollments: deps.Enrollments,
		students:    deps.Students,
		transcripts: deps.Transcripts,
		settings:    deps.Settings,
		records:     deps.Records,
		metrics:     deps.Metrics,
		effects:     sideEffects{audit: deps.Audit, notifier: deps.Notifier, logger: logger},
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// lockStudent takes the student row lock that serialises a student's enrollment
// changes. Locks are always taken student, then offering, then enrollment.
func (s *EnrollmentService) lockStudent(ctx context.Context, tx *sqlx.Tx, studentID string) (*models.StudentProfile, error) {
	student, err := s.students.LockForUpdate(ctx, tx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to lock student")
	}
	return student, nil
}

func (s *EnrollmentService) lockOffering(ctx context.Context, tx *sqlx.Tx, offeringID string) (*models.OfferingDetail, error) {
	offering, err := s.offerings.LockForUpdate(ctx, tx, offeringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Internal(err, "failed to lock offering")
	}
	return offering, nil
}

// EnrollInTx creates or reactivates the student's enrollment in an offering.
// The caller must hold the student lock inside tx.
func (s *EnrollmentService) EnrollInTx(ctx context.Context, tx *sqlx.Tx, studentID, offeringID string) (*models.Enrollment, error) {
	offering, err := s.lockOffering(ctx, tx, offeringID)
	if err != nil {
		return nil, err
	}

	existing, err := s.enrollments.FindByStudentOfferingForUpdate(ctx, tx, studentID, offeringID)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err = nil, nil
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}

	var from models.EnrollmentStatus
	if existing != nil {
		from = existing.Status
		switch {
		case existing.Status.IsActive():
			return nil, appErrors.Clonef(appErrors.ErrConflict, "already enrolled in this section: %s section %s", offering.CourseCode, offering.SectionCode)
		case !existing.Status.IsReactivatable():
			return nil, appErrors.Clonef(appErrors.ErrConflict, "already has an enrollment record for %s section %s", offering.CourseCode, offering.SectionCode)
		}
	}

	if err := s.ensureNoOtherSection(ctx, tx, studentID, offering); err != nil {
		return nil, err
	}
	reserved, err := s.offerings.ReserveSeat(ctx, tx, offering.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to reserve seat")
	}
	if !reserved {
		return nil, appErrors.Clonef(appErrors.ErrConflict, "no available seats in %s section %s", offering.CourseCode, offering.SectionCode)
	}

	now := s.now().UTC()
	enrollment := existing
	if enrollment == nil {
		enrollment = &models.Enrollment{
			StudentID:  studentID,
			OfferingID: offering.ID,
			Status:     models.EnrollmentStatusPending,
			EnrolledAt: now,
			UpdatedAt:  now,
		}
		if err := s.enrollments.Create(ctx, tx, enrollment); err != nil {
			return nil, appErrors.Internal(err, "failed to create enrollment")
		}
	} else {
		enrollment.ResetForReactivation(now)
		if err := s.enrollments.Save(ctx, tx, enrollment); err != nil {
			return nil, appErrors.Internal(err, "failed to reactivate enrollment")
		}
	}

	if err := s.transcripts.Sync(ctx, tx, enrollment, offering); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(from, models.EnrollmentStatusPending)
	return enrollment, nil
}

func (s *EnrollmentService) ensureNoOtherSection(ctx context.Context, tx *sqlx.Tx, studentID string, offering *models.OfferingDetail) error {
	active, err := s.enrollments.ListActiveByStudent(ctx, tx, studentID)
	if err != nil {
		return appErrors.Internal(err, "failed to load active enrollments")
	}
	for _, enrollment := range active {
		if enrollment.CourseID == offering.CourseID && enrollment.OfferingID != offering.ID {
			return appErrors.Clonef(appErrors.ErrConflict, "already enrolled in another section of %s", offering.CourseName)
		}
	}
	return nil
}

// ForceEnroll lets an administrator enroll a student without a cart. Seat and
// exclusivity rules still apply; schedule conflicts are not checked.
func (s *EnrollmentService) ForceEnroll(ctx context.Context, req dto.ForceEnrollRequest, actor models.Actor) (*models.Enrollment, error) {
	if !CanApprove(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may force-enroll students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid force enroll payload")
	}

	var (
		enrollment *models.Enrollment
		student    *models.StudentProfile
	)
	err := database.WithTx(ctx, s.tx, nil, func(tx *sqlx.Tx) error {
		var err error
		if student, err = s.lockStudent(ctx, tx, req.StudentID); err != nil {
			return err
		}
		enrollment, err = s.EnrollInTx(ctx, tx, req.StudentID, req.OfferingID)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to enroll student")
	}

	s.afterCommit(ctx, enrollment.StudentID)
	s.effects.record(ctx, actor, models.AuditActionForceEnroll, "enrollment", enrollment.ID)
	s.effects.notify(ctx, student.UserID, NotificationEnrollmentCreated, map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"offering_id":   enrollment.OfferingID,
	})
	return enrollment, nil
}

// Drop withdraws a pending or enrolled enrollment and returns its seat.
func (s *EnrollmentService) Drop(ctx context.Context, id string, actor models.Actor) (*models.Enrollment, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanDrop(actor, current) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you may only drop your own enrollments")
	}
	if !models.CanTransition(current.Status, models.EnrollmentStatusDropped) {
		return nil, appErrors.Clonef(appErrors.ErrConflict, "cannot drop an enrollment in status %s", current.Status)
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, asAppError(err, "failed to load registration settings")
	}
	today := s.now().UTC()
	if !settings.RegistrationWindow.Contains(today) && !settings.WithdrawWindow.Contains(today) {
		return nil, appErrors.Clonef(appErrors.ErrBadRequest,
			"drop is only allowed during the registration window (%s) or the withdraw window (%s)",
			describeWindow(settings.RegistrationWindow), describeWindow(settings.WithdrawWindow))
	}

	var (
		enrollment *models.Enrollment
		student    *models.StudentProfile
		from       models.EnrollmentStatus
	)
	err = s.transition(ctx, current, func(tx *sqlx.Tx, e *models.Enrollment, offering *models.OfferingDetail, st *models.StudentProfile) error {
		if !models.CanTransition(e.Status, models.EnrollmentStatusDropped) {
			return appErrors.Clonef(appErrors.ErrConflict, "cannot drop an enrollment in status %s", e.Status)
		}
		from = e.Status
		e.Status = models.EnrollmentStatusDropped
		e.UpdatedAt = s.now().UTC()
		if err := s.enrollments.Save(ctx, tx, e); err != nil {
			return appErrors.Internal(err, "failed to drop enrollment")
		}
		if err := s.offerings.ReleaseSeat(ctx, tx, offering.ID); err != nil {
			return appErrors.Internal(err, "failed to release seat")
		}
		enrollment, student = e, st
		return s.transcripts.Sync(ctx, tx, e, offering)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(from, models.EnrollmentStatusDropped)
	s.afterCommit(ctx, enrollment.StudentID)
	s.effects.record(ctx, actor, models.AuditActionDrop, "enrollment", enrollment.ID)
	s.effects.notify(ctx, student.UserID, NotificationEnrollmentDropped, map[string]interface{}{"enrollment_id": enrollment.ID})
	return enrollment, nil
}

// Approve moves a pending enrollment to enrolled. Seats are unchanged.
func (s *EnrollmentService) Approve(ctx context.Context, id string, actor models.Actor) (*models.Enrollment, error) {
	if !CanApprove(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may approve enrollments")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		enrollment *models.Enrollment
		student    *models.StudentProfile
	)
	err = s.transition(ctx, current, func(tx *sqlx.Tx, e *models.Enrollment, offering *models.OfferingDetail, st *models.StudentProfile) error {
		if e.Status != models.EnrollmentStatusPending {
			return appErrors.Clonef(appErrors.ErrConflict, "only pending enrollments can be approved, current status is %s", e.Status)
		}
		now := s.now().UTC()
		approver := actor.UserID
		e.Status = models.EnrollmentStatusEnrolled
		e.ApprovedBy = &approver
		e.ApprovedAt = &now
		e.UpdatedAt = now
		if err := s.enrollments.Save(ctx, tx, e); err != nil {
			return appErrors.Internal(err, "failed to approve enrollment")
		}
		enrollment, student = e, st
		return s.transcripts.Sync(ctx, tx, e, offering)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(models.EnrollmentStatusPending, models.EnrollmentStatusEnrolled)
	s.afterCommit(ctx, enrollment.StudentID)
	s.effects.record(ctx, actor, models.AuditActionApprove, "enrollment", enrollment.ID)
	s.effects.notify(ctx, student.UserID, NotificationEnrollmentApproved, map[string]interface{}{"enrollment_id": enrollment.ID})
	return enrollment, nil
}

// Decline rejects a pending enrollment with a reason and releases its seat.
func (s *EnrollmentService) Decline(ctx context.Context, id string, req dto.DeclineEnrollmentRequest, actor models.Actor) (*models.Enrollment, error) {
	if !CanApprove(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may decline enrollments")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "decline reason is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decline payload")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		enrollment *models.Enrollment
		student    *models.StudentProfile
	)
	err = s.transition(ctx, current, func(tx *sqlx.Tx, e *models.Enrollment, offering *models.OfferingDetail, st *models.StudentProfile) error {
		if e.Status != models.EnrollmentStatusPending {
			return appErrors.Clonef(appErrors.ErrConflict, "only pending enrollments can be declined, current status is %s", e.Status)
		}
		reason := req.Reason
		e.Status = models.EnrollmentStatusDeclined
		e.DeclineReason = &reason
		e.UpdatedAt = s.now().UTC()
		if err := s.enrollments.Save(ctx, tx, e); err != nil {
			return appErrors.Internal(err, "failed to decline enrollment")
		}
		if err := s.offerings.ReleaseSeat(ctx, tx, offering.ID); err != nil {
			return appErrors.Internal(err, "failed to release seat")
		}
		enrollment, student = e, st
		return s.transcripts.Sync(ctx, tx, e, offering)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(models.EnrollmentStatusPending, models.EnrollmentStatusDeclined)
	s.afterCommit(ctx, enrollment.StudentID)
	s.effects.record(ctx, actor, models.AuditActionDecline, "enrollment", enrollment.ID)
	s.effects.notify(ctx, student.UserID, NotificationEnrollmentDeclined, map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"reason":        req.Reason,
	})
	return enrollment, nil
}

// UpdateGrade records, corrects or clears a grade. Grading an enrolled row
// completes it; completed rows accept corrections.
func (s *EnrollmentService) UpdateGrade(ctx context.Context, id string, req dto.UpdateGradeRequest, actor models.Actor) (*models.Enrollment, error) {
	var grade *models.GradeSymbol
	if raw := strings.TrimSpace(req.Grade); raw != "" {
		parsed, err := models.ParseGrade(raw)
		if err != nil {
			return nil, appErrors.Clonef(appErrors.ErrBadRequest, "invalid grade symbol %q", req.Grade)
		}
		grade = &parsed
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	offering, err := s.offerings.FindDetail(ctx, nil, current.OfferingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Internal(err, "failed to load offering")
	}
	if !CanGrade(actor, offering) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators or the offering instructor may grade")
	}

	var (
		enrollment *models.Enrollment
		student    *models.StudentProfile
		from       models.EnrollmentStatus
	)
	err = s.transition(ctx, current, func(tx *sqlx.Tx, e *models.Enrollment, offering *models.OfferingDetail, st *models.StudentProfile) error {
		from = e.Status
		switch e.Status {
		case models.EnrollmentStatusEnrolled:
			if grade != nil {
				e.Status = models.EnrollmentStatusCompleted
			}
		case models.EnrollmentStatusCompleted:
		default:
			return appErrors.Clonef(appErrors.ErrConflict, "grades can only be recorded for enrolled or completed enrollments, current status is %s", e.Status)
		}
		e.Grade = grade
		e.UpdatedAt = s.now().UTC()
		if err := s.enrollments.Save(ctx, tx, e); err != nil {
			return appErrors.Internal(err, "failed to store grade")
		}
		enrollment, student = e, st
		return s.transcripts.Sync(ctx, tx, e, offering)
	})
	if err != nil {
		return nil, err
	}

	if from != enrollment.Status {
		s.metrics.RecordTransition(from, enrollment.Status)
	}
	s.afterCommit(ctx, enrollment.StudentID)
	s.effects.record(ctx, actor, models.AuditActionGradeUpdate, "enrollment", enrollment.ID)
	if grade != nil {
		s.effects.notify(ctx, student.UserID, NotificationGradePosted, map[string]interface{}{
			"enrollment_id": enrollment.ID,
			"grade":         string(*grade),
		})
	}
	return enrollment, nil
}

// Delete removes an enrollment row, returning its seat when the row held one and
// removing any transcript row derived from it.
func (s *EnrollmentService) Delete(ctx context.Context, id string, actor models.Actor) error {
	if !CanApprove(actor) {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators may delete enrollments")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	err = s.transition(ctx, current, func(tx *sqlx.Tx, e *models.Enrollment, offering *models.OfferingDetail, _ *models.StudentProfile) error {
		if e.Status.HoldsSeat() {
			if err := s.offerings.ReleaseSeat(ctx, tx, offering.ID); err != nil {
				return appErrors.Internal(err, "failed to release seat")
			}
		}
		if err := s.enrollments.Delete(ctx, tx, e.ID); err != nil {
			return appErrors.Internal(err, "failed to delete enrollment")
		}
		return s.transcripts.Purge(ctx, tx, e, offering)
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, current.StudentID)
	s.effects.record(ctx, actor, models.AuditActionEnrollmentDelete, "enrollment", id)
	return nil
}

// ListMine returns the student's own enrollments. Read failures degrade to an
// empty list.
func (s *EnrollmentService) ListMine(ctx context.Context, studentID string) []models.EnrollmentDetail {
	enrollments, err := s.enrollments.ListByStudent(ctx, nil, studentID)
	if err != nil {
		s.logger.Warn("listing own enrollments failed, returning empty result", zap.String("student_id", studentID), zap.Error(err))
		return []models.EnrollmentDetail{}
	}
	if enrollments == nil {
		return []models.EnrollmentDetail{}
	}
	return enrollments
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *EnrollmentService) find(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Internal(err, "failed to load enrollment")
	}
	return enrollment, nil
}

type transitionFunc func(tx *sqlx.Tx, enrollment *models.Enrollment, offering *models.OfferingDetail, student *models.StudentProfile) error

// transition locks student, offering and enrollment in that order, then runs fn
// against the freshly read row inside one transaction.
func (s *EnrollmentService) transition(ctx context.Context, snapshot *models.Enrollment, fn transitionFunc) error {
	err := database.WithTx(ctx, s.tx, nil, func(tx *sqlx.Tx) error {
		student, err := s.lockStudent(ctx, tx, snapshot.StudentID)
		if err != nil {
			return err
		}
		offering, err := s.lockOffering(ctx, tx, snapshot.OfferingID)
		if err != nil {
			return err
		}
		enrollment, err := s.enrollments.FindByIDForUpdate(ctx, tx, snapshot.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return appErrors.Internal(err, "failed to lock enrollment")
		}
		return fn(tx, enrollment, offering, student)
	})
	return asAppError(err, "enrollment update failed")
}

func (s *EnrollmentService) afterCommit(ctx context.Context, studentID string) {
	if s.records != nil {
		s.records.InvalidateTranscript(ctx, studentID)
	}
}
