package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/database"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/export"
)

type academicStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	ListIDs(ctx context.Context) ([]string, error)
	LockForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.StudentProfile, error)
	UpdateAcademicSummary(ctx context.Context, tx *sqlx.Tx, id string, summary models.AcademicSummary) error
}

type studentEnrollmentReader interface {
	ListActiveByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.EnrollmentDetail, error)
}

type retakePolicyProvider interface {
	RetakePolicy(ctx context.Context) models.RetakePolicy
}

// TranscriptExport is a rendered transcript document.
type TranscriptExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AcademicRecordService derives GPA, credit totals and transcript views from
// transcript rows under the configured retake policy.
type AcademicRecordService struct {
	tx          txProvider
	students    academicStudentStore
	transcripts transcriptStore
	enrollments studentEnrollmentReader
	policy      retakePolicyProvider
	cache       *CacheService
	metrics     *MetricsService
	renderers   map[string]export.Renderer
	effects     sideEffects
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// AcademicRecordDeps bundles the collaborators of AcademicRecordService.
type AcademicRecordDeps struct {
	Tx          txProvider
	Students    academicStudentStore
	Transcripts transcriptStore
	Enrollments studentEnrollmentReader
	Policy      retakePolicyProvider
	Cache       *CacheService
	Metrics     *MetricsService
	Audit       auditRecorder
}

// NewAcademicRecordService constructs the service.
func NewAcademicRecordService(deps AcademicRecordDeps, validate *validator.Validate, logger *zap.Logger) *AcademicRecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := export.NewCSVExporter()
	pdf := export.NewPDFExporter()
	return &AcademicRecordService{
		tx:          deps.Tx,
		students:    deps.Students,
		transcripts: deps.Transcripts,
		enrollments: deps.Enrollments,
		policy:      deps.Policy,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		renderers:   map[string]export.Renderer{csv.Extension(): csv, pdf.Extension(): pdf},
		effects:     sideEffects{audit: deps.Audit, logger: logger},
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Recalculate recomputes and stores the student's GPA and credit totals inside tx.
// The student row stays locked until tx ends.
func (s *AcademicRecordService) Recalculate(ctx context.Context, tx *sqlx.Tx, studentID string) (*models.AcademicSummary, error) {
	start := time.Now()
	if _, err := s.students.LockForUpdate(ctx, tx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to lock student")
	}
	rows, err := s.transcripts.ListByStudent(ctx, tx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load transcript")
	}
	active, err := s.enrollments.ListActiveByStudent(ctx, tx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load active enrollments")
	}

	totals := ComputeSummary(transcriptAttempts(rows), s.policy.RetakePolicy(ctx))
	summary := models.AcademicSummary{GPA: totals.GPA, CompletedCredits: totals.EarnedCredits}
	for _, enrollment := range active {
		summary.RegisteredCredits += enrollment.CreditHours
	}
	if err := s.students.UpdateAcademicSummary(ctx, tx, studentID, summary); err != nil {
		return nil, appErrors.Internal(err, "failed to store academic summary")
	}
	s.metrics.ObserveGPARecompute(time.Since(start))
	return &summary, nil
}

// RecalculateGPA recomputes a student's summary in its own transaction.
func (s *AcademicRecordService) RecalculateGPA(ctx context.Context, studentID string, actor models.Actor) (*dto.RecalculateGPAResponse, error) {
	if !CanApprove(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may recalculate GPA")
	}
	var summary *models.AcademicSummary
	err := database.WithTx(ctx, s.tx, nil, func(tx *sqlx.Tx) error {
		var err error
		summary, err = s.Recalculate(ctx, tx, studentID)
		return err
	})
	if err != nil {
		return nil, asAppError(err, "failed to recalculate GPA")
	}
	s.InvalidateTranscript(ctx, studentID)
	s.effects.record(ctx, actor, models.AuditActionGPARecalculate, "student", studentID)
	return &dto.RecalculateGPAResponse{StudentID: studentID, GPA: summary.GPA, CompletedCredits: summary.CompletedCredits}, nil
}

// RecalculateAll recomputes the stored summary of every student, one
// transaction per student. A failing student does not stop the others; the
// failures are returned together.
func (s *AcademicRecordService) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := s.students.ListIDs(ctx)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to list students")
	}
	var (
		updated int
		errs    []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		err := database.WithTx(ctx, s.tx, nil, func(tx *sqlx.Tx) error {
			_, err := s.Recalculate(ctx, tx, id)
			return err
		})
		if err != nil {
			s.logger.Warn("gpa recompute failed", zap.String("student_id", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("student %s: %w", id, err))
			continue
		}
		s.InvalidateTranscript(ctx, id)
		updated++
	}
	s.logger.Info("gpa recompute finished", zap.Int("students", updated), zap.Int("failed", len(errs)))
	return updated, errors.Join(errs...)
}

// SimulateGPA evaluates hypothetical grades against the recorded attempts without persisting anything.
func (s *AcademicRecordService) SimulateGPA(ctx context.Context, studentID string, req dto.SimulateGPARequest) (*dto.SimulateGPAResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid simulation payload")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	rows, err := s.transcripts.ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load transcript")
	}
	recorded := transcriptAttempts(rows)

	known := make(map[int64]bool, len(recorded))
	for _, a := range recorded {
		known[a.TranscriptID] = true
	}
	hypothetical := make([]models.Attempt, 0, len(req.Attempts))
	for i, h := range req.Attempts {
		grade, err := models.ParseGrade(h.Grade)
		if err != nil {
			return nil, appErrors.Clonef(appErrors.ErrBadRequest, "invalid grade symbol %q", h.Grade)
		}
		if h.TranscriptID != nil {
			if !known[*h.TranscriptID] {
				return nil, appErrors.Clonef(appErrors.ErrNotFound, "transcript %d not found", *h.TranscriptID)
			}
			hypothetical = append(hypothetical, models.Attempt{TranscriptID: *h.TranscriptID, Grade: grade})
			continue
		}
		if h.CreditHours <= 0 {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "hypothetical additions need positive credit hours")
		}
		courseID := strings.TrimSpace(h.CourseID)
		if courseID == "" {
			courseID = "hypothetical-" + strconv.Itoa(i+1)
		}
		hypothetical = append(hypothetical, models.Attempt{CourseID: courseID, Grade: grade, CreditHours: h.CreditHours})
	}

	current, simulated := Simulate(recorded, hypothetical, s.policy.RetakePolicy(ctx))
	return &dto.SimulateGPAResponse{CurrentGPA: current, SimulatedGPA: simulated}, nil
}

// GetStudentTranscript builds the term-grouped transcript view with an overall summary.
func (s *AcademicRecordService) GetStudentTranscript(ctx context.Context, studentID string) (*dto.TranscriptView, error) {
	policy := s.policy.RetakePolicy(ctx)
	key := TranscriptCacheKey(studentID, policy)
	pattern := transcriptCachePattern(studentID)
	var cached dto.TranscriptView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}
	generation := s.cache.Generation(pattern)

	var (
		student     *models.StudentProfile
		rows        []models.TranscriptDetail
		enrollments []models.EnrollmentDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		student, err = s.students.FindByID(gctx, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.transcripts.ListByStudent(gctx, nil, studentID)
		return err
	})
	g.Go(func() error {
		var err error
		enrollments, err = s.enrollments.ListByStudent(gctx, nil, studentID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load academic record")
	}

	terms, overall := BuildTermView(recordAttempts(rows, enrollments), policy)
	view := &dto.TranscriptView{
		StudentID:    studentID,
		StudentName:  student.FullName,
		RetakePolicy: policy,
		Terms:        terms,
		Overall:      overall,
		GeneratedAt:  s.now().UTC(),
	}
	_ = s.cache.SetFresh(ctx, pattern, generation, key, view, 0)
	return view, nil
}

// ExportTranscript renders the transcript view as csv or pdf.
func (s *AcademicRecordService) ExportTranscript(ctx context.Context, studentID, format string) (*TranscriptExport, error) {
	renderer, ok := s.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, appErrors.Clonef(appErrors.ErrBadRequest, "unsupported export format %q", format)
	}
	view, err := s.GetStudentTranscript(ctx, studentID)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(transcriptDocument(view))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render transcript")
	}
	return &TranscriptExport{
		Filename:    fmt.Sprintf("transcript-%s.%s", studentID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// InvalidateTranscript drops every cached transcript view of the student.
func (s *AcademicRecordService) InvalidateTranscript(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, transcriptCachePattern(studentID)); err != nil {
		s.logger.Warn("failed to invalidate transcript cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

func transcriptAttempts(rows []models.TranscriptDetail) []models.Attempt {
	attempts := make([]models.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, models.AttemptFromTranscript(row))
	}
	return attempts
}

// recordAttempts merges transcript rows with enrollments that have no row yet.
// Declined enrollments were never attempted and are left out.
func recordAttempts(rows []models.TranscriptDetail, enrollments []models.EnrollmentDetail) []models.Attempt {
	attempts := transcriptAttempts(rows)
	onTranscript := make(map[string]bool, len(rows))
	for _, row := range rows {
		onTranscript[row.OfferingID] = true
	}
	for _, enrollment := range enrollments {
		if enrollment.Status == models.EnrollmentStatusDeclined || onTranscript[enrollment.OfferingID] {
			continue
		}
		attempts = append(attempts, models.AttemptFromEnrollment(enrollment))
	}
	return attempts
}

func transcriptDocument(view *dto.TranscriptView) export.Document {
	doc := export.Document{
		Title:    "Academic Transcript",
		Subtitle: fmt.Sprintf("%s (%s) - retake policy %s", view.StudentName, view.StudentID, view.RetakePolicy),
	}
	for _, term := range view.Terms {
		section := export.Section{
			Title:   models.Term{Semester: term.Semester, Year: term.Year}.String(),
			Headers: []string{"Code", "Course", "Credits", "Grade", "Status", "In GPA"},
			Footer:  totalsPairs(term.Totals),
		}
		for _, course := range term.Courses {
			inGPA := "no"
			if course.CountsInGPA {
				inGPA = "yes"
			}
			section.Rows = append(section.Rows, []string{
				course.CourseCode, course.CourseName, strconv.Itoa(course.CreditHours), course.Grade, string(course.Status), inGPA,
			})
		}
		doc.Sections = append(doc.Sections, section)
	}
	doc.Summary = totalsPairs(view.Overall)
	return doc
}

func totalsPairs(t dto.CreditTotals) [][2]string {
	return [][2]string{
		{"Attempted credits", strconv.Itoa(t.AttemptedCredits)},
		{"Earned credits", strconv.Itoa(t.EarnedCredits)},
		{"GPA credits", strconv.Itoa(t.GPACredits)},
		{"Transfer credits", strconv.Itoa(t.TransferCredits)},
		{"Quality points", strconv.FormatFloat(t.QualityPoints, 'f', 2, 64)},
		{"GPA", strconv.FormatFloat(t.GPA, 'f', 2, 64)},
	}
}
