package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

var spring2024 = models.Term{Semester: models.SemesterSpring, Year: 2024}

// recordWorld gives alice a graded CS101, a declined MATH101 and a HIST101
// dropped in an earlier term.
func recordWorld(t *testing.T) *registration {
	w := enrollmentWorld()
	w.addOffering("hist101-a", "HIST101", "A", 2, 20, spring2024)
	r := newRegistration(t, w)

	cs := r.forceEnroll(t, "stu-1", "cs101-a")
	r.grade(t, cs.ID, "A")
	calculus := r.forceEnroll(t, "stu-1", "math101-a")
	_, err := r.enrollments.Decline(context.Background(), calculus.ID, dto.DeclineEnrollmentRequest{Reason: "prerequisite missing"}, registrar)
	require.NoError(t, err)

	id := w.nextID("enr")
	w.enrollments[id] = &models.Enrollment{ID: id, StudentID: "stu-1", OfferingID: "hist101-a", Status: models.EnrollmentStatusDropped}
	return r
}

func TestGetStudentTranscript(t *testing.T) {
	r := recordWorld(t)

	view, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Student stu-1", view.StudentName)
	assert.Equal(t, models.RetakeLatestAttemptOnly, view.RetakePolicy)

	require.Len(t, view.Terms, 2)
	assert.Equal(t, models.SemesterSpring, view.Terms[0].Semester)
	require.Len(t, view.Terms[0].Courses, 1)
	dropped := view.Terms[0].Courses[0]
	assert.Equal(t, "HIST101", dropped.CourseCode)
	assert.Equal(t, "W", dropped.Grade)
	assert.Equal(t, models.EnrollmentStatusDropped, dropped.Status)
	assert.False(t, dropped.CountsInGPA)
	assert.Nil(t, dropped.TranscriptID)

	assert.Equal(t, models.SemesterFall, view.Terms[1].Semester)
	require.Len(t, view.Terms[1].Courses, 1, "declined enrollments stay off the transcript")
	completed := view.Terms[1].Courses[0]
	assert.Equal(t, "CS101", completed.CourseCode)
	assert.Equal(t, "A", completed.Grade)
	assert.True(t, completed.CountsInGPA)
	require.NotNil(t, completed.TranscriptID)

	assert.Equal(t, 4.0, view.Overall.GPA)
	assert.Equal(t, 3, view.Overall.EarnedCredits)
}

func TestGetStudentTranscriptUnknownStudent(t *testing.T) {
	r := newRegistration(t, enrollmentWorld())

	_, err := r.records.GetStudentTranscript(context.Background(), "stu-404")
	assertAppError(t, err, appErrors.ErrNotFound, "student not found")
}

func TestGetStudentTranscriptUsesCache(t *testing.T) {
	r := recordWorld(t)
	cache := newMemoryCache()
	r.records.cache = NewCacheService(cache, r.metrics, time.Minute, nil, true)
	key := TranscriptCacheKey("stu-1", models.RetakeLatestAttemptOnly)

	first, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, cache.has(key))

	r.world.students["stu-1"].FullName = "Renamed"
	cached, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, first.StudentName, cached.StudentName)
	assert.Equal(t, first.Overall, cached.Overall)

	r.records.InvalidateTranscript(context.Background(), "stu-1")
	assert.False(t, cache.has(key))
	fresh, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.StudentName)
}

func TestGradeChangeInvalidatesCachedTranscript(t *testing.T) {
	r := recordWorld(t)
	r.records.cache = NewCacheService(newMemoryCache(), r.metrics, time.Minute, nil, true)

	before, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, before.Overall.GPA)

	var csID string
	for _, e := range r.world.sortedEnrollments() {
		if e.OfferingID == "cs101-a" {
			csID = e.ID
		}
	}
	r.grade(t, csID, "C")

	after, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, after.Overall.GPA)
}

// pausingTranscripts holds the first transcript read until release is closed.
type pausingTranscripts struct {
	transcriptStore
	calls   int32
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingTranscripts) ListByStudent(ctx context.Context, exec sqlx.QueryerContext, studentID string) ([]models.TranscriptDetail, error) {
	rows, err := p.transcriptStore.ListByStudent(ctx, exec, studentID)
	if atomic.AddInt32(&p.calls, 1) == 1 {
		close(p.loaded)
		<-p.release
	}
	return rows, err
}

func TestTranscriptLoadedBeforeGradeChangeIsNotCached(t *testing.T) {
	r := recordWorld(t)
	cache := newMemoryCache()
	r.records.cache = NewCacheService(cache, r.metrics, time.Minute, nil, true)
	transcripts := &pausingTranscripts{transcriptStore: r.records.transcripts, loaded: make(chan struct{}), release: make(chan struct{})}
	r.records.transcripts = transcripts
	key := TranscriptCacheKey("stu-1", models.RetakeLatestAttemptOnly)

	type result struct {
		view *dto.TranscriptView
		err  error
	}
	done := make(chan result, 1)
	go func() {
		view, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
		done <- result{view, err}
	}()

	<-transcripts.loaded
	var csID string
	for _, e := range r.world.sortedEnrollments() {
		if e.OfferingID == "cs101-a" {
			csID = e.ID
		}
	}
	r.grade(t, csID, "C")
	close(transcripts.release)

	inflight := <-done
	require.NoError(t, inflight.err)
	assert.Equal(t, 4.0, inflight.view.Overall.GPA)
	assert.False(t, cache.has(key), "a view loaded before the grade change must not be cached")

	fresh, err := r.records.GetStudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, fresh.Overall.GPA)
	assert.True(t, cache.has(key))
}

func TestCacheSetFreshSkipsInvalidatedGeneration(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, nil, true)
	pattern := transcriptCachePattern("stu-1")
	key := TranscriptCacheKey("stu-1", models.RetakeAllAttempts)

	generation := cache.Generation(pattern)
	require.NoError(t, cache.Invalidate(context.Background(), pattern))
	require.NoError(t, cache.SetFresh(context.Background(), pattern, generation, key, "stale", 0))
	assert.False(t, store.has(key))

	generation = cache.Generation(pattern)
	require.NoError(t, cache.SetFresh(context.Background(), pattern, generation, key, "fresh", 0))
	assert.True(t, store.has(key))

	var disabled *CacheService
	assert.Zero(t, disabled.Generation(pattern))
	assert.NoError(t, disabled.SetFresh(context.Background(), pattern, 0, key, "ignored", 0))
}

func TestSimulateGPA(t *testing.T) {
	r := recordWorld(t)
	rowID := r.world.transcriptRows("stu-1")[0].ID

	result, err := r.records.SimulateGPA(context.Background(), "stu-1", dto.SimulateGPARequest{Attempts: []dto.HypotheticalAttempt{
		{TranscriptID: &rowID, Grade: "c"},
		{CourseID: "PHY101", CreditHours: 3, Grade: "A"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.CurrentGPA)
	assert.Equal(t, 3.0, result.SimulatedGPA)

	assert.Equal(t, models.GradeA, r.world.transcriptRows("stu-1")[0].Grade)
}

func TestSimulateGPAErrors(t *testing.T) {
	r := recordWorld(t)
	missing := int64(99)

	cases := []struct {
		name      string
		studentID string
		attempts  []dto.HypotheticalAttempt
		kind      *appErrors.Error
		message   string
	}{
		{"no attempts", "stu-1", nil, appErrors.ErrValidation, ""},
		{"unknown student", "stu-404", []dto.HypotheticalAttempt{{CreditHours: 3, Grade: "A"}}, appErrors.ErrNotFound, "student not found"},
		{"bad grade", "stu-1", []dto.HypotheticalAttempt{{CreditHours: 3, Grade: "Z"}}, appErrors.ErrBadRequest, `invalid grade symbol "Z"`},
		{"unknown row", "stu-1", []dto.HypotheticalAttempt{{TranscriptID: &missing, Grade: "A"}}, appErrors.ErrNotFound, "transcript 99 not found"},
		{"addition without credits", "stu-1", []dto.HypotheticalAttempt{{CourseID: "PHY101", Grade: "A"}}, appErrors.ErrBadRequest, "hypothetical additions need positive credit hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.records.SimulateGPA(context.Background(), tc.studentID, dto.SimulateGPARequest{Attempts: tc.attempts})
			assertAppError(t, err, tc.kind, tc.message)
		})
	}
}

func TestExportTranscript(t *testing.T) {
	r := recordWorld(t)

	csv, err := r.records.ExportTranscript(context.Background(), "stu-1", "CSV")
	require.NoError(t, err)
	assert.Equal(t, "transcript-stu-1.csv", csv.Filename)
	assert.Equal(t, "text/csv", csv.ContentType)
	assert.Contains(t, string(csv.Body), "Academic Transcript")
	assert.Contains(t, string(csv.Body), "CS101,Course CS101,3,A,COMPLETED,yes")
	assert.Contains(t, string(csv.Body), "FALL 2024")

	pdf, err := r.records.ExportTranscript(context.Background(), "stu-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	_, err = r.records.ExportTranscript(context.Background(), "stu-1", "xlsx")
	assertAppError(t, err, appErrors.ErrBadRequest, `unsupported export format "xlsx"`)

	_, err = r.records.ExportTranscript(context.Background(), "stu-404", "csv")
	assertAppError(t, err, appErrors.ErrNotFound, "student not found")
}

func TestRecalculateGPA(t *testing.T) {
	r := recordWorld(t)
	r.world.students["stu-1"].GPA = 0

	_, err := r.records.RecalculateGPA(context.Background(), "stu-1", alice)
	assertAppError(t, err, appErrors.ErrForbidden, "only administrators may recalculate GPA")

	result, err := r.records.RecalculateGPA(context.Background(), "stu-1", registrar)
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.GPA)
	assert.Equal(t, 3, result.CompletedCredits)
	assert.Equal(t, 4.0, r.student(t, "stu-1").GPA)
	assert.Contains(t, r.world.auditActions(), models.AuditActionGPARecalculate)

	_, err = r.records.RecalculateGPA(context.Background(), "stu-404", registrar)
	assertAppError(t, err, appErrors.ErrNotFound, "student not found")
}
