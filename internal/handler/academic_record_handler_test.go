package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
)

type academicRecordServiceMock struct {
	transcriptFor string
	format        string
	simulated     dto.SimulateGPARequest
}

func (m *academicRecordServiceMock) RecalculateGPA(ctx context.Context, studentID string, actor models.Actor) (*dto.RecalculateGPAResponse, error) {
	return &dto.RecalculateGPAResponse{StudentID: studentID, GPA: 3.5}, nil
}

func (m *academicRecordServiceMock) SimulateGPA(ctx context.Context, studentID string, req dto.SimulateGPARequest) (*dto.SimulateGPAResponse, error) {
	m.simulated = req
	return &dto.SimulateGPAResponse{CurrentGPA: 3, SimulatedGPA: 3.5}, nil
}

func (m *academicRecordServiceMock) GetStudentTranscript(ctx context.Context, studentID string) (*dto.TranscriptView, error) {
	m.transcriptFor = studentID
	return &dto.TranscriptView{StudentID: studentID}, nil
}

func (m *academicRecordServiceMock) ExportTranscript(ctx context.Context, studentID, format string) (*service.TranscriptExport, error) {
	m.format = format
	return &service.TranscriptExport{Filename: "transcript-" + studentID + ".csv", ContentType: "text/csv", Body: []byte("a,b\n")}, nil
}

func TestAcademicRecordHandlerMyTranscriptUsesOwnProfile(t *testing.T) {
	svc := &academicRecordServiceMock{}
	handler := NewAcademicRecordHandler(svc)
	c, w := newTestContext(http.MethodGet, "/students/me/transcript", nil, studentActor())

	handler.MyTranscript(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student-1", svc.transcriptFor)
}

func TestAcademicRecordHandlerStudentTranscriptOwnership(t *testing.T) {
	svc := &academicRecordServiceMock{}
	handler := NewAcademicRecordHandler(svc)

	c, w := newTestContext(http.MethodGet, "/students/student-2/transcript", nil, studentActor())
	c.Params = gin.Params{{Key: "id", Value: "student-2"}}
	handler.StudentTranscript(c)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = newTestContext(http.MethodGet, "/students/student-2/transcript", nil, adminActor())
	c.Params = gin.Params{{Key: "id", Value: "student-2"}}
	handler.StudentTranscript(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student-2", svc.transcriptFor)
}

func TestAcademicRecordHandlerExport(t *testing.T) {
	svc := &academicRecordServiceMock{}
	handler := NewAcademicRecordHandler(svc)
	c, w := newTestContext(http.MethodGet, "/students/me/transcript/export?format=csv", nil, studentActor())

	handler.ExportMyTranscript(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transcript-student-1.csv")
}

func TestAcademicRecordHandlerSimulate(t *testing.T) {
	svc := &academicRecordServiceMock{}
	handler := NewAcademicRecordHandler(svc)
	c, w := newTestContext(http.MethodPost, "/students/me/gpa/simulate", []byte(`{"attempts":[{"course_id":"c1","credit_hours":3,"grade":"A"}]}`), studentActor())

	handler.SimulateGPA(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.simulated.Attempts, 1)
	assert.Equal(t, 3, svc.simulated.Attempts[0].CreditHours)
}
