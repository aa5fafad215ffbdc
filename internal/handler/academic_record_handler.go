package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type academicRecordService interface {
	RecalculateGPA(ctx context.Context, studentID string, actor models.Actor) (*dto.RecalculateGPAResponse, error)
	SimulateGPA(ctx context.Context, studentID string, req dto.SimulateGPARequest) (*dto.SimulateGPAResponse, error)
	GetStudentTranscript(ctx context.Context, studentID string) (*dto.TranscriptView, error)
	ExportTranscript(ctx context.Context, studentID, format string) (*service.TranscriptExport, error)
}

// AcademicRecordHandler exposes GPA and transcript endpoints.
type AcademicRecordHandler struct {
	records academicRecordService
}

// NewAcademicRecordHandler constructs AcademicRecordHandler.
func NewAcademicRecordHandler(records academicRecordService) *AcademicRecordHandler {
	return &AcademicRecordHandler{records: records}
}

// MyTranscript godoc
// @Summary Transcript of the caller
// @Tags Academic Records
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me/transcript [get]
func (h *AcademicRecordHandler) MyTranscript(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	h.transcript(c, actor.StudentID)
}

// StudentTranscript godoc
// @Summary Transcript of a student
// @Tags Academic Records
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *AcademicRecordHandler) StudentTranscript(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if !service.CanViewRecord(actor, c.Param("id")) {
		response.Error(c, errForbiddenRecord)
		return
	}
	h.transcript(c, c.Param("id"))
}

func (h *AcademicRecordHandler) transcript(c *gin.Context, studentID string) {
	view, err := h.records.GetStudentTranscript(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// ExportMyTranscript godoc
// @Summary Download the caller's transcript
// @Tags Academic Records
// @Produce application/pdf
// @Produce text/csv
// @Param format query string false "pdf or csv" default(pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /students/me/transcript/export [get]
func (h *AcademicRecordHandler) ExportMyTranscript(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	doc, err := h.records.ExportTranscript(c.Request.Context(), actor.StudentID, c.DefaultQuery("format", "pdf"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Body)
}

// SimulateGPA godoc
// @Summary Simulate GPA with hypothetical grades
// @Tags Academic Records
// @Accept json
// @Produce json
// @Param payload body dto.SimulateGPARequest true "Hypothetical attempts"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/me/gpa/simulate [post]
func (h *AcademicRecordHandler) SimulateGPA(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	var req dto.SimulateGPARequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.records.SimulateGPA(c.Request.Context(), actor.StudentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// RecalculateGPA godoc
// @Summary Recompute a student's GPA and credit totals
// @Tags Academic Records
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/students/{id}/gpa/recalculate [post]
func (h *AcademicRecordHandler) RecalculateGPA(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	result, err := h.records.RecalculateGPA(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

var errForbiddenRecord = appErrors.Clone(appErrors.ErrForbidden, "you may only view your own academic record")
