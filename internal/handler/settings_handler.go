package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type settingsService interface {
	Current(ctx context.Context) (*dto.RegistrationSettings, error)
	Update(ctx context.Context, req dto.UpdateRegistrationSettingsRequest, actor models.Actor) (*dto.RegistrationSettings, error)
}

// SettingsHandler exposes the registration calendar and retake policy.
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Current registration settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/registration-settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settings.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// Update godoc
// @Summary Update registration settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body dto.UpdateRegistrationSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/registration-settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req dto.UpdateRegistrationSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}
