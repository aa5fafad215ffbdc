package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

// currentActor returns the caller resolved by the JWT middleware, writing a 401
// when it is missing.
func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return actor, true
}

// currentStudent is currentActor for routes that act on the caller's own record.
func currentStudent(c *gin.Context) (models.Actor, bool) {
	actor, ok := currentActor(c)
	if !ok {
		return actor, false
	}
	if actor.StudentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "a student profile is required"))
		return actor, false
	}
	return actor, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
