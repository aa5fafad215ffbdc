package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
)

func newTestContext(method, target string, body []byte, actor *models.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if actor != nil {
		c.Set(middleware.ContextActorKey, *actor)
	}
	return c, w
}

func studentActor() *models.Actor {
	return &models.Actor{UserID: "user-1", Role: models.RoleStudent, StudentID: "student-1"}
}

func adminActor() *models.Actor {
	return &models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
}

var errBoom = errors.New("boom")

type pingStub struct{ err error }

func (p pingStub) PingContext(ctx context.Context) error { return p.err }
