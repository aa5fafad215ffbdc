package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Notification kinds published to students.
const (
	NotificationEnrollmentCreated  = "ENROLLMENT_CREATED"
	NotificationEnrollmentApproved = "ENROLLMENT_APPROVED"
	NotificationEnrollmentDeclined = "ENROLLMENT_DECLINED"
	NotificationEnrollmentDropped  = "ENROLLMENT_DROPPED"
	NotificationGradePosted        = "GRADE_POSTED"
)

// Notifier delivers a notification to a user. Implementations may be asynchronous.
type Notifier interface {
	Notify(ctx context.Context, userID, kind string, payload map[string]interface{}) error
}

// sideEffects emits audit entries and notifications after a unit of work has
// committed. Failures are logged and never surface to the caller.
type sideEffects struct {
	audit    auditRecorder
	notifier Notifier
	logger   *zap.Logger
}

func (e sideEffects) record(ctx context.Context, actor models.Actor, action, resource, resourceID string) {
	if e.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		CreatedAt: time.Now().UTC(),
	}
	if actor.UserID != "" {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := e.audit.Create(ctx, entry); err != nil {
		e.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func (e sideEffects) notify(ctx context.Context, userID, kind string, payload map[string]interface{}) {
	if e.notifier == nil || userID == "" {
		return
	}
	if err := e.notifier.Notify(ctx, userID, kind, payload); err != nil {
		e.logger.Warn("failed to publish notification", zap.String("kind", kind), zap.String("user_id", userID), zap.Error(err))
	}
}

// asAppError keeps typed errors and wraps everything else as internal.
func asAppError(err error, message string) error {
	if err == nil {
		return nil
	}
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.Internal(err, message)
}
