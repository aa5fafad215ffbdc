package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type studentProfileFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type instructorProfileFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.Instructor, error)
}

// IdentityService maps verified token claims onto a domain actor.
type IdentityService struct {
	students    studentProfileFinder
	instructors instructorProfileFinder
	logger      *zap.Logger
}

// NewIdentityService constructs IdentityService.
func NewIdentityService(students studentProfileFinder, instructors instructorProfileFinder, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityService{students: students, instructors: instructors, logger: logger}
}

// ResolveActor attaches the student or instructor profile owned by the token
// subject. A student token without a profile is rejected.
func (s *IdentityService) ResolveActor(ctx context.Context, claims *models.JWTClaims) (models.Actor, error) {
	actor := models.ActorFromClaims(claims)
	if actor.UserID == "" {
		return actor, appErrors.Clone(appErrors.ErrUnauthorized, "missing token subject")
	}

	switch actor.Role {
	case models.RoleStudent:
		student, err := s.students.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return actor, appErrors.Clone(appErrors.ErrForbidden, "no student profile for this account")
			}
			return actor, appErrors.Internal(err, "failed to resolve student profile")
		}
		actor.StudentID = student.ID
	case models.RoleInstructor:
		instructor, err := s.instructors.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.logger.Debug("instructor token without profile", zap.String("user_id", actor.UserID))
				return actor, nil
			}
			return actor, appErrors.Internal(err, "failed to resolve instructor profile")
		}
		actor.InstructorID = instructor.ID
	}
	return actor, nil
}
