package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the caller of a mutating operation.
type Actor struct {
	UserID string
	Role   UserRole
	// StudentID is set when the caller owns a student profile.
	StudentID string
	// InstructorID is set when the caller owns an instructor profile.
	InstructorID string
}

// IsAdmin reports whether the actor holds an administrative role.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdministrative()
}

// ActorFromClaims builds an actor without a resolved student profile.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}
