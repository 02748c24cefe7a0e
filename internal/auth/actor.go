package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"

	// Internal roles. Never minted into tokens: the payment reconciler and the
	// expiry worker act with these directly.
	RolePaymentService Role = "payment_service"
	RoleSystem         Role = "system"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoActor      = errors.New("no actor in context")
)

// Actor is the authenticated caller as asserted by the auth service.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type contextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

func ActorFrom(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	if !ok {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 bearer token and extracts the actor. Only the
// externally assignable roles are accepted.
func ParseToken(tokenString, secret string) (Actor, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Actor{}, ErrInvalidToken
	}

	role := Role(c.Role)
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
	default:
		return Actor{}, ErrInvalidToken
	}

	return Actor{ID: id, Role: role}, nil
}
