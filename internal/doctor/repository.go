package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrProfileNotFound = errors.New("doctor profile not found")
)

type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetProfile(ctx context.Context, doctorID uuid.UUID) (*Profile, error)
	UpsertProfile(ctx context.Context, p Profile) (*Profile, error)
	// SetApproval flips the admin verification flag.
	SetApproval(ctx context.Context, doctorID uuid.UUID, approved bool) (*Profile, error)
}
