package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the doctor store. Implementations return ErrDoctorNotFound
// for missing records.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// GetByName matches case-insensitively.
	GetByName(ctx context.Context, name string) (*Doctor, error)
	// FirstBySpecialization returns one doctor of the given specialization
	// regardless of availability.
	FirstBySpecialization(ctx context.Context, spec Specialization) (*Doctor, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	RecordLogout(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
}
