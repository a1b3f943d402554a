package intake

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the intake store. Implementations return ErrIntakeNotFound
// for missing records. List orders newest first for the doctor dashboard.
type Repository interface {
	Create(ctx context.Context, in *Intake) error
	GetByID(ctx context.Context, id uuid.UUID) (*Intake, error)
	List(ctx context.Context, limit, offset int) ([]*Intake, int, error)
}
