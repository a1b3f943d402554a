package queue

import (
	"context"

	"github.com/google/uuid"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

// VisitRepository is the visit store. Implementations return
// ErrVisitNotFound for missing records. Insert assigns the token.
type VisitRepository interface {
	Insert(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// CountWaiting counts visits for the specialization that are not yet
	// completed.
	CountWaiting(ctx context.Context, spec registry.Specialization) (int, error)
	// OldestUnnotified returns the not-completed, not-notified visit with
	// the smallest token for the specialization.
	OldestUnnotified(ctx context.Context, spec registry.Specialization) (*Visit, error)
	MarkNotified(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	ListBySpecialization(ctx context.Context, spec registry.Specialization, limit, offset int) ([]*Visit, int, error)
	List(ctx context.Context, limit, offset int) ([]*Visit, int, error)
}
