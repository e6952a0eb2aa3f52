package clinic

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	ListActive(ctx context.Context, limit, offset int) ([]*Clinic, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Clinic, error)
}
