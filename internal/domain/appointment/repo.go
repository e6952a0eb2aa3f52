package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListAllByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	ListAcceptedByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	// ExistsPending reports whether a requested or accepted appointment for
	// the same doctor, patient and start time already exists.
	ExistsPending(ctx context.Context, doctorID, patientID uuid.UUID, start time.Time) (bool, error)
}
