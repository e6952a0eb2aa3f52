package clinic

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	clinics Repository
}

func NewService(clinics Repository) *Service {
	return &Service{clinics: clinics}
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.clinics.GetByID(ctx, id)
}

// ListActive returns the clinics currently accepting walk-in patients.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.ListActive(ctx, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Clinic, error) {
	return s.clinics.ListByDoctor(ctx, doctorID)
}
