package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	doctors  DoctorRepository
	patients PatientRepository
}

func NewService(doctors DoctorRepository, patients PatientRepository) *Service {
	return &Service{doctors: doctors, patients: patients}
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

// ListDoctors returns the public doctor directory: only doctors who have
// completed their profile are listed.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.ListComplete(ctx, limit, offset)
}

// ListAllDoctors includes doctors with incomplete profiles. Used by
// authenticated staff views, not the public directory.
func (s *Service) ListAllDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]*Patient, error) {
	return s.patients.ListByIDs(ctx, ids)
}

var phoneRe = regexp.MustCompile(`^\d{10}$`)
var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// UpdateDoctorProfile validates and applies a profile update, then marks the
// profile complete so the doctor appears in the public directory.
func (s *Service) UpdateDoctorProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := validateProfile(upd); err != nil {
		return nil, err
	}

	d.Name = strings.TrimSpace(upd.Name)
	d.Experience = upd.Experience
	d.Specializations = normalizeSpecializations(upd.Specializations)
	d.Phone = upd.Phone
	d.Bio = strings.TrimSpace(upd.Bio)
	if upd.Availability != nil {
		d.Availability = *upd.Availability
	} else if len(d.Availability.Days) == 0 {
		d.Availability = DefaultAvailability()
	}
	d.IsProfileComplete = true

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func validateProfile(upd ProfileUpdate) error {
	if strings.TrimSpace(upd.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if upd.Experience < 0 || upd.Experience > 70 {
		return fmt.Errorf("%w: experience must be between 0 and 70 years", ErrInvalidProfile)
	}
	if len(normalizeSpecializations(upd.Specializations)) == 0 {
		return fmt.Errorf("%w: at least one specialization is required", ErrInvalidProfile)
	}
	if upd.Phone != "" && !phoneRe.MatchString(upd.Phone) {
		return fmt.Errorf("%w: phone must be 10 digits", ErrInvalidProfile)
	}
	if len(upd.Bio) > 500 {
		return fmt.Errorf("%w: bio must be at most 500 characters", ErrInvalidProfile)
	}
	if upd.Availability != nil {
		if err := validateAvailability(*upd.Availability); err != nil {
			return err
		}
	}
	return nil
}

func validateAvailability(a Availability) error {
	if len(a.Days) == 0 {
		return fmt.Errorf("%w: availability needs at least one day", ErrInvalidProfile)
	}
	for _, day := range a.Days {
		if day < 0 || day > 6 {
			return fmt.Errorf("%w: availability day %d out of range", ErrInvalidProfile, day)
		}
	}
	if !timeRe.MatchString(a.StartTime) || !timeRe.MatchString(a.EndTime) {
		return fmt.Errorf("%w: availability times must be HH:MM", ErrInvalidProfile)
	}
	if a.StartTime >= a.EndTime {
		return fmt.Errorf("%w: availability start must be before end", ErrInvalidProfile)
	}
	if a.SlotDuration < 5 || a.SlotDuration > 240 {
		return fmt.Errorf("%w: slot duration must be between 5 and 240 minutes", ErrInvalidProfile)
	}
	return nil
}

func normalizeSpecializations(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
