package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careplus/careplus/internal/domain/identity"
	"github.com/careplus/careplus/internal/platform/meeting"
)

// Directory resolves the people on either side of an appointment.
// *identity.Service satisfies it.
type Directory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// Notifier delivers best-effort notifications. *notification.Notifier
// satisfies it.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string)
}

// TxRunner executes fn within a serializable transaction. In production this
// is db.WithTx bound to the pool; tests pass a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	appointments Repository
	directory    Directory
	provider     meeting.Provider
	notifier     Notifier
	runTx        TxRunner
	now          func() time.Time
}

// NewService constructs the appointment service. provider and notifier may
// be nil: without a provider the doctor must supply a meeting link on
// accept, and without a notifier no mail goes out.
func NewService(repo Repository, directory Directory, provider meeting.Provider, notifier Notifier, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{
		appointments: repo,
		directory:    directory,
		provider:     provider,
		notifier:     notifier,
		runTx:        runTx,
		now:          time.Now,
	}
}

// RequestInput carries a patient's consultation request.
type RequestInput struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	StartTime time.Time
	Reason    string
}

// Request creates a consultation request in the requested state. The slot
// length comes from the doctor's configured consultation duration.
func (s *Service) Request(ctx context.Context, in RequestInput) (*Appointment, error) {
	doctor, err := s.directory.GetDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	if in.StartTime.Before(s.now().Add(MinAdvanceNotice)) {
		return nil, ErrInvalidSlot
	}

	end := in.StartTime.Add(time.Duration(doctor.SlotDuration()) * time.Minute)

	dup, err := s.appointments.ExistsPending(ctx, in.DoctorID, in.PatientID, in.StartTime)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateRequest
	}

	a := &Appointment{
		ID:                 uuid.New(),
		DoctorID:           in.DoctorID,
		PatientID:          in.PatientID,
		RequestedStartTime: in.StartTime,
		RequestedEndTime:   end,
		Status:             StatusRequested,
		Reason:             strings.TrimSpace(in.Reason),
		CreatedAt:          s.now(),
		UpdatedAt:          s.now(),
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Accept confirms a requested appointment. The whole check-and-write runs in
// a serializable transaction so two concurrent accepts over the same slot
// cannot both commit. Order: validate, provision, conflict-check, persist.
func (s *Service) Accept(ctx context.Context, id, actorDoctor uuid.UUID, link string) (*Appointment, error) {
	var accepted *Appointment
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.loadOwned(ctx, id, actorDoctor)
		if err != nil {
			return err
		}
		if a.Status != StatusRequested {
			return &InvalidTransitionError{Current: a.Status, Required: StatusRequested}
		}

		link := strings.TrimSpace(link)
		eventID := ""
		if link == "" {
			if s.provider == nil {
				return ErrMissingMeetingLink
			}
			m, err := s.provision(ctx, a)
			if err != nil {
				return err
			}
			link, eventID = m.URL, m.EventID
		}

		others, err := s.appointments.ListAcceptedByDoctor(ctx, a.DoctorID)
		if err != nil {
			return err
		}
		for _, other := range others {
			if other.ID == a.ID {
				continue
			}
			if other.Overlaps(a.RequestedStartTime, a.RequestedEndTime) {
				return ErrSlotConflict
			}
		}

		start, end := a.RequestedStartTime, a.RequestedEndTime
		a.ApprovedStartTime = &start
		a.ApprovedEndTime = &end
		a.Status = StatusAccepted
		a.MeetingLink = link
		a.ExternalEventID = eventID
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		accepted = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "appointment-accepted", accepted, map[string]string{
		"meeting_link": accepted.MeetingLink,
	})
	return accepted, nil
}

// Reject declines a requested appointment. The reason is mandatory and is
// stored as the doctor's note.
func (s *Service) Reject(ctx context.Context, id, actorDoctor uuid.UUID, reason string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}

	var rejected *Appointment
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.loadOwned(ctx, id, actorDoctor)
		if err != nil {
			return err
		}
		if a.Status != StatusRequested {
			return &InvalidTransitionError{Current: a.Status, Required: StatusRequested}
		}
		a.Status = StatusRejected
		a.DoctorNote = reason
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		rejected = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "appointment-rejected", rejected, map[string]string{
		"reason": rejected.DoctorNote,
	})
	return rejected, nil
}

// Complete closes out an accepted appointment after the consultation.
func (s *Service) Complete(ctx context.Context, id, actorDoctor uuid.UUID) (*Appointment, error) {
	var completed *Appointment
	err := s.runTx(ctx, func(ctx context.Context) error {
		a, err := s.loadOwned(ctx, id, actorDoctor)
		if err != nil {
			return err
		}
		if a.Status != StatusAccepted {
			return &InvalidTransitionError{Current: a.Status, Required: StatusAccepted}
		}
		a.Status = StatusCompleted
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		completed = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

// loadOwned loads an appointment and, when the actor is a specific doctor,
// refuses to reveal appointments belonging to anyone else.
func (s *Service) loadOwned(ctx context.Context, id, actorDoctor uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorDoctor != uuid.Nil && a.DoctorID != actorDoctor {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *Service) provision(ctx context.Context, a *Appointment) (*meeting.Meeting, error) {
	doctor, err := s.directory.GetDoctor(ctx, a.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.directory.GetPatient(ctx, a.PatientID)
	if err != nil {
		return nil, err
	}
	return s.provider.Provision(ctx, meeting.Request{
		DoctorName:   doctor.Name,
		DoctorEmail:  doctor.Email,
		PatientEmail: patient.Email,
		StartTime:    a.RequestedStartTime,
		EndTime:      a.RequestedEndTime,
	})
}

func (s *Service) notify(ctx context.Context, templateID string, a *Appointment, extra map[string]string) {
	if s.notifier == nil || a == nil {
		return
	}
	patient, err := s.directory.GetPatient(ctx, a.PatientID)
	if err != nil {
		return
	}
	doctor, err := s.directory.GetDoctor(ctx, a.DoctorID)
	if err != nil {
		return
	}
	data := map[string]string{
		"patient_name": patient.Name,
		"doctor_name":  doctor.Name,
		"date":         a.RequestedStartTime.Format("2006-01-02"),
		"time":         a.RequestedStartTime.Format("15:04"),
	}
	for k, v := range extra {
		data[k] = v
	}
	s.notifier.Notify(ctx, templateID, patient.Email, data)
}
