// Package report builds the doctor's practice report: a flat aggregation of
// the doctor's appointments, clinic queues and patients, for display or
// export. It only reads.
package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/careplus/careplus/internal/domain/appointment"
	"github.com/careplus/careplus/internal/domain/identity"
	"github.com/careplus/careplus/internal/domain/queue"
)

// Doctors resolves doctor and patient records. *identity.Service
// satisfies it.
type Doctors interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
	ListPatientsByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Patient, error)
}

// Appointments lists everything a doctor has on the books.
type Appointments interface {
	ListAllByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*appointment.Appointment, error)
}

// Queues lists a doctor's clinic queues, items included.
type Queues interface {
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*queue.Queue, error)
}

// Stats summarises a doctor's practice volume.
type Stats struct {
	TotalAppointments     int `json:"total_appointments"`
	RequestedAppointments int `json:"requested_appointments"`
	AcceptedAppointments  int `json:"accepted_appointments"`
	CompletedAppointments int `json:"completed_appointments"`
	TotalQueuePatients    int `json:"total_queue_patients"`
	FinishedQueuePatients int `json:"finished_queue_patients"`
	UniquePatientsCount   int `json:"unique_patients_count"`
}

// Report is the assembled view.
type Report struct {
	Doctor       *identity.Doctor           `json:"doctor"`
	Appointments []*appointment.Appointment `json:"appointments"`
	Queues       []*queue.Queue             `json:"queues"`
	Patients     []*identity.Patient        `json:"patients"`
	Stats        Stats                      `json:"stats"`
}

type Service struct {
	doctors      Doctors
	appointments Appointments
	queues       Queues
}

func NewService(doctors Doctors, appointments Appointments, queues Queues) *Service {
	return &Service{doctors: doctors, appointments: appointments, queues: queues}
}

// Generate assembles the report for one doctor. The unique patient count is
// the union of appointment patients and queue patients.
func (s *Service) Generate(ctx context.Context, doctorID uuid.UUID) (*Report, error) {
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.ListAllByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	queues, err := s.queues.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	stats := Stats{TotalAppointments: len(appts)}
	seen := make(map[uuid.UUID]struct{})
	for _, a := range appts {
		switch a.Status {
		case appointment.StatusRequested:
			stats.RequestedAppointments++
		case appointment.StatusAccepted:
			stats.AcceptedAppointments++
		case appointment.StatusCompleted:
			stats.CompletedAppointments++
		}
		seen[a.PatientID] = struct{}{}
	}
	for _, q := range queues {
		for _, it := range q.Items {
			stats.TotalQueuePatients++
			if it.Status == queue.StatusFinished {
				stats.FinishedQueuePatients++
			}
			seen[it.PatientID] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	stats.UniquePatientsCount = len(ids)

	patients, err := s.doctors.ListPatientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &Report{
		Doctor:       doctor,
		Appointments: appts,
		Queues:       queues,
		Patients:     patients,
		Stats:        stats,
	}, nil
}
