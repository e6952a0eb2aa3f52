package queue

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusWaiting        = "waiting"
	StatusInConsultation = "in-consultation"
	StatusFinished       = "finished"
)

// Queue is one clinic's walk-in queue for one day. There is exactly one per
// (clinic, date); the date is midnight UTC.
type Queue struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	ClinicID  uuid.UUID   `db:"clinic_id" json:"clinic_id"`
	DoctorID  uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	Date      time.Time   `db:"date" json:"date"`
	StartTime time.Time   `db:"start_time" json:"start_time"`
	IsActive  bool        `db:"is_active" json:"is_active"`
	Items     []*QueueItem `json:"items"`
}

// QueueItem is one patient's place in a queue. Active items carry dense
// positions 1..N; finished items drop out of the live view but remain for
// history, keeping the position they last held as their token.
type QueueItem struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	QueueID       uuid.UUID  `db:"queue_id" json:"queue_id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName   string     `db:"patient_name" json:"patient_name"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Position      int        `db:"position" json:"position"`
	JoinedAt      time.Time  `db:"joined_at" json:"joined_at"`
	Status        string     `db:"status" json:"status"`
}

// ActiveItems returns the waiting and in-consultation items in position
// order. Finished items are excluded.
func (q *Queue) ActiveItems() []*QueueItem {
	var out []*QueueItem
	for _, it := range q.Items {
		if it.Status != StatusFinished {
			out = append(out, it)
		}
	}
	return out
}

// HistoryEntry is a patient-facing record of a finished queue visit.
type HistoryEntry struct {
	ClinicID   uuid.UUID `json:"clinic_id"`
	ClinicName string    `json:"clinic_name"`
	DoctorName string    `json:"doctor_name"`
	Date       time.Time `json:"date"`
	Token      int       `json:"token"`
	JoinedAt   time.Time `json:"joined_at"`
}
