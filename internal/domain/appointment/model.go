package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusRequested = "requested"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// MinAdvanceNotice is how far in the future a consultation must start.
const MinAdvanceNotice = 20 * time.Minute

// Appointment maps to the appointments table. Requested times are what the
// patient asked for; approved times are set on acceptance and back the
// doctor's conflict exclusion.
type Appointment struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	DoctorID           uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID          uuid.UUID  `db:"patient_id" json:"patient_id"`
	RequestedStartTime time.Time  `db:"requested_start_time" json:"requested_start_time"`
	RequestedEndTime   time.Time  `db:"requested_end_time" json:"requested_end_time"`
	ApprovedStartTime  *time.Time `db:"approved_start_time" json:"approved_start_time,omitempty"`
	ApprovedEndTime    *time.Time `db:"approved_end_time" json:"approved_end_time,omitempty"`
	Status             string     `db:"status" json:"status"`
	MeetingLink        string     `db:"meeting_link" json:"meeting_link,omitempty"`
	ExternalEventID    string     `db:"external_event_id" json:"external_event_id,omitempty"`
	Reason             string     `db:"reason" json:"reason,omitempty"`
	DoctorNote         string     `db:"doctor_note" json:"doctor_note,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the accepted interval of a strictly overlaps
// [start, end). Touching boundaries do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	if a.ApprovedStartTime == nil || a.ApprovedEndTime == nil {
		return false
	}
	return a.ApprovedStartTime.Before(end) && a.ApprovedEndTime.After(start)
}
