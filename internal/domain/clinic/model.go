package clinic

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("clinic: not found")

// Clinic maps to the clinics table. Each clinic is run by a single doctor
// and hosts the walk-in queue.
type Clinic struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Address         string    `db:"address" json:"address"`
	ContactNumber   string    `db:"contact_number" json:"contact_number,omitempty"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ConsultationFee int       `db:"consultation_fee" json:"consultation_fee"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
