package identity

import (
	"time"

	"github.com/google/uuid"
)

// Availability describes the weekly working window a doctor accepts video
// consultations in. Days uses time.Weekday numbering (0 = Sunday).
type Availability struct {
	Days         []int  `db:"available_days" json:"days"`
	StartTime    string `db:"available_from" json:"start_time"` // "09:00"
	EndTime      string `db:"available_to" json:"end_time"`     // "17:00"
	SlotDuration int    `db:"slot_duration" json:"slot_duration_minutes"`
}

// DefaultAvailability is applied to doctors who have not configured their
// working hours: Monday to Friday, 09:00-17:00, 30 minute slots.
func DefaultAvailability() Availability {
	return Availability{
		Days:         []int{1, 2, 3, 4, 5},
		StartTime:    "09:00",
		EndTime:      "17:00",
		SlotDuration: 30,
	}
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID                uuid.UUID    `db:"id" json:"id"`
	Name              string       `db:"name" json:"name"`
	Email             string       `db:"email" json:"email"`
	Experience        int          `db:"experience" json:"experience_years"`
	Specializations   []string     `db:"specializations" json:"specializations"`
	Phone             string       `db:"phone" json:"phone,omitempty"`
	Bio               string       `db:"bio" json:"bio,omitempty"`
	IsProfileComplete bool         `db:"is_profile_complete" json:"is_profile_complete"`
	Availability      Availability `json:"availability"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// SlotDuration returns the doctor's configured consultation length in
// minutes, falling back to the default when unset.
func (d *Doctor) SlotDuration() int {
	if d.Availability.SlotDuration > 0 {
		return d.Availability.SlotDuration
	}
	return DefaultAvailability().SlotDuration
}

// Patient maps to the patients table.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProfileUpdate carries the editable fields of a doctor profile.
type ProfileUpdate struct {
	Name            string        `json:"name"`
	Experience      int           `json:"experience_years"`
	Specializations []string      `json:"specializations"`
	Phone           string        `json:"phone"`
	Bio             string        `json:"bio"`
	Availability    *Availability `json:"availability,omitempty"`
}
