package models

import "time"

type AppointmentType struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	StudioID uint `json:"studio_id"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	DurationMin int    `json:"duration_min"`

	// ConsumesSession marks types that burn a credit on completion.
	// Free consultations and trial sessions leave it false. No column
	// default: gorm omits zero values for defaulted columns on insert,
	// which would make false unstorable. The create handler fills in
	// the defaults instead.
	ConsumesSession bool `json:"consumes_session"`

	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
