package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	StudioID uint   `json:"studio_id"`
	Studio   Studio `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"studio"`

	CustomerID uint     `json:"customer_id"`
	Customer   Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	AppointmentTypeID uint            `json:"appointment_type_id"`
	AppointmentType   AppointmentType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"appointment_type"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;default:'confirmed'" json:"status"`

	// SessionConsumed guards the credit deduction: once true the
	// appointment can never deduct again.
	SessionConsumed bool `gorm:"default:false" json:"session_consumed"`

	Notes string `gorm:"size:255" json:"notes"`

	CreatedByID *uint      `json:"created_by_id"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CancelledBy *uint      `json:"cancelled_by"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
