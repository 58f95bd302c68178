package models

import "time"

// SessionTransaction is an append-only ledger row. Amount is the signed
// change to the block's remaining count: -1 for a deduction, +1 for a
// refund, any signed value for a manual adjustment. Rows are never
// updated or deleted.
type SessionTransaction struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerID uint `json:"customer_id"`
	StudioID   uint `json:"studio_id"`

	SessionBlockID uint         `json:"session_block_id"`
	SessionBlock   SessionBlock `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"session_block"`

	AppointmentID *uint `json:"appointment_id"`

	Type   string `gorm:"size:30;not null" json:"type"`
	Amount int    `gorm:"not null" json:"amount"`
	Reason string `gorm:"size:255" json:"reason"`

	// CreatedByID is null for system-triggered rows (the sweep).
	CreatedByID *uint `json:"created_by_id"`

	CreatedAt time.Time `json:"created_at"`
}
