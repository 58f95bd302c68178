package models

import "time"

// SessionBlock is a purchased package of prepaid session credits.
// At most one block per customer is active at a time; later purchases
// queue as pending until the active block is exhausted.
type SessionBlock struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CustomerID uint     `json:"customer_id"`
	Customer   Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	StudioID uint `json:"studio_id"`

	TotalSessions     int `gorm:"not null" json:"total_sessions"`
	UsedSessions      int `gorm:"default:0" json:"used_sessions"`
	RemainingSessions int `gorm:"default:0" json:"remaining_sessions"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	ActivationDate *time.Time `json:"activation_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
