package dto

import "time"

type AppointmentListDTO struct {
	ID              uint      `json:"id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	CustomerName    string    `json:"customer_name"`
	TypeName        string    `json:"type_name"`
	SessionConsumed bool      `json:"session_consumed"`
}

type SessionBalanceDTO struct {
	CustomerID           uint   `json:"customer_id"`
	ActiveBlockID        *uint  `json:"active_block_id"`
	ActiveBlockRemaining int    `json:"active_block_remaining"`
	PendingBlocksCount   int    `json:"pending_blocks_count"`
	ActiveBlockStatus    string `json:"active_block_status,omitempty"`
}
