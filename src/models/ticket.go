package models

import (
	"time"

	"festpass/src/types"
)

// Ticket is one redeemable unit owned by a completed Booking. UsedAt
// transitions nil to a timestamp exactly once, through a conditional
// update on the store.
type Ticket struct {
	ID       uint   `gorm:"primarykey" json:"-"`
	TicketID string `gorm:"uniqueIndex" json:"ticket_id"`

	BookingID uint `json:"-"`
	EventID   uint `json:"event_id,omitempty"`
	UserID    uint `json:"-"`

	AttendeeName string `json:"attendee_name,omitempty"`

	// RedemptionToken is a convenience payload for the holder. Redemption
	// decisions never trust it; the server row is authoritative.
	RedemptionToken string `json:"redemption_token,omitempty"`

	UsedAt    *time.Time `json:"used_at,omitempty"`
	ScannedBy *string    `json:"scanned_by,omitempty"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	Event   *Event   `gorm:"foreignKey:EventID" json:"event,omitempty"`

	types.Timestamps
}
