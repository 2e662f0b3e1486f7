package models

import (
	"time"

	"festpass/src/types"
)

// Event administration lives outside this service; the rows here exist so
// order creation can check that a booking targets a real, open event.
type Event struct {
	ID       uint              `gorm:"primarykey" json:"id"`
	Name     string            `json:"name,omitempty"`
	Venue    string            `json:"venue,omitempty"`
	Status   types.EventStatus `gorm:"default:'open'" json:"status,omitempty"`
	StartsAt *time.Time        `json:"starts_at,omitempty"`

	Bookings []Booking `gorm:"foreignKey:EventID" json:"-"`

	types.Timestamps
}
