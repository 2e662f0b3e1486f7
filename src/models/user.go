package models

import "festpass/src/types"

// User rows are provisioned from the identity provider's verified claim on
// first request; this service never issues credentials itself.
type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	UID   string `gorm:"uniqueIndex" json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	Bookings []Booking `gorm:"foreignKey:UserID" json:"bookings,omitempty"`

	types.Timestamps
}
