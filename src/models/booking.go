package models

import "festpass/src/types"

// Booking is a user's reservation for a quantity of tickets to one event.
// It is created pending alongside a gateway order and transitions to
// completed exactly once, when the payment callback verifies.
type Booking struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	BookingID string `gorm:"uniqueIndex" json:"booking_id"`

	UserID  uint `json:"user_id,omitempty"`
	EventID uint `json:"event_id,omitempty"`

	EventName       string  `json:"event_name,omitempty"`
	AttendeeName    string  `json:"attendee_name,omitempty"`
	AttendeeEmail   string  `json:"attendee_email,omitempty"`
	AttendeePhone   string  `json:"attendee_phone,omitempty"`
	AttendeeCollege *string `json:"attendee_college,omitempty"`

	TicketQuantity int64 `json:"ticket_quantity,omitempty"`
	UnitPrice      int64 `json:"unit_price,omitempty"`
	PlatformFee    int64 `json:"platform_fee,omitempty"`
	TotalAmount    int64 `json:"total_amount,omitempty"`

	GatewayOrderID   string              `gorm:"uniqueIndex" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string             `json:"gateway_payment_id,omitempty"`
	PaymentStatus    types.PaymentStatus `gorm:"default:'pending'" json:"payment_status,omitempty"`

	Metadata types.JSONB `gorm:"type:jsonb" json:"metadata,omitempty"`

	Event   *Event   `gorm:"foreignKey:EventID" json:"event,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
	Tickets []Ticket `gorm:"foreignKey:BookingID" json:"tickets,omitempty"`

	types.Timestamps
}
