package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	UID   string `json:"uid"`
	jwt.RegisteredClaims
}

type PaymentStatus string

const (
	PAYMENT_PENDING   PaymentStatus = "pending"
	PAYMENT_COMPLETED PaymentStatus = "completed"
	PAYMENT_FAILED    PaymentStatus = "failed"
)

type EventStatus string

const (
	EVENT_OPEN   EventStatus = "open"
	EVENT_CLOSED EventStatus = "closed"
)

type Attendee struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required"`
	College string `json:"college,omitempty"`
}

type CreateOrderRequestBody struct {
	EventID     uint     `json:"eventId" binding:"required"`
	EventName   string   `json:"eventName" binding:"required"`
	TicketQty   int64    `json:"ticketQty" binding:"required,min=1,max=2"`
	TicketPrice int64    `json:"ticketPrice" binding:"required,min=1"`
	Attendee    Attendee `json:"attendee" binding:"required"`
}

type VerifyPaymentRequestBody struct {
	GatewayOrderID   string `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

type VerifyTicketRequestBody struct {
	EventID uint `json:"eventId" binding:"required"`
}

type MarkUsedRequestBody struct {
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ScannedBy string     `json:"scannedBy,omitempty"`
}

type TicketURIParams struct {
	TicketID string `uri:"ticketId" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateOrderResponse struct {
	BookingID      string `json:"bookingId"`
	GatewayOrderID string `json:"gatewayOrderId"`
	// Amount is what the gateway will collect, in minor currency units.
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	// KeyID is the public gateway key the client checkout widget needs.
	KeyID string `json:"keyId"`
}

type IssuedTicket struct {
	TicketID          string `json:"ticketId"`
	RedemptionPayload string `json:"redemptionPayload"`
}

type VerifyPaymentResponse struct {
	BookingID string         `json:"bookingId"`
	Tickets   []IssuedTicket `json:"tickets"`
}
