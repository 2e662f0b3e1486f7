package common

import (
	"errors"
	"fmt"
	"time"

	"festpass/src/config"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotOpen      = errors.New("event is not open for booking")
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrAlreadyProcessed  = errors.New("booking has already been processed")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrWrongEvent        = errors.New("ticket is not for this event")
	ErrPaymentIncomplete = errors.New("payment not completed")
)

// GatewayError wraps a failed call to the payment gateway. Transient from
// the caller's perspective; nothing was persisted.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway order creation failed: %s", e.Err.Error())
}

func (e *GatewayError) Unwrap() error { return e.Err }

// QuotaExceededError carries the user's confirmed ticket count so the
// response can report it.
type QuotaExceededError struct {
	Current   int64
	Requested int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("you already have %d ticket(s), max %d allowed per user", e.Current, config.TICKET_QUOTA_CAP)
}

// AlreadyUsedError reports a redemption attempt on a used ticket. It
// carries the original redemption metadata for operator visibility; it is
// not a silent success.
type AlreadyUsedError struct {
	UsedAt    time.Time
	ScannedBy *string
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("ticket already used at %s", e.UsedAt.Format(time.RFC3339))
}
