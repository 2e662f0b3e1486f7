package common

import (
	"errors"
	"time"

	"festpass/src/db"
	"festpass/src/models"
	"festpass/src/types"

	"gorm.io/gorm"
)

// LookupTicket serves the unauthenticated scanner view: attendee name,
// event and redemption state. Booking-level payment data stays private.
func LookupTicket(ticketId string) (*models.Ticket, error) {
	gdb := db.GetDb()
	var ticket models.Ticket
	if err := gdb.
		Where(&models.Ticket{TicketID: ticketId}).
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// VerifyTicketForHost checks a scanned ticket against the event at the
// gate. Invalid tickets (unknown, wrong event, unpaid booking) never
// transition state.
func VerifyTicketForHost(ticketId string, eventId uint) (*models.Ticket, error) {
	gdb := db.GetDb()
	var ticket models.Ticket
	if err := gdb.
		Where(&models.Ticket{TicketID: ticketId}).
		Preload("Booking").
		Preload("Event").
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if ticket.EventID != eventId {
		return nil, ErrWrongEvent
	}
	if ticket.Booking == nil || ticket.Booking.PaymentStatus != types.PAYMENT_COMPLETED {
		return nil, ErrPaymentIncomplete
	}
	return &ticket, nil
}

// RedeemTicket marks a ticket used, once. The conditional update is the
// serialization point: of N concurrent attempts exactly one sees a row
// affected, the rest get AlreadyUsedError with the original timestamp.
func RedeemTicket(ticketId string, usedAt *time.Time, scannedBy string) (*models.Ticket, error) {
	gdb := db.GetDb()
	when := time.Now()
	if usedAt != nil {
		when = *usedAt
	}
	updates := map[string]any{"used_at": when}
	if scannedBy != "" {
		updates["scanned_by"] = scannedBy
	}

	res := gdb.
		Model(&models.Ticket{}).
		Where("ticket_id = ? AND used_at IS NULL", ticketId).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}

	var ticket models.Ticket
	if err := gdb.
		Where(&models.Ticket{TicketID: ticketId}).
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if res.RowsAffected == 0 {
		if ticket.UsedAt == nil {
			// conditional update missed but the row reads unredeemed;
			// only a concurrent delete can cause this
			return nil, ErrTicketNotFound
		}
		return nil, &AlreadyUsedError{UsedAt: *ticket.UsedAt, ScannedBy: ticket.ScannedBy}
	}
	return &ticket, nil
}
