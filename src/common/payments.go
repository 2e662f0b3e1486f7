package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"festpass/src/config"
	"festpass/src/db"
	"festpass/src/lib"
	"festpass/src/models"
	"festpass/src/types"
	"festpass/src/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerifyPaymentAndIssue validates the gateway callback and completes the
// booking. The pending-to-completed transition, the quota re-check and
// ticket issuance run in one transaction: a completed booking can never
// exist without its tickets, and the quota invariant is enforced at the
// moment capacity is actually consumed, not at initiation.
func VerifyPaymentAndIssue(userId uint, uid string, body *types.VerifyPaymentRequestBody) (*types.VerifyPaymentResponse, error) {
	secret := os.Getenv("RAZORPAY_KEY_SECRET")
	if !utils.VerifyPaymentSignature(body.GatewayOrderID, body.GatewayPaymentID, body.Signature, secret) {
		log.Printf("Invalid payment signature for order %s (user %s)\n", body.GatewayOrderID, uid)
		go auditSignatureFailure(body.GatewayOrderID)
		return nil, ErrInvalidSignature
	}

	var resp *types.VerifyPaymentResponse
	var quotaErr *QuotaExceededError
	var issuedBooking *models.Booking
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.
			Where(&models.Booking{GatewayOrderID: body.GatewayOrderID, UserID: userId}).
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		// Lock every booking this user holds for the event, in id order so
		// concurrent completions queue up instead of deadlocking. The
		// locked rows double as the quota aggregate below.
		var peers []models.Booking
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND event_id = ?", booking.UserID, booking.EventID).
			Order("id").
			Find(&peers).
			Error; err != nil {
			return err
		}

		var confirmed int64
		current := booking
		for _, peer := range peers {
			if peer.ID == booking.ID {
				current = peer
			}
			if peer.PaymentStatus == types.PAYMENT_COMPLETED {
				confirmed += peer.TicketQuantity
			}
		}

		if current.PaymentStatus == types.PAYMENT_COMPLETED {
			// Client retry of an already-verified callback: report the
			// tickets issued the first time, issue nothing.
			var tickets []models.Ticket
			if err := tx.
				Where(&models.Ticket{BookingID: current.ID}).
				Find(&tickets).
				Error; err != nil {
				return err
			}
			resp = buildVerifyResponse(&current, tickets)
			return nil
		}
		if current.PaymentStatus != types.PAYMENT_PENDING {
			return ErrAlreadyProcessed
		}

		// The payment succeeded, but completing this booking would push
		// the user over the cap. Mark it failed and flag it for a manual
		// refund rather than over-issue.
		if confirmed+current.TicketQuantity > config.TICKET_QUOTA_CAP {
			if err := tx.
				Model(&models.Booking{}).
				Where("id = ? AND payment_status = ?", current.ID, types.PAYMENT_PENDING).
				Updates(map[string]any{
					"payment_status": types.PAYMENT_FAILED,
					"metadata": types.JSONB{
						"refund_required":    true,
						"reason":             "quota_exceeded_at_completion",
						"gateway_payment_id": body.GatewayPaymentID,
					},
				}).
				Error; err != nil {
				return err
			}
			log.Printf("Booking %s rejected at completion: quota exceeded (confirmed=%d), flagged for refund\n", current.BookingID, confirmed)
			quotaErr = &QuotaExceededError{Current: confirmed, Requested: current.TicketQuantity}
			return nil
		}

		res := tx.
			Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", current.ID, types.PAYMENT_PENDING).
			Updates(map[string]any{
				"gateway_payment_id": body.GatewayPaymentID,
				"payment_status":     types.PAYMENT_COMPLETED,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrAlreadyProcessed
		}

		tickets, err := issueTickets(tx, &current)
		if err != nil {
			return err
		}
		resp = buildVerifyResponse(&current, tickets)
		issuedBooking = &current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if quotaErr != nil {
		return nil, quotaErr
	}

	go invalidateTicketCache(uid)
	if issuedBooking != nil {
		ids := make([]string, len(resp.Tickets))
		for i, t := range resp.Tickets {
			ids[i] = t.TicketID
		}
		go func(booking models.Booking, ids []string) {
			if err := lib.SendTicketsIssuedMail(booking.AttendeeEmail, booking.AttendeeName, booking.EventName, ids); err != nil {
				log.Printf("Could not send confirmation mail for booking %s: %s\n", booking.BookingID, err.Error())
			}
		}(*issuedBooking, ids)
	}

	return resp, nil
}

// issueTickets creates one ticket row per paid unit. Caller provides the
// transaction; issuance never runs outside one.
func issueTickets(tx *gorm.DB, booking *models.Booking) ([]models.Ticket, error) {
	tickets := make([]models.Ticket, 0, booking.TicketQuantity)
	var uid string
	if err := tx.
		Model(&models.User{}).
		Where("id = ?", booking.UserID).
		Select("uid").
		Scan(&uid).
		Error; err != nil {
		return nil, err
	}
	for i := int64(0); i < booking.TicketQuantity; i++ {
		ticketId := utils.GenerateTicketID()
		token := utils.EncodeRedemptionToken(utils.RedemptionPayload{
			TicketID:  ticketId,
			BookingID: booking.BookingID,
			EventID:   booking.EventID,
			UserUID:   uid,
		})
		ticket := models.Ticket{
			TicketID:        ticketId,
			BookingID:       booking.ID,
			EventID:         booking.EventID,
			UserID:          booking.UserID,
			AttendeeName:    booking.AttendeeName,
			RedemptionToken: token,
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func buildVerifyResponse(booking *models.Booking, tickets []models.Ticket) *types.VerifyPaymentResponse {
	issued := make([]types.IssuedTicket, len(tickets))
	for i, t := range tickets {
		issued[i] = types.IssuedTicket{
			TicketID:          t.TicketID,
			RedemptionPayload: t.RedemptionToken,
		}
	}
	return &types.VerifyPaymentResponse{
		BookingID: booking.BookingID,
		Tickets:   issued,
	}
}

// RecoverMissingTickets re-issues tickets for completed bookings that have
// none. A crash between the completion update and issuance cannot happen
// inside one transaction, but an operator restoring rows or a partial
// migration can leave a paid booking stranded; the sweeper heals those.
func RecoverMissingTickets() {
	gdb := db.GetDb()
	var orphans []models.Booking
	if err := gdb.
		Where("payment_status = ? AND NOT EXISTS (SELECT 1 FROM tickets WHERE tickets.booking_id = bookings.id AND tickets.deleted_at IS NULL)", types.PAYMENT_COMPLETED).
		Limit(50).
		Find(&orphans).
		Error; err != nil {
		log.Printf("Error scanning for ticketless bookings: %s\n", err.Error())
		return
	}
	for _, orphan := range orphans {
		booking := orphan
		err := gdb.Transaction(func(tx *gorm.DB) error {
			var locked models.Booking
			if err := tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ? AND payment_status = ?", booking.ID, types.PAYMENT_COMPLETED).
				First(&locked).
				Error; err != nil {
				return err
			}
			var count int64
			if err := tx.
				Model(&models.Ticket{}).
				Where(&models.Ticket{BookingID: locked.ID}).
				Count(&count).
				Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}
			_, err := issueTickets(tx, &locked)
			return err
		})
		if err != nil {
			log.Printf("Error re-issuing tickets for booking %s: %s\n", booking.BookingID, err.Error())
			continue
		}
		log.Printf("Re-issued tickets for booking %s\n", booking.BookingID)
	}
}

func auditSignatureFailure(orderId string) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	ctx := context.Background()
	rd.Incr(ctx, "audit:signature_failures")
	rd.LPush(ctx, "audit:signature_failures:orders", fmt.Sprintf("%s@%s", orderId, time.Now().Format(time.RFC3339)))
	rd.LTrim(ctx, "audit:signature_failures:orders", 0, 999)
}

func invalidateTicketCache(uid string) {
	rd := lib.GetRedisClient()
	if rd == nil {
		return
	}
	rd.Del(context.Background(), fmt.Sprintf("mytickets:%s", uid))
}
