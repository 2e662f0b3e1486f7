package common

import (
	"errors"
	"log"
	"os"

	"festpass/src/config"
	"festpass/src/db"
	"festpass/src/lib"
	"festpass/src/models"
	"festpass/src/types"
	"festpass/src/utils"

	"gorm.io/gorm"
)

// ConfirmedTicketQuantity sums ticket_quantity over the user's completed
// bookings for one event. Pending bookings do not count; they only consume
// quota once paid.
func ConfirmedTicketQuantity(tx *gorm.DB, userId uint, eventId uint) (int64, error) {
	var total int64
	err := tx.
		Model(&models.Booking{}).
		Where(&models.Booking{UserID: userId, EventID: eventId, PaymentStatus: types.PAYMENT_COMPLETED}).
		Select("COALESCE(SUM(ticket_quantity), 0)").
		Scan(&total).
		Error
	return total, err
}

// CheckTicketQuota is the advisory pre-payment check. It bounds initiation
// of new pending bookings; the authoritative check runs again inside the
// completion transaction.
func CheckTicketQuota(tx *gorm.DB, userId uint, eventId uint, requested int64) error {
	if requested > config.TICKET_QUOTA_CAP {
		return &QuotaExceededError{Current: 0, Requested: requested}
	}
	current, err := ConfirmedTicketQuantity(tx, userId, eventId)
	if err != nil {
		return err
	}
	if current+requested > config.TICKET_QUOTA_CAP {
		return &QuotaExceededError{Current: current, Requested: requested}
	}
	return nil
}

// ComputeTotalAmount returns the order total in whole currency units.
func ComputeTotalAmount(qty int64, unitPrice int64) int64 {
	return qty*unitPrice + config.PLATFORM_FEE
}

// CreateBookingOrder runs the quota pre-check, registers an order with the
// gateway and persists the pending booking. All-or-nothing: no booking row
// exists without a gateway order id.
func CreateBookingOrder(userId uint, uid string, body *types.CreateOrderRequestBody) (*types.CreateOrderResponse, error) {
	gdb := db.GetDb()

	var event models.Event
	if err := gdb.
		Where(&models.Event{ID: body.EventID}).
		First(&event).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.Status != types.EVENT_OPEN {
		return nil, ErrEventNotOpen
	}

	if err := CheckTicketQuota(gdb, userId, body.EventID, body.TicketQty); err != nil {
		return nil, err
	}

	total := ComputeTotalAmount(body.TicketQty, body.TicketPrice)
	amount := total * config.MINOR_UNIT_FACTOR
	receipt := utils.GenerateReceiptID(body.EventName)
	orderId, err := lib.CreateGatewayOrder(amount, config.CURRENCY, receipt, map[string]any{
		"userId":    uid,
		"eventId":   body.EventID,
		"eventName": body.EventName,
	})
	if err != nil {
		log.Printf("Error creating gateway order for user %s: %s\n", uid, err.Error())
		return nil, &GatewayError{Err: err}
	}

	booking := models.Booking{
		BookingID:      utils.GenerateBookingID(),
		UserID:         userId,
		EventID:        body.EventID,
		EventName:      body.EventName,
		AttendeeName:   body.Attendee.Name,
		AttendeeEmail:  body.Attendee.Email,
		AttendeePhone:  body.Attendee.Phone,
		TicketQuantity: body.TicketQty,
		UnitPrice:      body.TicketPrice,
		PlatformFee:    config.PLATFORM_FEE,
		TotalAmount:    total,
		GatewayOrderID: orderId,
		PaymentStatus:  types.PAYMENT_PENDING,
	}
	if body.Attendee.College != "" {
		college := body.Attendee.College
		booking.AttendeeCollege = &college
	}
	if err := gdb.Create(&booking).Error; err != nil {
		log.Printf("Error persisting booking for order %s: %s\n", orderId, err.Error())
		return nil, err
	}

	return &types.CreateOrderResponse{
		BookingID:      booking.BookingID,
		GatewayOrderID: orderId,
		Amount:         amount,
		Currency:       config.CURRENCY,
		KeyID:          os.Getenv("RAZORPAY_KEY_ID"),
	}, nil
}
