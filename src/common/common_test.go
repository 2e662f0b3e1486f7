package common

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"festpass/src/db"
	"festpass/src/lib"
	"festpass/src/types"
	"festpass/src/utils"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	db.NewDB(gormDB)
	return mock
}

func bookingRow(status types.PaymentStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "booking_id", "user_id", "event_id", "event_name",
		"attendee_name", "attendee_email", "attendee_phone",
		"ticket_quantity", "unit_price", "platform_fee", "total_amount",
		"gateway_order_id", "payment_status",
	}).AddRow(
		7, "NEXQM3K2V90SJA4F", 1, 3, "Nexus Fest 2026",
		"Test Attendee", "attendee@example.com", "9999999999",
		2, 500, 1, 1001,
		"order_ABC123", status,
	)
}

func TestComputeTotalAmount(t *testing.T) {
	assert.Equal(t, int64(1001), ComputeTotalAmount(2, 500))
	assert.Equal(t, int64(501), ComputeTotalAmount(1, 500))
	assert.Equal(t, int64(1), ComputeTotalAmount(0, 500))
}

func TestCheckTicketQuotaRejectsOversizedRequest(t *testing.T) {
	mock := newMockDB(t)

	err := CheckTicketQuota(db.GetDb(), 1, 3, 3)
	var quotaErr *QuotaExceededError
	assert.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, int64(3), quotaErr.Requested)

	assert.Nil(t, mock.ExpectationsWereMet(), "oversized request must be rejected before touching the database")
}

func TestCheckTicketQuotaCountsConfirmedBookings(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(ticket_quantity\), 0\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	err := CheckTicketQuota(db.GetDb(), 1, 3, 1)
	var quotaErr *QuotaExceededError
	assert.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, int64(2), quotaErr.Current)
	assert.Equal(t, int64(1), quotaErr.Requested)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckTicketQuotaAllowsWithinCap(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(ticket_quantity\), 0\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))

	assert.Nil(t, CheckTicketQuota(db.GetDb(), 1, 3, 1))
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejectsInvalidSignature(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_SECRET", "gateway-secret")

	resp, err := VerifyPaymentAndIssue(1, "user-1", &types.VerifyPaymentRequestBody{
		GatewayOrderID:   "order_ABC123",
		GatewayPaymentID: "pay_XYZ789",
		Signature:        "deadbeef",
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, mock.ExpectationsWereMet(), "rejected callbacks must not touch the database")
}

func TestVerifyPaymentCompletesBookingAndIssuesTickets(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_SECRET", "gateway-secret")
	sig := utils.ComputePaymentSignature("order_ABC123", "pay_XYZ789", "gateway-secret")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
		WillReturnRows(bookingRow(types.PAYMENT_PENDING))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE user_id = (.+) AND event_id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(types.PAYMENT_PENDING))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT uid FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow("user-1"))
	mock.ExpectQuery(`INSERT INTO "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectQuery(`INSERT INTO "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(102))
	mock.ExpectCommit()

	resp, err := VerifyPaymentAndIssue(1, "user-1", &types.VerifyPaymentRequestBody{
		GatewayOrderID:   "order_ABC123",
		GatewayPaymentID: "pay_XYZ789",
		Signature:        sig,
	})
	assert.Nil(t, err)
	assert.Equal(t, "NEXQM3K2V90SJA4F", resp.BookingID)
	assert.Equal(t, 2, len(resp.Tickets))
	for _, ticket := range resp.Tickets {
		payload, err := utils.DecodeRedemptionToken(ticket.RedemptionPayload)
		assert.Nil(t, err)
		assert.Equal(t, ticket.TicketID, payload.TicketID)
		assert.Equal(t, "NEXQM3K2V90SJA4F", payload.BookingID)
		assert.Equal(t, uint(3), payload.EventID)
		assert.Equal(t, "user-1", payload.UserUID)
	}
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRetryReturnsExistingTickets(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_SECRET", "gateway-secret")
	sig := utils.ComputePaymentSignature("order_ABC123", "pay_XYZ789", "gateway-secret")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
		WillReturnRows(bookingRow(types.PAYMENT_COMPLETED))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE user_id = (.+) AND event_id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(types.PAYMENT_COMPLETED))
	mock.ExpectQuery(`SELECT \* FROM "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "booking_id", "redemption_token"}).
			AddRow(101, "TKTAAAAAAAAAAAAA", 7, "token-a").
			AddRow(102, "TKTBBBBBBBBBBBBB", 7, "token-b"))
	mock.ExpectCommit()

	resp, err := VerifyPaymentAndIssue(1, "user-1", &types.VerifyPaymentRequestBody{
		GatewayOrderID:   "order_ABC123",
		GatewayPaymentID: "pay_XYZ789",
		Signature:        sig,
	})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(resp.Tickets))
	assert.Equal(t, "TKTAAAAAAAAAAAAA", resp.Tickets[0].TicketID)
	assert.Equal(t, "TKTBBBBBBBBBBBBB", resp.Tickets[1].TicketID)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentFailsBookingWhenQuotaExceededAtCompletion(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_SECRET", "gateway-secret")
	sig := utils.ComputePaymentSignature("order_ABC123", "pay_XYZ789", "gateway-secret")

	peerColumns := []string{"id", "booking_id", "user_id", "event_id", "ticket_quantity", "gateway_order_id", "payment_status"}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
		WillReturnRows(sqlmock.NewRows(peerColumns).
			AddRow(7, "NEXQM3K2V90SJA4F", 1, 3, 1, "order_ABC123", types.PAYMENT_PENDING))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE user_id = (.+) AND event_id = (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(peerColumns).
			AddRow(5, "NEXOLDERBOOKING1", 1, 3, 2, "order_OLD999", types.PAYMENT_COMPLETED).
			AddRow(7, "NEXQM3K2V90SJA4F", 1, 3, 1, "order_ABC123", types.PAYMENT_PENDING))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := VerifyPaymentAndIssue(1, "user-1", &types.VerifyPaymentRequestBody{
		GatewayOrderID:   "order_ABC123",
		GatewayPaymentID: "pay_XYZ789",
		Signature:        sig,
	})
	assert.Nil(t, resp)
	var quotaErr *QuotaExceededError
	assert.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, int64(2), quotaErr.Current)
	assert.Equal(t, int64(1), quotaErr.Requested)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentRejectsFailedBooking(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_SECRET", "gateway-secret")
	sig := utils.ComputePaymentSignature("order_ABC123", "pay_XYZ789", "gateway-secret")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
		WillReturnRows(bookingRow(types.PAYMENT_FAILED))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE user_id = (.+) AND event_id = (.+) FOR UPDATE`).
		WillReturnRows(bookingRow(types.PAYMENT_FAILED))
	mock.ExpectRollback()

	resp, err := VerifyPaymentAndIssue(1, "user-1", &types.VerifyPaymentRequestBody{
		GatewayOrderID:   "order_ABC123",
		GatewayPaymentID: "pay_XYZ789",
		Signature:        sig,
	})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrAlreadyProcessed, "a failed booking never completes, no matter how often the callback is replayed")
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_SECRET", "gateway-secret")
	sig := utils.ComputePaymentSignature("order_NOPE", "pay_XYZ789", "gateway-secret")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := VerifyPaymentAndIssue(1, "user-1", &types.VerifyPaymentRequestBody{
		GatewayOrderID:   "order_NOPE",
		GatewayPaymentID: "pay_XYZ789",
		Signature:        sig,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedeemTicketMarksUsedOnce(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec(`UPDATE "tickets" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "attendee_name", "used_at", "scanned_by"}).
			AddRow(101, "TKTAAAAAAAAAAAAA", "Test Attendee", time.Now(), "gate-2"))

	ticket, err := RedeemTicket("TKTAAAAAAAAAAAAA", nil, "gate-2")
	assert.Nil(t, err)
	assert.NotNil(t, ticket.UsedAt)
	assert.Equal(t, "gate-2", *ticket.ScannedBy)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedeemTicketAlreadyUsed(t *testing.T) {
	mock := newMockDB(t)
	firstUse := time.Date(2026, 8, 27, 18, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "tickets" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ticket_id", "attendee_name", "used_at", "scanned_by"}).
			AddRow(101, "TKTAAAAAAAAAAAAA", "Test Attendee", firstUse, "gate-1"))

	_, err := RedeemTicket("TKTAAAAAAAAAAAAA", nil, "gate-2")
	var usedErr *AlreadyUsedError
	assert.True(t, errors.As(err, &usedErr))
	assert.Equal(t, firstUse, usedErr.UsedAt)
	assert.Equal(t, "gate-1", *usedErr.ScannedBy)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedeemTicketNotFound(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec(`UPDATE "tickets" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "tickets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := RedeemTicket("TKTMISSING000000", nil, "")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateBookingOrderUsesGatewayOrder(t *testing.T) {
	mock := newMockDB(t)
	os.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")

	orig := lib.CreateGatewayOrder
	lib.CreateGatewayOrder = func(amount int64, currency, receipt string, notes map[string]any) (string, error) {
		assert.Equal(t, int64(100100), amount, "2 x 500 + 1 fee, in minor units")
		assert.Equal(t, "INR", currency)
		return "order_ABC123", nil
	}
	defer func() { lib.CreateGatewayOrder = orig }()

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).AddRow(3, "Nexus Fest 2026", types.EVENT_OPEN))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(ticket_quantity\), 0\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	resp, err := CreateBookingOrder(1, "user-1", &types.CreateOrderRequestBody{
		EventID:     3,
		EventName:   "Nexus Fest 2026",
		TicketQty:   2,
		TicketPrice: 500,
		Attendee: types.Attendee{
			Name:  "Test Attendee",
			Email: "attendee@example.com",
			Phone: "9999999999",
		},
	})
	assert.Nil(t, err)
	assert.Equal(t, "order_ABC123", resp.GatewayOrderID)
	assert.Equal(t, int64(100100), resp.Amount)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	assert.True(t, len(resp.BookingID) > 3)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCreateBookingOrderClosedEvent(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).AddRow(3, "Nexus Fest 2026", types.EVENT_CLOSED))

	_, err := CreateBookingOrder(1, "user-1", &types.CreateOrderRequestBody{
		EventID:     3,
		EventName:   "Nexus Fest 2026",
		TicketQty:   1,
		TicketPrice: 500,
		Attendee:    types.Attendee{Name: "Test Attendee", Email: "attendee@example.com", Phone: "9999999999"},
	})
	assert.ErrorIs(t, err, ErrEventNotOpen)
	assert.Nil(t, mock.ExpectationsWereMet())
}
