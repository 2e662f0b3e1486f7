package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"festpass/src/types"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// randomToken returns size bytes of entropy as uppercase base32.
func randomToken(size int) string {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken
		log.Fatalf("Could not read random bytes: %s\n", err.Error())
	}
	return b32.EncodeToString(buf)
}

// GenerateBookingID returns an opaque booking reference, e.g. NEXQM3K2V90SJA4F.
func GenerateBookingID() string {
	return "NEX" + randomToken(8)
}

// GenerateTicketID returns a ticket id with 64 bits of entropy, enough for
// collisions to stay negligible at any realistic issuance volume.
func GenerateTicketID() string {
	return "TKT" + randomToken(8)
}

// GenerateReceiptID builds the receipt reference passed to the gateway on
// order creation. The gateway caps receipts at 40 characters.
func GenerateReceiptID(eventName string) string {
	s := slug.Make(eventName)
	if len(s) > 20 {
		s = s[:20]
	}
	ref := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("bk_%s_%s", s, ref)
}

type RedemptionPayload struct {
	TicketID  string `json:"ticketId"`
	BookingID string `json:"bookingId"`
	EventID   uint   `json:"eventId"`
	UserUID   string `json:"userId"`
}

// EncodeRedemptionToken packs the ticket identity into the payload handed
// to the holder. It is reversible on purpose: scanning clients display it,
// the server never trusts it.
func EncodeRedemptionToken(p RedemptionPayload) string {
	raw, _ := json.Marshal(&p)
	return base64.StdEncoding.EncodeToString(raw)
}

func DecodeRedemptionToken(token string) (*RedemptionPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var p RedemptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ComputePaymentSignature returns the hex HMAC-SHA256 digest the gateway
// produces over "orderId|paymentId".
func ComputePaymentSignature(orderId string, paymentId string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderId + "|" + paymentId))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature recomputes the callback signature and compares it
// in constant time. The supplied digest must match byte for byte; the
// gateway always sends lowercase hex.
func VerifyPaymentSignature(orderId string, paymentId string, supplied string, secret string) bool {
	expected := ComputePaymentSignature(orderId, paymentId, secret)
	return hmac.Equal([]byte(expected), []byte(supplied))
}

// GenerateJWT mints an identity claim the way the provider does. Tests use
// it to exercise authenticated routes.
func GenerateJWT(secret []byte, uid string, email string, name string) (string, error) {
	claims := types.Claims{
		UID:   uid,
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
