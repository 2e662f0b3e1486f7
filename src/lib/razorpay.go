package lib

import (
	"errors"
	"os"

	razorpay "github.com/razorpay/razorpay-go"
)

var razorpayClient *razorpay.Client

func GetRazorpayClient() *razorpay.Client {
	if razorpayClient != nil {
		return razorpayClient
	}
	keyId := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	razorpayClient = razorpay.NewClient(keyId, keySecret)
	return razorpayClient
}

// NewRazorpayClient Replace gateway instance with custom client implementation
func NewRazorpayClient(c *razorpay.Client) *razorpay.Client {
	razorpayClient = c
	return razorpayClient
}

// CreateGatewayOrder registers an order with the gateway and returns its id.
// Amount is in minor currency units. Declared as a variable so tests can
// stub the gateway out.
var CreateGatewayOrder = func(amount int64, currency string, receipt string, notes map[string]any) (string, error) {
	client := GetRazorpayClient()
	data := map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	order, err := client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}
	orderId, ok := order["id"].(string)
	if !ok || orderId == "" {
		return "", errors.New("gateway order response is missing an id")
	}
	return orderId, nil
}
