package lib

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/wneessen/go-mail"
)

func GetSMTPClient() (*mail.Client, error) {
	host := os.Getenv("SMTP_HOST")
	portEnv := os.Getenv("SMTP_PORT")
	port, err := strconv.Atoi(portEnv)
	if err != nil {
		port = 587
	}
	user := os.Getenv("SMTP_USERNAME")
	pass := os.Getenv("SMTP_PASSWORD")
	c, err := mail.NewClient(host, mail.WithPort(port), mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(user), mail.WithPassword(pass))
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return c, nil
}

// SendTicketsIssuedMail delivers the confirmation mail after issuance.
// Best effort: a booking is never rolled back over a mail failure.
func SendTicketsIssuedMail(to string, attendee string, eventName string, ticketIds []string) error {
	if os.Getenv("SMTP_HOST") == "" {
		return nil
	}
	c, err := GetSMTPClient()
	if err != nil {
		return err
	}
	msg := mail.NewMsg()
	if err := msg.From(os.Getenv("SMTP_SENDER")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Your tickets for %s", eventName))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\nYour payment is confirmed. Ticket IDs:\n%s\n\nShow a ticket ID at the entrance to get in.\n",
		attendee,
		strings.Join(ticketIds, "\n"),
	))
	if err := c.DialAndSend(msg); err != nil {
		log.Printf("Error sending tickets mail to %s: %s\n", to, err.Error())
		return err
	}
	return nil
}
