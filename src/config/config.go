package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const (
	// TICKET_QUOTA_CAP is the maximum number of tickets a single user may
	// hold across completed bookings for one event.
	TICKET_QUOTA_CAP int64 = 2

	// PLATFORM_FEE is a fixed surcharge added to every order, in whole
	// currency units.
	PLATFORM_FEE int64 = 1

	CURRENCY = "INR"

	// MINOR_UNIT_FACTOR converts whole currency units to the minor units
	// the payment gateway bills in (rupees to paise).
	MINOR_UNIT_FACTOR int64 = 100
)
