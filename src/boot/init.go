package boot

import (
	"log"
	"time"

	"festpass/src/common"
	"festpass/src/db"
	"festpass/src/lib"
	"festpass/src/models"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Booking{},
		&models.Ticket{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitScheduler starts the issuance-recovery sweeper: completed bookings
// that somehow lost their tickets get them re-issued.
func InitScheduler() {
	if _, err := lib.CreateRecurringJob(common.RecoverMissingTickets, 5*time.Minute); err != nil {
		log.Printf("Could not schedule issuance recovery job: %s\n", err.Error())
		return
	}
	sched, err := lib.GetScheduler()
	if err != nil {
		return
	}
	sched.Start()
}
