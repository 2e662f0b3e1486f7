package lib

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

var scheduler gocron.Scheduler

func NewScheduler(s gocron.Scheduler) {
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	return sched, nil
}

// CreateRecurringJob schedules handler to run every duration, starting
// immediately.
func CreateRecurringJob(handler any, duration time.Duration, args ...any) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		return nil, err
	}
	job, err := sched.NewJob(
		gocron.DurationJob(duration),
		gocron.NewTask(handler, args...),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		log.Printf("Error creating job: %s\n", err.Error())
		return nil, err
	}
	id := job.ID().String()
	return &id, nil
}
