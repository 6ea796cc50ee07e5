package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const deliveryBatchSize = 100

// StartDeliveryWorker runs the notification queue on a fixed interval.
// The returned scheduler should be shut down on process exit.
func (s *NotificationService) StartDeliveryWorker(interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			report, err := s.ProcessQueue(ctx, deliveryBatchSize)
			if err != nil {
				logError("notification queue run failed", "err", err)
				return
			}
			if report.Processed > 0 {
				logInfo("notification queue run",
					"processed", report.Processed,
					"delivered", report.Delivered,
					"failed", report.Failed)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
