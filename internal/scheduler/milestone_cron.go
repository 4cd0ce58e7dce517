package cron

import (
	"context"

	"github.com/gymbuddy/gymbuddy-backend/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartMilestoneCronJobs schedules the recurring gamification jobs.
func StartMilestoneCronJobs(notifier *jobs.ChallengeNotifier) {
	c := cron.New()

	// Challenge deadline reminders, every morning
	c.AddFunc("0 9 * * *", func() {
		if err := notifier.RunDailyScan(context.Background()); err != nil {
			logrus.WithError(err).Error("Challenge deadline scan failed")
		}
	})

	c.Start()
}
