package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/seasonarr/internal/controllers"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler manages the recurring notification run
type Scheduler struct {
	cron       *cron.Cron
	notifyCtrl *controllers.NotifyController
	schedule   string
	logger     *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(notifyCtrl *controllers.NotifyController, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		notifyCtrl: notifyCtrl,
		schedule:   schedule,
		logger:     logger,
	}
}

// Start starts the scheduler. Runs only fire on schedule; a restart never
// triggers an immediate run, so nobody gets notified twice for the same
// seasons.
func (s *Scheduler) Start() error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runNotify()
	})
	if err != nil {
		return fmt.Errorf("failed to add notification job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runNotify executes the notification job
func (s *Scheduler) runNotify() {
	s.logger.Info("Running scheduled notification")

	if err := s.notifyCtrl.RunOnce(context.Background()); err != nil {
		if errors.Is(err, controllers.ErrRunInProgress) {
			s.logger.Warn("Skipping scheduled notification, a run is already in progress")
			return
		}
		s.logger.WithError(err).Error("Notification job failed")
		return
	}

	s.logger.Info("Notification job completed successfully")
}
