package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
)

// sweepSchedule fires at every tenth minute (seconds-granularity spec).
const sweepSchedule = "0 */10 * * * *"

// Scheduler drives the periodic notification sweep.
type Scheduler struct {
	cron          *cron.Cron
	notifications services.NotificationService
	log           *logger.Logger
}

func New(notifications services.NotificationService, baseLog *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		notifications: notifications,
		log:           baseLog.With("component", "Scheduler"),
	}
}

func (s *Scheduler) Start() error {
	err := s.cron.AddFunc(sweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		fired, err := s.notifications.Sweep(ctx)
		if err != nil {
			s.log.Error("Notification sweep failed", "error", err)
			return
		}
		s.log.Info("Notification sweep tick", "fired", fired)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Scheduler started", "schedule", sweepSchedule)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("Scheduler stopped")
}
