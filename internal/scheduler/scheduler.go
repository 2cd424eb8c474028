package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"DipSentinel/internal/notifier"
	"DipSentinel/internal/pipeline"
)

// Scheduler runs the daily pipeline on a cron schedule and pushes the run
// summary to the notifier when one is configured.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Notifier *notifier.TelegramNotifier
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. notifier may be nil; summaries are
// then only logged.
func NewScheduler(ctx context.Context, pl *pipeline.Pipeline, tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: pl,
		Notifier: tn,
		Ctx:      ctx,
	}
}

// Register registers the daily update task.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Println("[INFO] running daily update")
	summary, err := s.Pipeline.Run(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] pipeline run: %v", err)
	}

	report := notifier.FormatRunSummary(summary)
	if err != nil {
		report += fmt.Sprintf("\n❌ run aborted: %v", err)
	}
	s.trySend(report)
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
