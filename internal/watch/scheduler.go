package watch

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Scheduler emits Scheduled events on a cron schedule.
type Scheduler struct {
	scheduler gocron.Scheduler
	events    chan Event
	logger    *slog.Logger
}

// NewScheduler creates a scheduler for a five-field cron expression, or six
// fields when the first one is seconds. The expression is validated here.
func NewScheduler(expr string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	sch := &Scheduler{scheduler: s, events: make(chan Event, 1), logger: logger}
	withSeconds := len(strings.Fields(expr)) == 6
	if _, err := s.NewJob(
		gocron.CronJob(expr, withSeconds),
		gocron.NewTask(sch.fire),
		gocron.WithName("full-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("invalid rebuild schedule %q: %w", expr, err)
	}
	return sch, nil
}

// Events returns the scheduled event stream. It is closed by Stop.
func (s *Scheduler) Events() <-chan Event { return s.events }

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting rebuild scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and closes the event stream.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping rebuild scheduler")
	err := s.scheduler.Shutdown()
	close(s.events)
	return err
}

// fire queues one Scheduled event. If one is already waiting the tick is
// dropped: the queued rebuild covers it.
func (s *Scheduler) fire() {
	select {
	case s.events <- Event{Op: Scheduled}:
		s.logger.Debug("Scheduled rebuild queued")
	default:
		s.logger.Debug("Scheduled rebuild already pending", logfields.Op(Scheduled.String()))
	}
}
