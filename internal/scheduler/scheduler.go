package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/messmaestro/maestro/internal/config"
	"github.com/messmaestro/maestro/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Publisher is the reporting operation the scheduler triggers.
type Publisher interface {
	Publish(ctx context.Context, unitIDs []string, startDate, endDate string) (models.ProcurementList, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	publisher Publisher
	cfg       config.ProcurementConfig
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ProcurementConfig, publisher Publisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		publisher: publisher,
		cfg:       cfg,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the procurement job and starts the scheduler. Nothing is
// scheduled when no standing units are configured.
func (s *Scheduler) Start() error {
	if len(s.cfg.UnitIDs) == 0 {
		s.logger.Warn("no standing units configured, scheduled procurement disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.publishNextWeek); err != nil {
		return fmt.Errorf("schedule procurement run %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler",
		zap.String("schedule", s.cfg.CronSchedule),
		zap.Strings("units", s.cfg.UnitIDs))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) publishNextWeek() {
	start, end := Window(s.now().In(s.location), s.cfg.HorizonDays)
	s.logger.Info("generating scheduled procurement list", zap.String("start", start), zap.String("end", end))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	list, err := s.publisher.Publish(ctx, s.cfg.UnitIDs, start, end)
	if err != nil {
		s.logger.Error("failed to publish scheduled procurement list", zap.Error(err))
		return
	}

	s.logger.Info("scheduled procurement list published", zap.String("list_id", list.ID))
}

// Window returns the range covered by a scheduled run: horizonDays days
// starting on the Monday after now.
func Window(now time.Time, horizonDays int) (string, string) {
	daysUntilMonday := (8 - int(now.Weekday())) % 7
	if daysUntilMonday == 0 {
		daysUntilMonday = 7
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, daysUntilMonday)
	end := start.AddDate(0, 0, horizonDays-1)
	return start.Format(dateLayout), end.Format(dateLayout)
}
