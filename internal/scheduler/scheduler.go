package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/warelog/skaner/internal/config"
	"github.com/warelog/skaner/pkg/clients/odoo"
)

// Scheduler runs the periodic backend connectivity heartbeat. It only reads
// the backend version endpoint and never touches session state or the
// history ledger.
type Scheduler struct {
	cron   *cron.Cron
	client odoo.Client
	cfg    config.HeartbeatConfig
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.HeartbeatConfig, client odoo.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:   cron.New(),
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Start registers the heartbeat and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting heartbeat", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.heartbeat); err != nil {
		s.logger.Error("failed to schedule heartbeat", zap.Error(err))
		return
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping heartbeat")
	s.cron.Stop()
}

func (s *Scheduler) heartbeat() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, err := s.client.Version(ctx)
	if err != nil {
		s.logger.Warn("backend unreachable", zap.Error(err))
		return
	}

	s.logger.Debug("backend reachable", zap.String("server_version", version))
}
