package scheduler

import (
	"context"
	"time"

	"etf-trend-analyzer/internal/analyzer/config"
	"etf-trend-analyzer/internal/analyzer/service"
	"etf-trend-analyzer/pkg/logger"
	"etf-trend-analyzer/pkg/telegram"
	"etf-trend-analyzer/pkg/utils"

	"github.com/robfig/cron/v3"
)

const runTimeout = 2 * time.Minute

// Scheduler triggers periodic analysis runs and pushes the report to the
// default notification chat.
type Scheduler struct {
	cfg      *config.Config
	log      *logger.Logger
	analyzer service.MarketAnalyzerService
	notifier telegram.Notifier
	cron     *cron.Cron
}

// New creates a new Scheduler.
func New(cfg *config.Config, log *logger.Logger, analyzer service.MarketAnalyzerService, notifier telegram.Notifier) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		log:      log,
		analyzer: analyzer,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start registers the analysis job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Analyzer.CronSpec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Scheduler started", logger.StringField("cron_spec", s.cfg.Analyzer.CronSpec))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	// A job may still fire between shutdown and the cron loop draining.
	if !utils.ShouldContinue(ctx, s.log) {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	report, err := s.analyzer.Analyze(runCtx)
	if err != nil {
		s.log.Error("Scheduled analysis failed", logger.ErrorField(err))
		return
	}

	text := telegram.FormatMarketReport(report, s.cfg.Analyzer.ShortWindow, s.cfg.Analyzer.LongWindow)
	if err := s.notifier.SendMessage(text); err != nil {
		s.log.Error("Failed to deliver scheduled report", logger.ErrorField(err))
	}
}
