package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/domain/models"
	"github.com/mamadbah2/agrisms/internal/service/formatter"
	"github.com/mamadbah2/agrisms/internal/service/sms"
)

const digestWindow = 24 * time.Hour

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	messagingSvc sms.MessagingService
	cfg          config.ReportingConfig
	maxLength    int
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.Config, messagingSvc sms.MessagingService, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		messagingSvc: messagingSvc,
		cfg:          cfg.Reporting,
		maxLength:    cfg.Formatter.MaxLength,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.cfg.OperatorPhone == "" {
		s.logger.Warn("OPERATOR_PHONE missing, daily digest and balance alerts disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.DigestSchedule, s.sendDailyDigest); err != nil {
		return fmt.Errorf("schedule daily digest %q: %w", s.cfg.DigestSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.BalanceSchedule, s.checkBalance); err != nil {
		return fmt.Errorf("schedule balance check %q: %w", s.cfg.BalanceSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	if s.cfg.OperatorPhone == "" {
		return
	}
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyDigest() {
	s.logger.Info("generating daily digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	stats, err := s.messagingSvc.DeliveryStats(ctx, s.now().Add(-digestWindow))
	if errors.Is(err, sms.ErrStoreUnavailable) {
		s.logger.Info("daily digest skipped, no message store")
		return
	}
	if err != nil {
		s.logger.Error("failed to compute delivery stats", zap.Error(err))
		return
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.OperatorPhone,
		Message: digestMessage(stats, s.maxLength),
	}

	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
	} else {
		s.logger.Info("daily digest sent", zap.Int("inbound", stats.Inbound), zap.Int("reports", stats.Total))
	}
}

func (s *Scheduler) checkBalance() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	balance, err := s.messagingSvc.Balance(ctx)
	if err != nil {
		s.logger.Error("failed to fetch sms balance", zap.Error(err))
		return
	}

	if balance.Amount >= s.cfg.BalanceThreshold {
		s.logger.Debug("sms balance ok", zap.String("balance", balance.Raw))
		return
	}

	s.logger.Warn("sms balance low", zap.String("balance", balance.Raw), zap.Float64("threshold", s.cfg.BalanceThreshold))

	req := models.OutboundMessageRequest{
		To:      s.cfg.OperatorPhone,
		Message: formatter.Truncate(fmt.Sprintf("SMS balance low: %s. Top up to keep farmer replies flowing.", balance.Raw), s.maxLength),
	}
	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send balance alert", zap.Error(err))
	}
}

func digestMessage(stats models.DeliveryStats, limit int) string {
	msg := fmt.Sprintf("Daily SMS: %d in, %d invalid. Delivery: %d ok, %d failed of %d.",
		stats.Inbound, stats.Invalid, stats.Delivered(), stats.Failed(), stats.Total)
	return formatter.Truncate(msg, limit)
}
