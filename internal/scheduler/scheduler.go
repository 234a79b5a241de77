package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallflock/coopkeeper/internal/config"
	"github.com/smallflock/coopkeeper/internal/domain/models"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	cfg    config.Config
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured
// timezone.
func NewScheduler(cfg config.Config, db *gorm.DB, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Digest.Timezone)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(location)),
		db:     db,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Start registers the daily digest job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Digest.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.Digest.CronSchedule, s.logDailyDigest)
	if err != nil {
		s.logger.Error("failed to schedule daily digest", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// logDailyDigest writes an operational snapshot into the log: eggs collected
// yesterday across all accounts and how many feed rows sit at or below the
// low-stock threshold.
func (s *Scheduler) logDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := dayStart.AddDate(0, 0, -1)

	var eggCount int64
	err := s.db.WithContext(ctx).Model(&models.EggEntry{}).
		Where("date >= ? AND date < ?", yesterday, dayStart).
		Select("COALESCE(SUM(count), 0)").
		Scan(&eggCount).Error
	if err != nil {
		s.logger.Error("failed summing egg entries for digest", zap.Error(err))
		return
	}

	var lowStock int64
	err = s.db.WithContext(ctx).Model(&models.FeedEntry{}).
		Where("depleted = ? AND quantity <= ?", false, s.cfg.Inventory.LowStockThreshold).
		Count(&lowStock).Error
	if err != nil {
		s.logger.Error("failed counting low stock feed for digest", zap.Error(err))
		return
	}

	s.logger.Info("daily digest",
		zap.Time("day", yesterday),
		zap.Int64("eggs_collected", eggCount),
		zap.Int64("low_stock_feed_entries", lowStock))
}
