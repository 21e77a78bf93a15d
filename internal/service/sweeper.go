package service

import (
	"context"
	"fmt"
	"time"

	"LeagueSettle/internal/config"
	"LeagueSettle/internal/repository"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Sweeper 定时补偿：结算投票已满但未结算的比赛，关闭到期的竞猜组
type Sweeper struct {
	store      *repository.Store
	settlement *SettlementService
	cfg        config.SettlementConfig
	logger     *logrus.Logger
	scheduler  gocron.Scheduler
	now        func() time.Time
}

func NewSweeper(store *repository.Store, settlement *SettlementService, cfg config.SettlementConfig, logger *logrus.Logger) (*Sweeper, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Sweeper{
		store:      store,
		settlement: settlement,
		cfg:        cfg,
		logger:     logger,
		scheduler:  sched,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start 注册任务并启动调度器
func (s *Sweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cfg.SweepCron, false),
		gocron.NewTask(func() {
			ctx := context.Background()
			if _, err := s.ClosePredictionWindows(ctx); err != nil {
				s.logger.WithError(err).Warn("close prediction windows")
			}
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.WithError(err).Warn("settlement sweep")
			}
		}),
		gocron.WithName("settlement-sweeper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register sweeper job: %w", err)
	}
	s.scheduler.Start()
	s.logger.WithField("cron", s.cfg.SweepCron).Info("settlement sweeper started")
	return nil
}

// SweepOnce 结算投票已满的比赛，返回本轮完成结算的数量
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	matches, err := s.store.Matches.ListVotingComplete(ctx, s.cfg.SweepLimit)
	if err != nil {
		return 0, fmt.Errorf("ListVotingComplete: %w", err)
	}
	settled := 0
	for _, m := range matches {
		status, err := s.settlement.Settle(ctx, m.ID)
		if err != nil {
			s.logger.WithError(err).WithField("match_id", m.ID).Warn("sweep settle")
			continue
		}
		if status == SettleDone {
			settled++
		}
	}
	if settled > 0 {
		s.logger.Infof("补偿结算：完成 %d 场比赛", settled)
	}
	return settled, nil
}

// ClosePredictionWindows 关闭已过截止时间的竞猜组
func (s *Sweeper) ClosePredictionWindows(ctx context.Context) (int64, error) {
	var closed int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Predictions.CloseExpiredGroups(ctx, s.now())
		closed = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("CloseExpiredGroups: %w", err)
	}
	if closed > 0 {
		s.logger.Infof("关闭到期竞猜组 %d 个", closed)
	}
	return closed, nil
}

// Shutdown 停止调度器，等待运行中的任务结束
func (s *Sweeper) Shutdown() error {
	return s.scheduler.Shutdown()
}
