package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/qs3c/members_server/internal/model/dto"
)

// DefaultSchedule 每天 00:00（UTC）
const DefaultSchedule = "0 0 * * *"

// Sweeper 每日检查，由 LifecycleService 实现
type Sweeper interface {
	RunDailySweep(ctx context.Context) (*dto.SweepResponse, error)
}

type Service struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewService(sweeper Sweeper, schedule string) *Service {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		sweeper:  sweeper,
		schedule: schedule,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 注册并启动定时任务，表达式无效时返回错误
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Cron service started (daily sweep: %q)", s.schedule)
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Service) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Println("Cron service stopped")
}

// Next 下一次执行时间，未启动时为零值
func (s *Service) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Service) runSweep() {
	log.Println("Starting daily lifecycle sweep...")
	if _, err := s.sweeper.RunDailySweep(s.ctx); err != nil {
		log.Printf("Daily lifecycle sweep failed: %v", err)
	}
}

// RunNow 立即执行一次（手动触发）
func (s *Service) RunNow(ctx context.Context) (*dto.SweepResponse, error) {
	log.Println("Manual lifecycle sweep triggered...")
	return s.sweeper.RunDailySweep(ctx)
}
