package app

import (
	"log"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/database"
	"github.com/qs3c/members_server/internal/pkg/email"
	"github.com/qs3c/members_server/internal/pkg/lock"
	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/pkg/oss"
	"github.com/qs3c/members_server/internal/pkg/payment"
	"github.com/qs3c/members_server/internal/pkg/queue"
	"github.com/qs3c/members_server/internal/repository"
	"github.com/qs3c/members_server/internal/service"
)

// App 进程共用的依赖，server 和 memberctl 都从这里取服务
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	Notifier notify.Notifier

	Audit        *service.AuditService
	Lifecycle    *service.LifecycleService
	Duplicates   *service.DuplicateService
	Members      *service.MemberService
	Auth         *service.AuthService
	Payments     *service.PaymentService
	Dashboard    *service.DashboardService
	Export       *service.ExportService
}

// New 连接数据库和可选的 redis，按配置组装所有服务
func New(cfg *config.Config) (*App, error) {
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Printf("Database connected (%s)", cfg.Database.Driver)

	a := &App{Config: cfg, DB: db}

	if cfg.Redis.Enabled() {
		rdb, err := database.NewRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.Redis = rdb
		log.Println("Redis connected")
	}

	a.Notifier = a.notifier()
	dispatcher := notify.NewDispatcher(a.Notifier, cfg.Lifecycle.NotifyTimeout)

	tx := repository.NewTransaction(db)
	memberRepo := repository.NewMemberRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	a.Audit = service.NewAuditService(historyRepo)
	a.Lifecycle = service.NewLifecycleService(tx, memberRepo, subRepo, paymentRepo, a.Audit, dispatcher, cfg.Lifecycle)
	if a.Redis != nil {
		a.Lifecycle.WithLocker(lock.NewRedisLocker(a.Redis))
	}
	a.Duplicates = service.NewDuplicateService(tx, memberRepo, subRepo, paymentRepo, historyRepo, a.Audit)
	a.Members = service.NewMemberService(tx, memberRepo, a.Audit, dispatcher)
	a.Auth = service.NewAuthService(tx, memberRepo, paymentRepo, dispatcher, cfg)
	a.Payments = service.NewPaymentService(tx, memberRepo, paymentRepo, a.Audit, payment.NewMidtrans(&cfg.Payment))
	a.Dashboard = service.NewDashboardService(memberRepo, subRepo, paymentRepo, cfg.Membership)
	a.Export = service.NewExportService(memberRepo, paymentRepo, a.Audit, a.archiver())

	return a, nil
}

// Mailer SMTP 发送，外面包一层熔断
func Mailer(cfg *config.EmailConfig) notify.Notifier {
	mailer := email.NewService(cfg)
	if !mailer.Configured() {
		log.Println("Warning: SMTP not configured, notifications will only be logged")
	}
	return notify.NewBreaker("smtp", mailer, notify.DefaultBreakerConfig())
}

// notifier 有 redis 时写队列交给 worker，否则直接发邮件
func (a *App) notifier() notify.Notifier {
	if a.Redis != nil {
		return notify.NewQueueNotifier(queue.NewQueue(a.Redis, a.Config.Queue.NotificationQueue))
	}
	return Mailer(&a.Config.Email)
}

// archiver 未配置 OSS 时返回 nil，报表直接下载
func (a *App) archiver() service.Archiver {
	if !a.Config.OSS.Enabled() {
		return nil
	}
	client, err := oss.NewClient(&a.Config.OSS)
	if err != nil {
		log.Printf("Warning: Failed to init OSS client: %v", err)
		return nil
	}
	log.Println("OSS client initialized")
	return client
}

// Close 释放连接
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
