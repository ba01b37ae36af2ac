package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/app"
	"github.com/qs3c/members_server/internal/database"
	"github.com/qs3c/members_server/internal/pkg/queue"
	"github.com/qs3c/members_server/internal/worker"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Redis.Enabled() {
		log.Fatalf("Worker requires redis: set redis.host")
	}

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	defer rdb.Close()
	log.Println("Redis connected")

	notifications := queue.NewQueue(rdb, cfg.Queue.NotificationQueue)
	processor := worker.NewProcessor(notifications, app.Mailer(&cfg.Email), cfg.Queue.MaxAttempts, cfg.Lifecycle.NotifyTimeout)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	log.Printf("Worker started, max workers: %d", cfg.Queue.MaxWorkers)
	processor.Run(ctx, cfg.Queue.MaxWorkers)
	log.Println("Worker shutdown complete")
}
