package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/api"
	"github.com/qs3c/members_server/internal/api/handler"
	"github.com/qs3c/members_server/internal/app"
	"github.com/qs3c/members_server/internal/database"
	"github.com/qs3c/members_server/internal/pkg/cron"
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

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if err := database.Migrate(a.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 每日检查
	scheduler := cron.NewService(a.Lifecycle, cfg.Lifecycle.SweepSchedule)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(a.Auth)
	memberHandler := handler.NewMemberHandler(a.Members, a.Lifecycle, a.Duplicates, cfg.Lifecycle.ExpiringWindowDays)
	subscriptionHandler := handler.NewSubscriptionHandler(a.Lifecycle)
	paymentHandler := handler.NewPaymentHandler(a.Payments)
	dashboardHandler := handler.NewDashboardHandler(a.Dashboard)
	exportHandler := handler.NewExportHandler(a.Export)

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		memberHandler,
		subscriptionHandler,
		paymentHandler,
		dashboardHandler,
		exportHandler,
		a.Auth,
		cfg,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 监听退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server shutdown complete")
}
