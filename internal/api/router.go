package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/api/handler"
	"github.com/qs3c/members_server/internal/api/middleware"
)

type Router struct {
	authHandler         *handler.AuthHandler
	memberHandler       *handler.MemberHandler
	subscriptionHandler *handler.SubscriptionHandler
	paymentHandler      *handler.PaymentHandler
	dashboardHandler    *handler.DashboardHandler
	exportHandler       *handler.ExportHandler
	members             middleware.MemberLookup
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	memberHandler *handler.MemberHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	paymentHandler *handler.PaymentHandler,
	dashboardHandler *handler.DashboardHandler,
	exportHandler *handler.ExportHandler,
	members middleware.MemberLookup,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		memberHandler:       memberHandler,
		subscriptionHandler: subscriptionHandler,
		paymentHandler:      paymentHandler,
		dashboardHandler:    dashboardHandler,
		exportHandler:       exportHandler,
		members:             members,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	auth := middleware.Auth(r.cfg.JWT.Secret, r.members)
	admin := middleware.RequireSuperAdmin()

	api := engine.Group("/api/v1")
	{
		// 公开接口 - 认证
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", r.authHandler.Register)
			authGroup.POST("/login", r.authHandler.Login)
			authGroup.GET("/me", auth, r.authHandler.Me)
		}

		// 公开接口 - 设置
		settings := api.Group("/settings")
		{
			settings.GET("/pricing", r.dashboardHandler.Pricing)
			settings.GET("/bank-accounts", r.dashboardHandler.BankAccounts)
		}

		// 支付回调由签名校验
		api.POST("/payments/webhook", r.paymentHandler.Webhook)

		authenticated := api.Group("")
		authenticated.Use(auth)
		{
			// 会员，静态路径需在 /:id 之前注册
			members := authenticated.Group("/members")
			{
				members.GET("", admin, r.memberHandler.List)
				members.POST("", admin, r.memberHandler.Create)
				members.GET("/expiring", admin, r.memberHandler.Expiring)
				members.GET("/duplicates", admin, r.memberHandler.Duplicates)
				members.POST("/merge", admin, r.memberHandler.Merge)
				members.GET("/:id", r.memberHandler.Get)
				members.PUT("/:id", r.memberHandler.Update)
				members.DELETE("/:id", admin, r.memberHandler.Delete)
				members.GET("/:id/history", r.memberHandler.History)
				members.GET("/:id/expiry", r.memberHandler.Expiry)
				members.POST("/:id/approve", admin, r.memberHandler.Approve)
				members.POST("/:id/deny", admin, r.memberHandler.Deny)
				members.PUT("/:id/role", admin, r.memberHandler.ChangeRole)
			}

			// 订阅
			subs := authenticated.Group("/subscriptions")
			{
				subs.GET("/member/:id", r.subscriptionHandler.ListForMember)
				subs.POST("", admin, r.subscriptionHandler.Issue)
				subs.POST("/sweep", admin, r.subscriptionHandler.Sweep)
				subs.PUT("/:id", admin, r.subscriptionHandler.Update)
				subs.POST("/member/:id/upgrade", admin, r.subscriptionHandler.Upgrade)
			}

			// 付款
			payments := authenticated.Group("/payments")
			{
				payments.GET("/member/:id", r.paymentHandler.ListForMember)
				payments.POST("", admin, r.paymentHandler.Record)
				payments.POST("/intent", r.paymentHandler.Intent)
			}

			// 管理后台
			dashboard := authenticated.Group("/dashboard", admin)
			{
				dashboard.GET("/stats", r.dashboardHandler.Stats)
				dashboard.GET("/charts", r.dashboardHandler.Charts)
			}

			// 导出
			export := authenticated.Group("/export")
			{
				export.GET("/member/:id/history", r.exportHandler.MemberHistory)
				export.GET("/members", admin, r.exportHandler.MembersReport)
			}
		}
	}

	return engine
}
