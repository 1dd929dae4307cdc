package router

import (
	"time"

	"consumables/api"
	"consumables/config"
	_ "consumables/docs"
	"consumables/middleware"
	"consumables/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// 登录限流：每 IP 每分钟最多 10 次
const (
	loginMaxAttempts = 10
	loginWindow      = time.Minute
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		v1.POST("/auth/login", middleware.LoginRateLimit(loginMaxAttempts, loginWindow), authHandler.Login)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(), middleware.LoadCurrentUser())
		{
			authorized.GET("/auth/profile", authHandler.Profile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			catalogHandler := api.NewCatalogHandler()
			stockHandler := api.NewStockHandler()

			// 大类
			categories := authorized.Group("/categories")
			{
				categories.GET("", catalogHandler.ListCategories)
				categories.POST("", catalogHandler.CreateCategory)
				categories.GET("/:id", catalogHandler.GetCategory)
				categories.PUT("/:id", catalogHandler.RenameCategory)
				categories.DELETE("/:id", catalogHandler.DeleteCategory)
				categories.POST("/:id/subcategories", catalogHandler.CreateSubCategory)
				categories.POST("/:id/items", catalogHandler.CreateItem)
			}

			// 小类
			subcategories := authorized.Group("/subcategories")
			{
				subcategories.GET("/:id", catalogHandler.GetSubCategory)
				subcategories.PUT("/:id", catalogHandler.RenameSubCategory)
				subcategories.DELETE("/:id", catalogHandler.DeleteSubCategory)
			}

			// 物品
			items := authorized.Group("/items")
			{
				items.GET("/:id", catalogHandler.GetItem)
				items.PUT("/:id", catalogHandler.UpdateItem)
				items.DELETE("/:id", catalogHandler.DeleteItem)
				items.POST("/:id/take", stockHandler.Take)
				items.PUT("/:id/stock", stockHandler.SetStock)
			}

			// 库存
			stock := authorized.Group("/stock")
			{
				stock.GET("", stockHandler.Overview)
				stock.GET("/low", stockHandler.LowStock)
				stock.GET("/history", middleware.RequireAction(service.ActionViewStockHistory, "/stock"), stockHandler.History)
			}

			// 领取记录
			consumptionHandler := api.NewConsumptionHandler()
			consumptions := authorized.Group("/consumptions")
			{
				consumptions.GET("/today", consumptionHandler.Today)
				consumptions.GET("/export", consumptionHandler.Export)
				consumptions.DELETE("/:id", consumptionHandler.Reverse)
			}

			// 积分榜与个人主页
			leaderboardHandler := api.NewLeaderboardHandler(cfg)
			authorized.GET("/leaderboard", leaderboardHandler.Leaderboard)
			authorized.POST("/leaderboard/announce", leaderboardHandler.Announce)
			authorized.GET("/profile", leaderboardHandler.Profile)
			authorized.GET("/profile/:id", leaderboardHandler.Profile)

			// 员工管理（仅超级管理员）
			staffHandler := api.NewStaffHandler()
			staff := authorized.Group("/staff")
			staff.Use(middleware.SuperuserOnly("/"))
			{
				staff.GET("", staffHandler.List)
				staff.POST("", staffHandler.Create)
				staff.PUT("/:id", staffHandler.Update)
				staff.DELETE("/:id", staffHandler.Delete)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
