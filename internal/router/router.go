// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propshare/propshare-backend/internal/config"
	"github.com/propshare/propshare-backend/internal/handlers"
	"github.com/propshare/propshare-backend/internal/middleware"
	"github.com/propshare/propshare-backend/internal/services"
	"github.com/propshare/propshare-backend/internal/store"
	"github.com/propshare/propshare-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize stores and collaborators
	gormStore := store.NewGormStore(db)
	notificationService := services.NewNotificationService(db, cfg)
	ledgerService := services.NewLedgerService(db, cfg)
	creditService := services.NewCreditService(db, cfg)

	// Initialize services
	holdingsService := services.NewHoldingsService(gormStore, ledgerService)
	distributionService := services.NewDistributionService(gormStore, gormStore, creditService, notificationService, ledgerService, cfg)
	paymentService := services.NewPaymentService(gormStore, notificationService)
	pollService := services.NewPollService(gormStore, gormStore, cfg)
	voteService := services.NewVoteService(gormStore, gormStore, ledgerService, notificationService, cfg)

	// Initialize handlers
	holdingHandler := handlers.NewHoldingHandler(holdingsService)
	distributionHandler := handlers.NewDistributionHandler(distributionService, paymentService)
	pollHandler := handlers.NewPollHandler(pollService, voteService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Holdings routes
		properties := v1.Group("/properties")
		{
			properties.GET("/:id/holdings", middleware.OptionalAuth(), holdingHandler.ListHoldings)
			properties.GET("/:id/holdings/me", middleware.AuthRequired(), holdingHandler.GetMyHolding)
		}

		holdings := v1.Group("/holdings")
		holdings.Use(middleware.AuthRequired())
		{
			holdings.POST("/transfer", holdingHandler.Transfer)
		}

		// Distribution routes
		distributions := v1.Group("/distributions")
		distributions.Use(middleware.AuthRequired())
		{
			distributions.POST("", middleware.AdminRequired(), middleware.DistributionRateLimit(), distributionHandler.DistributeRevenue)
			distributions.POST("/:id/retry", middleware.AdminRequired(), distributionHandler.RetryFailed)
			distributions.GET("/:id", distributionHandler.GetDistribution)
			distributions.GET("/:id/payments", distributionHandler.ListPayments)
		}

		// Dividend payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.GET("/:id", distributionHandler.GetPayment)
			payments.POST("/:id/paid", middleware.AdminRequired(), distributionHandler.MarkPaymentPaid)
		}

		// Governance poll routes
		polls := v1.Group("/polls")
		{
			polls.GET("", middleware.OptionalAuth(), pollHandler.ListPolls)
			polls.GET("/:id", middleware.OptionalAuth(), pollHandler.GetPoll)
			polls.GET("/:id/votes", middleware.OptionalAuth(), pollHandler.ListVotes)

			// Authenticated routes
			protected := polls.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", pollHandler.CreatePoll)
				protected.POST("/:id/votes", middleware.VoteRateLimit(), pollHandler.CastVote)
				protected.POST("/expire", middleware.AdminRequired(), pollHandler.ExpirePolls)
			}
		}
	}

	return r
}
