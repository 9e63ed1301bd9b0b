// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/relicense/ledger-backend/internal/config"
	"github.com/relicense/ledger-backend/internal/handlers"
	"github.com/relicense/ledger-backend/internal/middleware"
	"github.com/relicense/ledger-backend/internal/services"
	"github.com/relicense/ledger-backend/internal/store"
	"github.com/relicense/ledger-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	recordStore := store.NewGormStore(db)
	eventService := services.NewEventService(db, logrus.StandardLogger())

	oracleService, err := services.NewOracleServiceFromConfig(cfg.Ledger)
	if err != nil {
		return nil, err
	}

	var treasury services.Treasury
	if cfg.Payment.StripeSecretKey != "" {
		treasury = services.NewStripeTreasury(cfg)
	} else {
		treasury = services.NewLocalTreasury()
	}

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	ledgerService := services.NewLedgerService(recordStore, eventService)
	requestService := services.NewRequestService(recordStore, eventService)
	settlementService := services.NewSettlementService(recordStore, oracleService, treasury, eventService, cfg.Ledger.FeeBps)

	// Initialize handlers
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, storageService)
	licenseHandler := handlers.NewLicenseHandler(requestService)
	settlementHandler := handlers.NewSettlementHandler(settlementService, eventService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

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
		// Asset routes
		assets := v1.Group("/assets")
		{
			assets.GET("/:id", ledgerHandler.GetAsset)
			assets.GET("/:id/supply", ledgerHandler.GetTotalSupply)

			protected := assets.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", ledgerHandler.Mint)
				protected.POST("/content", middleware.UploadRateLimit(), ledgerHandler.UploadContent)
			}
		}

		// Holder routes
		holders := v1.Group("/holders")
		holders.Use(middleware.AuthRequired())
		{
			holders.GET("/mine", ledgerHandler.GetMyHolders)
			holders.GET("/:id", ledgerHandler.GetHolder)
		}

		// Publish workflow routes
		requests := v1.Group("/requests")
		requests.Use(middleware.AuthRequired())
		{
			requests.POST("", licenseHandler.PublishRequest)
			requests.POST("/:id/approve", licenseHandler.ApproveRequest)
			requests.POST("/:id/cancel", licenseHandler.CancelRequest)
			requests.GET("/incoming", licenseHandler.GetIncomingRequests)
			requests.GET("/outgoing", licenseHandler.GetOutgoingRequests)
		}

		grants := v1.Group("/grants")
		grants.Use(middleware.AuthRequired())
		{
			grants.GET("/owned", licenseHandler.GetOwnedGrants)
			grants.GET("/reselling", licenseHandler.GetResellingGrants)
			grants.GET("/:id", licenseHandler.GetGrant)
			grants.POST("/:id/disapprove", licenseHandler.DisapproveGrant)
		}

		// Settlement routes
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired(), middleware.SettlementRateLimit())
		{
			purchases.POST("", settlementHandler.Buy)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired(), middleware.SettlementRateLimit())
		{
			payments.POST("/direct", settlementHandler.DirectPay)
		}

		// Event stream
		events := v1.Group("/events")
		events.Use(middleware.AuthRequired())
		{
			events.GET("", settlementHandler.GetEvents)
		}
	}

	return r, nil
}
