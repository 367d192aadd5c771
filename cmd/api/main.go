package main

import (
	"log"

	_ "finbridge/api/swagger" // swagger docs
	"finbridge/internal/config"
	"finbridge/internal/database"
	"finbridge/internal/email"
	"finbridge/internal/filestore"
	"finbridge/internal/handler"
	"finbridge/internal/middleware"
	"finbridge/internal/observability"
	"finbridge/internal/repository"
	"finbridge/internal/service"
	"finbridge/internal/websocket"
	"finbridge/pkg/crypto"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           FinBridge Supply-Chain Finance API
// @version         1.0
// @description     Multi-role backend for supplier onboarding, banking verification, agreements, AP ingestion and early-payment offers.
// @host            localhost:8080
// @BasePath        /
func main() {
	cfg := config.Load()

	level := "info"
	if !cfg.IsProduction() {
		level = "debug"
	}
	logger := observability.NewLogger(level)
	defer func() { _ = logger.Sync() }()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	logger.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	cipher, err := crypto.NewFieldCipher(cfg.BankingEncryptionKey)
	if err != nil {
		log.Fatalf("Banking encryption key invalid: %v", err)
	}

	files := filestore.New(cfg.UploadRoot)
	metrics := observability.NewMetrics()
	mailer := email.NewMailer(cfg, logger, metrics.IncrEmailFailure)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	kycRepo := repository.NewKYCRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	bankingRepo := repository.NewBankingRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	apRepo := repository.NewAPRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	accessService := service.NewAccessService(userRepo, kycRepo, bankingRepo, agreementRepo, accessRepo, logger)
	authService := service.NewAuthService(userRepo, otpRepo, invitationRepo, mailer, logger, middleware.IssueToken)
	auditService := service.NewAuditService(auditRepo, logger)
	agreementService := service.NewAgreementService(agreementRepo, invitationRepo, userRepo, accessService, mailer, logger)
	kycService := service.NewKYCService(kycRepo, companyRepo, userRepo, invitationRepo, accessService, files, mailer, wsHub, logger)
	bankingService := service.NewBankingService(bankingRepo, kycRepo, userRepo, invitationRepo, accessService, agreementService, cipher, mailer, wsHub, logger)
	invitationService := service.NewInvitationService(invitationRepo, userRepo, agreementService, mailer, logger)
	apService := service.NewAPService(apRepo, userRepo, txManager, auditService, logger)
	offerService := service.NewOfferService(offerRepo, apRepo, logger)
	paymentService := service.NewPaymentService(offerRepo, bankingRepo, userRepo, cipher, auditService, logger)
	adminService := service.NewAdminService(userRepo, kycRepo, bankingRepo, offerRepo, auditService, logger)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, accessService)
	onboardingHandler := handler.NewOnboardingHandler(accessService)
	kycHandler := handler.NewKYCHandler(kycService)
	reviewHandler := handler.NewReviewHandler(kycService)
	bankingHandler := handler.NewBankingHandler(bankingService)
	agreementHandler := handler.NewAgreementHandler(agreementService)
	invitationHandler := handler.NewInvitationHandler(invitationService)
	buyerHandler := handler.NewBuyerHandler(apService)
	supplierHandler := handler.NewSupplierHandler(offerService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	adminHandler := handler.NewAdminHandler(adminService, auditService)

	// Set up Gin Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(metrics.GinMiddleware())
	router.Use(middleware.Identity())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "x-user-id", "x-user-role"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Prometheus metrics
	router.GET("/metrics", metrics.Handler())

	// WebSocket endpoint for admin review dashboards
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	onboardingHandler.RegisterRoutes(router.Group(""))
	kycHandler.RegisterRoutes(router.Group(""))
	reviewHandler.RegisterRoutes(router.Group(""))
	bankingHandler.RegisterRoutes(router.Group(""))
	agreementHandler.RegisterRoutes(router.Group(""))
	invitationHandler.RegisterRoutes(router.Group(""))
	buyerHandler.RegisterRoutes(router.Group(""))
	supplierHandler.RegisterRoutes(router.Group(""))
	paymentHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))

	logger.Info("server listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
