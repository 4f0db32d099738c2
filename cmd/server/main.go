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

	"pawtraits/internal/config"
	"pawtraits/internal/handlers/admin"
	handlers "pawtraits/internal/handlers/shared"
	"pawtraits/internal/middleware"
	"pawtraits/internal/repositories/mongodb"
	"pawtraits/internal/services"
	"pawtraits/pkg/cache"
	"pawtraits/pkg/database"
	"pawtraits/pkg/email"
	"pawtraits/pkg/logger"
	"pawtraits/pkg/payment"
	"pawtraits/pkg/sms"
	"pawtraits/pkg/storage"
	"pawtraits/pkg/websocket"
	"pawtraits/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		Colors:     config.IsDevelopment(),
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:                cfg.Database.URI,
		Database:           cfg.Database.Database,
		MaxPoolSize:        cfg.Database.MaxPoolSize,
		MinPoolSize:        cfg.Database.MinPoolSize,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		SocketTimeout:      cfg.Database.SocketTimeout,
		TransactionTimeout: cfg.Database.TransactionTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		migrator := database.NewMigrator(db.Database, appLogger.Infof)
		if err := migrator.Up(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

	// Redis is optional. Without it caching is disabled, payout locks are process-local
	// and the live feed only reaches clients on this instance.
	var (
		redisCache   *cache.RedisCache
		cacheBackend services.CacheBackend
	)
	redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    cfg.Redis.KeyPrefix,
	})
	if err != nil {
		appLogger.WithError(err).Warn("Redis unavailable, running without cache")
		redisCache = nil
	} else {
		cacheBackend = redisCache
		defer redisCache.Close()
	}
	cacheService := services.NewCacheService(cacheBackend, appLogger, cfg.Referral.CodeCacheTTL)

	// Repositories
	partnerRepo := mongodb.NewPartnerRepository(db, redisCache)
	influencerRepo := mongodb.NewInfluencerRepository(db, redisCache)
	customerRepo := mongodb.NewCustomerRepository(db)
	codeRepo := mongodb.NewReferralCodeRepository(db)
	referralRepo := mongodb.NewReferralRepository(db)
	orderRepo := mongodb.NewOrderRepository(db)
	commissionRepo := mongodb.NewCommissionRepository(db)
	creditRepo := mongodb.NewCreditRepository(db)
	payoutRepo := mongodb.NewPayoutRepository(db)

	// Outbound channels
	smsProvider := newSMSProvider(ctx, cfg.SMS, appLogger)
	var mailer email.Sender
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
			SSL:       cfg.SMTP.SSL,
		})
	}
	reportStore, err := newStorageProvider(ctx, cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialise report storage")
	}

	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)

	// Services
	directory := services.NewOwnerDirectory(partnerRepo, influencerRepo, customerRepo)
	notifier := services.NewNotificationService(directory, smsProvider, mailer, hub, cacheService, services.NotificationConfig{
		SMSFrom:       cfg.SMS.DefaultFrom,
		Currency:      cfg.App.Currency,
		StoreURL:      cfg.App.StoreURL,
		RelayViaRedis: redisCache != nil,
	}, appLogger)
	if redisCache != nil {
		go func() {
			if err := notifier.RunLiveFeedRelay(ctx, redisCache); err != nil && !errors.Is(err, context.Canceled) {
				appLogger.WithError(err).Error("Live feed relay stopped")
			}
		}()
	}

	codeService := services.NewReferralCodeService(cfg, codeRepo, directory, cacheService, appLogger)
	attributionService := services.NewAttributionService(customerRepo, directory, cfg.Referral.MaxChainDepth, appLogger)
	calculator := services.NewCommissionCalculator(services.NewRateTable(cfg.Referral), appLogger)
	creditService := services.NewCreditService(creditRepo, db, appLogger)
	referralService := services.NewReferralService(cfg.Referral, customerRepo, referralRepo, codeService, attributionService, directory, notifier, appLogger)
	orderService := services.NewOrderService(orderRepo, customerRepo, commissionRepo, db, codeService, attributionService, calculator, creditService, referralService, notifier, cfg.App.Currency, appLogger)
	ownerService := services.NewOwnerService(partnerRepo, influencerRepo, codeService, appLogger)
	payoutProviders := newPayoutRegistry(cfg.Payment, appLogger)
	if redisCache == nil && payoutProviders.Len() > 0 {
		appLogger.Warn("Payouts enabled without Redis, payout locks only hold within this instance")
	}
	payoutService := services.NewPayoutService(payoutRepo, commissionRepo, db, directory, payoutProviders, cacheService, notifier, cfg.Payment.Currency, cfg.Referral.MinimumPayout, appLogger)
	reportService := services.NewReportService(referralRepo, commissionRepo, customerRepo, codeRepo, cacheService, reportStore, services.ReportConfig{
		StatsTTL:     cfg.Referral.StatsCacheTTL,
		ReportPrefix: cfg.Storage.ReportPrefix,
		URLExpiry:    cfg.Storage.URLExpiry,
		Currency:     cfg.App.Currency,
	}, appLogger)

	go expireStaleReferrals(ctx, referralService, reportService, time.Hour, appLogger)

	// HTTP
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute, cfg.Security.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{"mongodb": "ok", "redis": "disabled"}
		if err := db.Ping(pingCtx); err != nil {
			status = http.StatusServiceUnavailable
			checks["mongodb"] = err.Error()
		}
		if redisCache != nil {
			checks["redis"] = "ok"
			if err := redisCache.Ping(pingCtx); err != nil {
				checks["redis"] = err.Error()
			}
		}
		c.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": cfg.App.Version})
		})

		routes.SetupPublicRoutes(v1, handlers.NewReferralCodeHandler(codeService), limiter)
		routes.SetupReferralRoutes(v1, cfg.Security.JWTSecret,
			handlers.NewCustomerHandler(referralService, creditService),
			handlers.NewOrderHandler(orderService),
			handlers.NewReferralHandler(referralService, reportService),
		)
		routes.SetupAdminRoutes(v1, cfg.Security.JWTSecret, routes.AdminHandlers{
			Owners:      admin.NewOwnerHandler(ownerService),
			Codes:       admin.NewReferralCodeHandler(codeService),
			Commissions: admin.NewCommissionHandler(payoutService),
			Reports:     admin.NewReportHandler(reportService, referralService),
			Credits:     admin.NewCreditHandler(creditService),
			LiveFeed: websocket.NewHandler(hub, websocket.HandlerConfig{
				ReadBufferSize:    cfg.WebSocket.ReadBufferSize,
				WriteBufferSize:   cfg.WebSocket.WriteBufferSize,
				HandshakeTimeout:  cfg.WebSocket.HandshakeTimeout,
				PingInterval:      cfg.WebSocket.PingInterval,
				PongTimeout:       cfg.WebSocket.PongTimeout,
				MaxConnections:    cfg.WebSocket.MaxConnections,
				SendBufferSize:    cfg.WebSocket.SendBufferSize,
				EnableCompression: cfg.WebSocket.EnableCompression,
				AllowedOrigins:    cfg.WebSocket.AllowedOrigins,
			}),
		})
	}

	if cfg.Storage.Provider == "local" {
		router.Static("/reports", cfg.Storage.Local.BasePath)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
}

func newSMSProvider(ctx context.Context, cfg *config.SMSConfig, log *logger.Logger) sms.SMSProvider {
	switch cfg.Provider {
	case "twilio":
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	case "aws", "sns":
		provider, err := sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.DefaultFrom)
		if err != nil {
			log.WithError(err).Warn("SNS unavailable, SMS notifications disabled")
			return nil
		}
		return provider
	default:
		return nil
	}
}

func newStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "s3", "aws":
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.AWS.CDNDomain)
	case "gcs", "gcp":
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	default:
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
}

// newPayoutRegistry registers only the providers that have credentials configured.
func newPayoutRegistry(cfg *config.PaymentConfig, log *logger.Logger) *payment.Registry {
	var providers []payment.PayoutProvider
	if cfg.Stripe.SecretKey != "" {
		providers = append(providers, payment.NewStripeProvider(cfg.Stripe.SecretKey))
	}
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		providers = append(providers, payment.NewRazorpayProvider(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret))
	}
	if len(providers) == 0 {
		log.Warn("No payout provider configured, provider payouts will fail")
	}
	return payment.NewRegistry(cfg.DefaultProvider, providers...)
}

func expireStaleReferrals(ctx context.Context, referrals services.ReferralService, reports services.ReportService, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			expired, err := referrals.ExpireStale(ctx, now)
			if err != nil {
				log.WithError(err).Error("Failed to expire stale referrals")
				continue
			}
			if expired > 0 {
				reports.InvalidateStats(ctx)
			}
		}
	}
}
