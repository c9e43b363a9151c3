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

	"mechongo/internal/config"
	"mechongo/internal/handlers/customer"
	"mechongo/internal/handlers/mechanic"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/repositories/memory"
	"mechongo/internal/repositories/mongodb"
	"mechongo/internal/services"
	"mechongo/pkg/cache"
	"mechongo/pkg/database"
	"mechongo/pkg/logger"
	"mechongo/pkg/sms"
	"mechongo/pkg/websocket"
	"mechongo/routes"

	handlers "mechongo/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server stopped with error")
	}
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := openStore(ctx, cfg.Database, appLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
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
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
	}

	notifier, err := newOTPNotifier(ctx, cfg.SMS)
	if err != nil {
		return err
	}
	if notifier == nil {
		appLogger.Warn("No SMS provider configured, OTPs are only visible in the customer app")
	}

	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)

	var broadcaster services.Broadcaster = hub
	if redisCache != nil {
		relay := websocket.NewRedisRelay(redisCache, hub, cfg.Redis.LocationChannelPrefix, appLogger)
		broadcaster = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				appLogger.WithError(err).Error("Redis location relay stopped")
			}
		}()
	}

	location := cfg.App.Location()
	otpService := services.NewOTPService(store, notifier, cfg.Security.OTPExpiry, nil, appLogger)
	jobService := services.NewJobService(store, otpService, cfg.Lifecycle, nil, appLogger)
	dashboardService := services.NewDashboardService(store, otpService, cfg.Lifecycle, location, nil, appLogger)
	locationService := services.NewLocationService(store, broadcaster, nil, appLogger)
	billingService := services.NewBillingService(store, nil, appLogger)

	wsConfig := cfg.WebSocket
	sockets := websocket.NewHandler(hub, websocket.NewUpgrader(websocket.UpgraderConfig{
		ReadBufferSize:    wsConfig.ReadBufferSize,
		WriteBufferSize:   wsConfig.WriteBufferSize,
		HandshakeTimeout:  wsConfig.HandshakeTimeout,
		EnableCompression: wsConfig.EnableCompression,
		AllowedOrigins:    wsConfig.AllowedOrigins,
	}), websocket.Options{
		PingInterval:   wsConfig.PingInterval,
		PongTimeout:    wsConfig.PongTimeout,
		WriteTimeout:   wsConfig.WriteTimeout,
		MaxMessageSize: wsConfig.MaxMessageSize,
		SendBufferSize: wsConfig.SendBufferSize,
		MessageRate:    wsConfig.PublishRate,
		MessageBurst:   wsConfig.PublishBurst,
	}, appLogger)

	deps := &routes.Dependencies{
		Config:    cfg,
		Logger:    appLogger,
		Bookings:  customer.NewBookingHandler(jobService, dashboardService, otpService, cfg.Lifecycle.HistoryPageSize, appLogger),
		Billing:   customer.NewBillingHandler(billingService, appLogger),
		Jobs:      mechanic.NewJobHandler(jobService, dashboardService, otpService, appLogger),
		Tracking:  handlers.NewTrackingHandler(dashboardService, locationService, appLogger),
		Locations: handlers.NewLocationHandler(locationService, sockets, appLogger),
	}
	if redisCache != nil {
		deps.RateLimiter = redisCache
	}

	server := &http.Server{
		Addr:    cfg.App.Address(),
		Handler: routes.NewRouter(deps),
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.WithField("address", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig, appLogger *logger.Logger) (*interfaces.Store, func(), error) {
	if cfg.Driver == config.StoreDriverMemory {
		appLogger.Warn("Using the in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	db, err := database.ConnectMongo(ctx, database.MongoOptions{
		URI:            cfg.URI,
		Database:       cfg.Database,
		MaxPoolSize:    cfg.MaxPoolSize,
		MinPoolSize:    cfg.MinPoolSize,
		ConnectTimeout: cfg.ConnectTimeout,
		SocketTimeout:  cfg.SocketTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	closeDB := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			appLogger.WithError(err).Warn("Failed to disconnect mongodb")
		}
	}

	if cfg.RunMigrations {
		if err := database.NewMigrator(db.Database, appLogger).Up(ctx); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return mongodb.NewStore(db), closeDB, nil
}

// newOTPNotifier returns nil when no SMS provider is configured.
func newOTPNotifier(ctx context.Context, cfg *config.SMSConfig) (services.OTPNotifier, error) {
	switch cfg.Provider {
	case config.SMSProviderTwilio:
		return services.NewSMSOTPNotifier(sms.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)), nil
	case config.SMSProviderAWSSNS:
		sender, err := sms.NewSNSSender(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, cfg.DefaultFrom)
		if err != nil {
			return nil, fmt.Errorf("create aws sns sender: %w", err)
		}
		return services.NewSMSOTPNotifier(sender), nil
	default:
		return nil, nil
	}
}
