package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/parking-service/internal/api/http"
	"github.com/spec-kit/parking-service/internal/api/http/handlers"
	"github.com/spec-kit/parking-service/internal/auth"
	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/events"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/persistence"
	"github.com/spec-kit/parking-service/internal/repository"
	"github.com/spec-kit/parking-service/internal/service"
	"github.com/spec-kit/parking-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	locker := persistence.NewLocker(redis, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	vehicleRepo := repository.NewVehicleRepository(pool)
	merchantRepo := repository.NewMerchantRepository(pool)
	spotRepo := repository.NewSpotRepository(pool)
	transactionRepo := repository.NewTransactionRepository(pool)
	codeRepo := repository.NewVerificationCodeRepository(pool)
	txManager := repository.NewTxManager(pool)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		VehicleRepo: vehicleRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	spotService := service.NewSpotService(spotRepo, merchantRepo, logger)
	balanceService := service.NewBalanceService(userRepo, logger)

	sessionService := service.NewSessionService(service.SessionDependencies{
		TransactionRepo: transactionRepo,
		VehicleRepo:     vehicleRepo,
		MerchantRepo:    merchantRepo,
		Spots:           spotService,
		Locker:          locker,
		Dispatcher:      dispatcher,
		EntryLockTTL:    time.Duration(cfg.Parking.EntryLockTTLSeconds) * time.Second,
		Logger:          logger,
	})

	verificationService := service.NewVerificationService(service.VerificationDependencies{
		CodeRepo:        codeRepo,
		TransactionRepo: transactionRepo,
		UserRepo:        userRepo,
		Dispatcher:      dispatcher,
		PaymentCodeTTL:  cfg.Verification.PaymentCodeTTL(),
		AccountCodeTTL:  cfg.Verification.AccountCodeTTL(),
		CodeLength:      cfg.Verification.CodeLength,
		Logger:          logger,
	})

	paymentService := service.NewPaymentService(service.PaymentDependencies{
		VehicleRepo:     vehicleRepo,
		MerchantRepo:    merchantRepo,
		TransactionRepo: transactionRepo,
		UserRepo:        userRepo,
		Spots:           spotService,
		Verification:    verificationService,
		Balances:        balanceService,
		TxManager:       txManager,
		Locker:          locker,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		PaymentLockTTL:  time.Duration(cfg.Parking.PaymentLockTTLSeconds) * time.Second,
		Logger:          logger,
	})

	sender := service.NewLogSender(logger, cfg.Notification.EmailFrom)
	notificationService := service.NewNotificationService(dispatcher, sender, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	usersHandler := handlers.NewUsersHandler(authService, balanceService)
	parkingHandler := handlers.NewParkingHandler(sessionService, paymentService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	adminHandler := handlers.NewAdminHandler(sessionService, spotService, balanceService, authService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Users:          usersHandler,
		Parking:        parkingHandler,
		Verification:   verificationHandler,
		Admin:          adminHandler,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
