package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"settlement-service/internal/config"
	"settlement-service/internal/fx"
	hrest "settlement-service/internal/handler/rest"
	"settlement-service/internal/provider/paypal"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
	"settlement-service/internal/router"
	"settlement-service/internal/service"
	"settlement-service/internal/usecase"
	"settlement-service/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := config.ConnectDB()
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	defer rdb.Close()

	if err := service.NewSchemaSeeder(dbpool).EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	// Repositories
	contributionRepo := repository.NewContributionRepo(dbpool)
	settlementRepo := repository.NewSettlementRepo(dbpool, contributionRepo)
	requestRepo := repository.NewRequestRepo(dbpool)
	notificationRepo := repository.NewNotificationRepo(dbpool)

	// Domain services
	converter := fx.NewConverter(fx.NewDefaultRateProvider())
	feeCalc := service.NewFeeCalculator(cfg.Fee, converter)
	gateway := paypal.NewPayPalProvider(cfg.PayPal)
	pub := publisher.NewSettlementEventPublisher(rdb)
	refGen := utils.NewReferenceGenerator()

	// Usecases
	settlementUC := usecase.NewSettlementUsecase(
		settlementRepo, contributionRepo, requestRepo, notificationRepo,
		gateway, feeCalc, pub, refGen, logger,
	)
	lifecycleUC := usecase.NewLifecycleUsecase(settlementRepo, pub, logger)
	reportUC := usecase.NewReportUsecase(settlementRepo, rdb, logger)

	h := hrest.NewSettlementRestHandler(
		settlementUC, lifecycleUC, reportUC,
		converter, fx.DefaultQuickAmountConfig(), fx.EnvLocaleProvider{},
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.SetupRoutes(h, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("settlement service listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
