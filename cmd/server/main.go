package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/repository/mongodb"
	"github.com/mamadbah2/agrisms/internal/repository/sheets"
	"github.com/mamadbah2/agrisms/internal/scheduler"
	"github.com/mamadbah2/agrisms/internal/server/handlers"
	"github.com/mamadbah2/agrisms/internal/server/router"
	commandsvc "github.com/mamadbah2/agrisms/internal/service/commands"
	"github.com/mamadbah2/agrisms/internal/service/formatter"
	"github.com/mamadbah2/agrisms/internal/service/parser"
	smssvc "github.com/mamadbah2/agrisms/internal/service/sms"
	"github.com/mamadbah2/agrisms/pkg/clients/advisory"
	"github.com/mamadbah2/agrisms/pkg/clients/africastalking"
	"github.com/mamadbah2/agrisms/pkg/clients/openmeteo"
	"github.com/mamadbah2/agrisms/pkg/logger"
)

const (
	serviceName    = "agrisms"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	checks := map[string]handlers.HealthCheck{}

	var store smssvc.Store
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
		checks["mongodb"] = mongoRepo.Ping
	} else {
		baseLogger.Warn("MONGODB_URI missing, message log and delivery stats disabled")
	}

	var audit smssvc.AuditLog
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		audit = sheets.NewMessageAudit(sheetsRepo)
	}

	weatherClient := openmeteo.NewClient(cfg.Weather, baseLogger.Named("client.openmeteo"))
	checks["weather_api"] = weatherClient.HealthCheck

	var advisoryProvider commandsvc.AdvisoryProvider
	if cfg.Advisory.BaseURL != "" {
		advisoryClient := advisory.NewClient(cfg.Advisory, baseLogger.Named("client.advisory"))
		advisoryProvider = advisoryClient
		checks["advisory_api"] = advisoryClient.HealthCheck
	} else {
		baseLogger.Warn("FLASK_BASE_URL missing, quote and planting replies disabled")
	}

	cmdParser := parser.New(parser.Options{
		AnchorKeywords: cfg.Parser.AnchorKeywords,
		BoundsPolicy:   cfg.Parser.BoundsPolicy,
		Region:         cfg.Parser.Region,
		DefaultCrop:    cfg.Parser.DefaultCrop,
		Crops:          cfg.Tables.Crops,
	})
	replyFormatter := formatter.New(formatter.Options{
		MaxLength:       cfg.Formatter.MaxLength,
		RainThresholdMM: cfg.Formatter.RainThresholdMM,
		ForecastDays:    cfg.Formatter.ForecastDays,
		Currencies:      cfg.Tables.Currencies,
	}, baseLogger.Named("svc.formatter"))
	commandDispatcher := commandsvc.NewService(weatherClient, advisoryProvider, replyFormatter, baseLogger.Named("svc.commands"))

	gateway := africastalking.NewClient(cfg.SMS, baseLogger.Named("client.africastalking"))
	messagingSvc := smssvc.NewService(cmdParser, commandDispatcher, gateway, store, audit, baseLogger.Named("svc.sms"))

	webhookHandler := handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.sms"))
	healthHandler := handlers.NewHealthHandler(serviceName, serviceVersion, checks)
	engine := router.New(webhookHandler, healthHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, messagingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("sms_environment", cfg.SMS.Environment),
			zap.String("bounds_policy", string(cfg.Parser.BoundsPolicy)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
