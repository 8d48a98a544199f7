package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Idanushka/CovidApts/internal/covidapts/config"
	"github.com/Idanushka/CovidApts/internal/covidapts/controller"
	"github.com/Idanushka/CovidApts/internal/covidapts/db"
	"github.com/Idanushka/CovidApts/internal/covidapts/events"
	"github.com/Idanushka/CovidApts/internal/covidapts/handlers"
	"github.com/Idanushka/CovidApts/internal/covidapts/locale"
	"github.com/Idanushka/CovidApts/internal/covidapts/photos"
	"go.uber.org/zap"
)

const dbConnectTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	seedPath := flag.String("seed", "", "optional YAML file with apartments and users to insert at startup")
	flag.Parse()

	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.ConnectWithRetry(cfg.Database(), dbConnectTimeout, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	if *seedPath != "" {
		if err := seedDatabase(repo, *seedPath); err != nil {
			logger.Fatal("failed to seed database", zap.Error(err))
		}
		logger.Info("database seeded", zap.String("path", *seedPath))
	}

	photoStore, err := photos.NewStore(cfg.ImageDir, cfg.ImageURLPrefix, logger)
	if err != nil {
		logger.Fatal("failed to initialize photo store", zap.Error(err))
	}

	producer := initProducer(cfg, logger)
	if p, ok := producer.(*events.Producer); ok {
		defer p.Close()
	}

	companySvc := controller.NewCompanyService(repo, photoStore, producer, logger)
	statisticsSvc := controller.NewStatisticsService(repo, locale.New(cfg.Locale), logger)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPGateway(
		cfg.JWTSecret,
		handlers.NewCompanyHandler(companySvc, logger),
		handlers.NewStatisticsHandler(statisticsSvc, logger),
		handlers.NewImageHandler(cfg.ImageDir, cfg.ImageURLPrefix),
	); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initProducer returns a Kafka producer, or a no-op one when no brokers are configured.
func initProducer(cfg *config.Config, logger *zap.Logger) controller.EventProducer {
	if len(cfg.KafkaBrokers) == 0 || cfg.Topic == "" {
		logger.Info("Kafka not configured, company events are discarded")
		return events.NopProducer{}
	}
	if err := events.EnsureTopic(cfg.KafkaBrokers, cfg.Topic, logger); err != nil {
		logger.Warn("Kafka broker unreachable, events are sent once it is up", zap.Error(err))
	}
	return events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
}

func seedDatabase(repo *db.Repository, path string) error {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}
	apartments, users := seed.Models()

	ctx, cancel := context.WithTimeout(context.Background(), dbConnectTimeout)
	defer cancel()
	return repo.Seed(ctx, apartments, users)
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
