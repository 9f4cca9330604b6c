// Package scheduler собирает и запускает приложение фоновых задач.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/admin7club/financial-manager/internal/config"
	"github.com/admin7club/financial-manager/internal/exchangerate"
	"github.com/admin7club/financial-manager/internal/lib/rabbitmq"
	recurrenceservice "github.com/admin7club/financial-manager/internal/services/recurrence"
	schedulerservice "github.com/admin7club/financial-manager/internal/services/scheduler"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	cfg              *config.Config
	conn             *amqp.Connection
	ch               *amqp.Channel
	db               *repository.Storage
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for i := 0; i < 10; i++ {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	recurrenceService := recurrenceservice.NewRecurrenceService(db, logger)
	ratesClient := exchangerate.NewClient(cfg.RatesAPIURL)
	schedulerService := schedulerservice.NewSchedulerService(recurrenceService, db, db, ratesClient, logger)

	return &App{
		schedulerService: schedulerService,
		cfg:              cfg,
		conn:             conn,
		ch:               ch,
		db:               db,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает фоновые задачи планировщика.
func (a *App) Run(ctx context.Context) error {
	go a.schedulerService.RunRecurrenceSweep(ctx, a.cfg.SweepInterval)
	go a.schedulerService.RunExpiringLicenseNotifier(ctx, a.ch, a.cfg.NotifyInterval)
	go a.schedulerService.RunRatesRefresh(ctx, a.cfg.RatesInterval)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}

	return nil
}
