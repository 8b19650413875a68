package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jsm-masala/storefront/internal/config"
	"github.com/jsm-masala/storefront/internal/handlers"
	"github.com/jsm-masala/storefront/internal/notify"
	"github.com/jsm-masala/storefront/internal/repository"
	"github.com/jsm-masala/storefront/internal/service"
	"github.com/jsm-masala/storefront/pkg/logger"
	"github.com/jsm-masala/storefront/pkg/messaging"
	"github.com/jsm-masala/storefront/pkg/shutdown"
)

const (
	queueName   = "storefront-notifications"
	consumerTag = "storefront-notifier"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Service: "notifier", Env: cfg.AppEnv, Level: cfg.LogLevel})
	log.Info("starting notifier", "mailer", cfg.Mailer.Kind, "queue", queueName)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	rabbitClient := messaging.NewRabbitMQClient(cfg.RabbitMQ, log)
	if err := rabbitClient.Connect(); err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer func() {
		if err := rabbitClient.Close(); err != nil {
			log.Warn("rabbitmq close error", "err", err)
		}
	}()

	notificationService := service.NewNotificationService(
		repository.NewNotificationRepository(db), newMailer(cfg.Mailer, log), log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, log)

	consumer := messaging.NewConsumer(rabbitClient, queueName, consumerTag, log)
	if err := notificationHandler.StartConsuming(ctx, consumer); err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "JSM Masala Notifier v1.0",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	handlers.RegisterNotifierRoutes(app, handlers.NewHealthHandler("notifier", db).WithBroker(rabbitClient.IsConnected), notificationHandler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("notifier listening", "port", cfg.Port)
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down notifier")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newMailer(cfg config.Mailer, log *slog.Logger) service.Mailer {
	if cfg.Kind == config.MailerSMTP {
		return notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		}, log)
	}
	return notify.NewLogMailer(log)
}
