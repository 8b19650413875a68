package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jsm-masala/storefront/internal/config"
	"github.com/jsm-masala/storefront/internal/domain"
	"github.com/jsm-masala/storefront/internal/handlers"
	"github.com/jsm-masala/storefront/internal/notify"
	"github.com/jsm-masala/storefront/internal/repository"
	"github.com/jsm-masala/storefront/internal/service"
	"github.com/jsm-masala/storefront/pkg/logger"
	"github.com/jsm-masala/storefront/pkg/messaging"
	"github.com/jsm-masala/storefront/pkg/shutdown"
)

const (
	notifyWorkers = 2
	notifyBuffer  = 256
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})
	log.Info("starting storefront", "db_driver", cfg.Database.Driver, "notifier", cfg.Notifier, "sqlite_build", repository.BuildMode)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	version, err := repository.SchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	log.Info("database ready", "schema_version", version.String())

	notifier, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	// Checkout and status changes only enqueue; broker retries run on these workers.
	asyncNotifier := notify.NewAsyncNotifier(notifier, notifyWorkers, notifyBuffer, log)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := asyncNotifier.Close(drainCtx); err != nil {
			log.Warn("pending notifications dropped", "err", err)
		}
	}()

	numbers, err := domain.NewOrderNumberGenerator(cfg.OrderIDPrefix)
	if err != nil {
		return err
	}

	products := repository.NewProductRepository(db)
	carts := repository.NewCartRepository(db)
	orders := repository.NewOrderRepository(db)

	catalogService := service.NewCatalogService(products, log)
	cartService := service.NewCartService(carts, products, log)
	orderService := service.NewOrderService(orders, carts, products, asyncNotifier, numbers, cfg.StoreName, log)
	statsService := service.NewStatsService(orders, products, log)

	app := setupFiberApp(log)
	handlers.RegisterStorefrontRoutes(app, handlers.StorefrontHandlers{
		Health:   handlers.NewHealthHandler("storefront", db),
		Products: handlers.NewProductHandler(catalogService, log),
		Carts:    handlers.NewCartHandler(cartService, log),
		Orders:   handlers.NewOrderHandler(orderService, log),
		Admin:    handlers.NewAdminHandler(statsService, log),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront listening", "port", cfg.Port)
		errCh <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// newNotifier picks the notification hand-off. The returned close func
// releases the broker connection, if any.
func newNotifier(cfg config.Config, log *slog.Logger) (service.Notifier, func(), error) {
	if cfg.Notifier != config.NotifierQueue {
		return notify.NewLogNotifier(log), func() {}, nil
	}

	client := messaging.NewRabbitMQClient(cfg.RabbitMQ, log)
	if err := client.Connect(); err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("rabbitmq close error", "err", err)
		}
	}
	return notify.NewQueueNotifier(messaging.NewPublisher(client, log), log), closeFn, nil
}

func setupFiberApp(log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "JSM Masala Storefront v1.0",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID,X-User-ID,X-User-Role,X-User-Name,X-User-Email",
	}))

	return app
}
