package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rajarohan/foodiez/internal/config"
	"github.com/rajarohan/foodiez/internal/domain"
	"github.com/rajarohan/foodiez/internal/events"
	"github.com/rajarohan/foodiez/internal/httpx"
	"github.com/rajarohan/foodiez/internal/logger"
	"github.com/rajarohan/foodiez/internal/port"
	"github.com/rajarohan/foodiez/internal/redisx"
	"github.com/rajarohan/foodiez/internal/repository"
	"github.com/rajarohan/foodiez/internal/repository/memory"
	"github.com/rajarohan/foodiez/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.Load", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(os.Stderr, cfg.LogLevel, cfg.ServiceName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("foodiez stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

type stores struct {
	carts   port.CartRepository
	orders  port.OrderRepository
	catalog port.CatalogRepository
	tx      port.Transactor
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// a nil *IdempotencyCache must not end up inside the interface
	var cache port.IdempotencyCache
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("rdb.Ping: %w", err)
		}
		cache = redisx.NewIdempotencyCache(rdb)
		log.Info("idempotency cache enabled", slog.String("addr", cfg.RedisAddr))
	}

	publisher, closePublisher, err := openPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	pricing, err := domain.NewPricingEngine(cfg.TaxRate)
	if err != nil {
		return fmt.Errorf("domain.NewPricingEngine: %w", err)
	}

	numbers, err := domain.NewOrderNumberGenerator(cfg.OrderNumberPrefix, nil)
	if err != nil {
		return fmt.Errorf("domain.NewOrderNumberGenerator: %w", err)
	}

	clock := service.SystemClock{}

	carts := service.NewCartService(st.carts, st.catalog, pricing, clock, log)
	orders := service.NewOrderService(st.orders, publisher, clock, log)
	checkout := service.NewCheckoutCoordinator(service.CheckoutDeps{
		Carts:     st.carts,
		Catalog:   st.catalog,
		Orders:    st.orders,
		Tx:        st.tx,
		Cache:     cache,
		Publisher: publisher,
		Numbers:   numbers,
		Clock:     clock,
	}, service.CheckoutConfig{
		MaxAttempts:            cfg.CheckoutMaxAttempts,
		DefaultDeliveryMinutes: cfg.DefaultDeliveryMinutes,
		IdempotencyTTL:         cfg.IdempotencyTTL,
	}, log)

	handler := httpx.NewHandler(carts, orders, checkout, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("srv.ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}
	return nil
}

// openStore connects to Postgres when a DSN is configured and falls back to
// the in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("POSTGRES_DSN is empty, using in-memory store")

		s := memory.NewStore()
		return stores{
			carts:   s.Carts(),
			orders:  s.Orders(),
			catalog: s.Catalog(),
			tx:      s.Transactor(),
		}, func() {}, nil
	}

	pool, err := repository.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return stores{}, nil, fmt.Errorf("repository.Connect: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return stores{}, nil, fmt.Errorf("repository.Migrate: %w", err)
	}

	return stores{
		carts:   repository.NewCart(pool),
		orders:  repository.NewOrder(pool),
		catalog: repository.NewCatalog(pool),
		tx:      repository.NewTransactor(pool),
	}, pool.Close, nil
}

func openPublisher(ctx context.Context, cfg config.Config, log *slog.Logger) (port.EventPublisher, func(), error) {
	switch cfg.EventsBroker {
	case config.EventsBrokerKafka:
		p := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName, 1024, log)
		// requests still in flight during shutdown may publish; the loop stops on Close
		p.Start(context.WithoutCancel(ctx))
		log.Info("publishing order events to kafka", slog.String("topic", cfg.KafkaTopic))

		return p, func() {
			p.Close()
			p.WaitClosed()
		}, nil

	case config.EventsBrokerRabbitMQ:
		p, err := events.DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.ServiceName)
		if err != nil {
			return nil, nil, fmt.Errorf("events.DialRabbitMQ: %w", err)
		}
		log.Info("publishing order events to rabbitmq", slog.String("exchange", cfg.RabbitMQExchange))

		return p, p.Close, nil

	default:
		return events.Noop{}, func() {}, nil
	}
}
