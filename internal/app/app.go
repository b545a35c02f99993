package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"BakeryStore/config"
	"BakeryStore/internal/auth"
	"BakeryStore/internal/controller/rest"
	"BakeryStore/internal/controller/rest/handlers"
	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/internal/messaging"
	"BakeryStore/internal/repo/memory"
	"BakeryStore/pkg/health"
	"BakeryStore/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func Run(cfg config.Config) {
	l := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Console: cfg.LogFormat == "console"})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal(fmt.Errorf("app - Run: %w", err))
	}
}

func run(ctx context.Context, cfg config.Config, l *logger.Logger) error {
	seed, err := memory.LoadSeed(cfg.SeedFile)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	s, err := openStorage(ctx, cfg, l, seed)
	if err != nil {
		return err
	}
	defer s.Close()
	var optional []health.Checker

	g, gctx := errgroup.WithContext(ctx)

	if cfg.RedisURL != "" {
		writer, checker, err := startSnapshots(ctx, cfg, l, s)
		if err != nil {
			return fmt.Errorf("snapshots: %w", err)
		}
		optional = append(optional, checker)
		g.Go(func() error { return writer.Run(gctx) })
	}

	t, err := openTransport(cfg, l)
	if err != nil {
		return fmt.Errorf("events transport: %w", err)
	}
	defer t.Close()
	optional = append(optional, t.checkers...)

	eventSink := s.events
	if t.publisher != nil {
		eventSink = messaging.NewPublishingEventSink(s.events, t.publisher, l)
	}

	// Services
	ledger := catalog.NewLedgerService(s.products, l)
	orders := order.NewOrderService(s.orders, eventSink, l, order.ServiceConfig{
		Pricing: order.Pricing{DeliveryFee: cfg.DeliveryFee, DefaultVendor: cfg.DefaultVendor},
		Policy: order.HandoffPolicy{
			RequirePreTerminal: cfg.HandoffRequirePreTerminal,
			CodeTTL:            cfg.OTPTTL,
		},
	})
	carts := cart.NewCartService(s.carts, ledger, orders, l)
	users := user.NewUserService(s.users)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	// Handlers
	sessionHandler := handlers.NewSessionHandler(users, carts, tokens)
	productHandler := handlers.NewProductHandler(ledger)
	cartHandler := handlers.NewCartHandler(carts)
	orderHandler := handlers.NewOrderHandler(orders)
	statsHandler := handlers.NewStatsHandler(orders, ledger, users, cfg.LowStockThreshold)
	userHandler := handlers.NewUserHandler(users)

	engine := NewGinEngine(l)
	router := rest.NewRouter(&sessionHandler, &productHandler, &cartHandler, &orderHandler, &statsHandler,
		&userHandler, tokens, health.NewRegistry(s.checkers...).Optional(optional...))
	router.SetUp(engine)

	if cfg.NotificationsWorker {
		runner := notificationRunner(cfg, l, t)
		g.Go(func() error {
			l.Info("Starting notifications worker: transport=%s", cfg.EventsTransport)
			return runner.Start(gctx)
		})
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		l.Info("Starting HTTP server: port=%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
