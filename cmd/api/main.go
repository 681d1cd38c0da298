package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dogu-dev/commerce-core/internal/basket"
	"github.com/dogu-dev/commerce-core/internal/checkout"
	"github.com/dogu-dev/commerce-core/internal/config"
	"github.com/dogu-dev/commerce-core/internal/events"
	"github.com/dogu-dev/commerce-core/internal/httpx"
	"github.com/dogu-dev/commerce-core/internal/invoice"
	"github.com/dogu-dev/commerce-core/internal/ledger"
	"github.com/dogu-dev/commerce-core/internal/orders"
	"github.com/dogu-dev/commerce-core/internal/postgres"
	"github.com/dogu-dev/commerce-core/internal/redisx"
	"github.com/dogu-dev/commerce-core/internal/wishlist"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel, cfg.ServiceName)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Order archive (optional)
	var archive *postgres.Archive
	if cfg.PostgresDSN != "" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		archive = &postgres.Archive{DB: db}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer func() { _ = rdb.Close() }()

	// Kafka producer
	prod := events.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)
	pub := &events.Publisher{Producer: prod, Service: cfg.ServiceName}

	// Stores & services
	lg := ledger.New()
	baskets := basket.NewStore(cfg.MaxQtyPerLine)
	orderStore := orders.NewStore(lg)
	wishlists := wishlist.NewStore()
	invoices := &invoice.Deriver{Orders: orderStore}
	co := &checkout.Service{
		Basket: baskets,
		Ledger: lg,
		Orders: orderStore,
		Events: pub,
		Log:    logger,
	}
	if archive != nil {
		co.Archive = archive
	}

	// Handlers
	router := httpx.NewRouter(logger)
	oh := &httpx.OrdersHandler{
		Orders:   orderStore,
		Ledger:   lg,
		Invoices: invoices,
		Redis:    rdb,
		Events:   pub,
		Log:      logger,
	}
	if archive != nil {
		oh.Archive = archive
	}
	httpx.Mount(router,
		&httpx.BasketHandler{Basket: baskets, Checkout: co},
		oh,
		&httpx.CatalogHandler{Ledger: lg, Wishlist: wishlists},
		&httpx.AdminHandler{Ledger: lg, Orders: orderStore, Invoices: invoices},
	)

	// Orphan-reservation sweeper: the one background recovery path, see
	// ledger.SweepOrphans.
	go func() {
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				released := lg.SweepOrphans(cfg.ReservationGrace, orderStore.Exists)
				for _, res := range released {
					logger.Warn("released orphaned reservation",
						zap.String("token", res.Token),
						zap.String("order_id", res.OrderID),
						zap.Int64("product_id", res.ProductID),
						zap.Int("qty", res.Qty))
				}
			}
		}
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // close inbox -> flush & close writer
	cancel()          // stop producer loop and sweeper
	prod.WaitClosed() // drain
}

func newLogger(level, service string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.With(zap.String("service", service))
}
