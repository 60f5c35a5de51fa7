package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-shop-services/internal/config"
	"github.com/ariefcatur/go-shop-services/internal/httpx"
	kafkax "github.com/ariefcatur/go-shop-services/internal/kafka"
	"github.com/ariefcatur/go-shop-services/internal/logging"
	"github.com/ariefcatur/go-shop-services/internal/metrics"
	"github.com/ariefcatur/go-shop-services/internal/orders"
	"github.com/ariefcatur/go-shop-services/internal/postgres"
	"github.com/ariefcatur/go-shop-services/internal/redisx"
	"github.com/ariefcatur/go-shop-services/internal/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(":8081", "order-service")

	log := logging.MustNew(cfg.ServiceName, cfg.Env)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, version, cfg.OtelEndpoint)
	if err != nil {
		log.Fatal("telemetry_setup_failed", zap.Error(err))
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db_connect_failed", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db, postgres.OrderSchema); err != nil {
		log.Fatal("db_migrate_failed", zap.Error(err))
	}

	m := metrics.New("orders")
	client := orders.NewHTTPProductClient(cfg.ProductServiceURL, cfg.ProductCallTimeout, m)
	opts := []orders.Option{}

	// Redis (opsional): cache order
	if cfg.RedisAddr != "" {
		rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis_connect_failed", zap.Error(err))
		}
		defer rdb.Close()
		opts = append(opts, orders.WithCache(redisx.NewOrderCache(rdb, redisx.TTLOrderCache)))
	}

	// Kafka producer (opsional): notifikasi lifecycle order
	if len(cfg.KafkaBrokers) > 0 {
		prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log, func(event string) {
			m.EventPublishFail.WithLabelValues(event).Inc()
		})
		prodCtx, cancelProd := context.WithCancel(context.Background())
		defer cancelProd()
		prod.Start(prodCtx)
		defer func() {
			cancelProd()
			prod.WaitClosed()
		}()
		opts = append(opts, orders.WithPublisher(prod, cfg.ServiceName))
	}

	svc := orders.NewService(&orders.Repo{DB: db}, client, opts...)
	router := httpx.NewRouter(httpx.RouterConfig{Logger: log, Metrics: m, Timeout: cfg.RequestTimeout})
	(&httpx.OrdersHandler{Service: svc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	if err := httpx.Serve(ctx, srv, log); err != nil {
		log.Error("http_server_failed", zap.Error(err))
	}
	log.Info("shutdown_complete")
}
