package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-shop-services/internal/config"
	"github.com/ariefcatur/go-shop-services/internal/httpx"
	"github.com/ariefcatur/go-shop-services/internal/logging"
	"github.com/ariefcatur/go-shop-services/internal/metrics"
	"github.com/ariefcatur/go-shop-services/internal/postgres"
	"github.com/ariefcatur/go-shop-services/internal/telemetry"
	"github.com/ariefcatur/go-shop-services/internal/users"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.Load(":8083", "user-service")

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

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db_connect_failed", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db, postgres.UserSchema); err != nil {
		log.Fatal("db_migrate_failed", zap.Error(err))
	}

	m := metrics.New("users")
	router := httpx.NewRouter(httpx.RouterConfig{Logger: log, Metrics: m, Timeout: cfg.RequestTimeout})
	(&httpx.UsersHandler{Service: users.NewService(&users.Repo{DB: db}, cfg.BcryptCost)}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	if err := httpx.Serve(ctx, srv, log); err != nil {
		log.Error("http_server_failed", zap.Error(err))
	}
	log.Info("shutdown_complete")
}
