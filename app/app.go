// File: app/app.go
package app

import (
	"context"
	"errors"
	"go-auth-api/config"
	"go-auth-api/db"
	"go-auth-api/handler"
	"go-auth-api/logger"
	"go-auth-api/metrics"
	"go-auth-api/repository"
	"go-auth-api/router"
	"go-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// App is the wired HTTP surface, independent of how its stores were opened.
type App struct {
	Router  http.Handler
	Auth    *service.AuthService
	Metrics *metrics.Recorder
}

// New wires repositories, the auth service and handlers over already-open stores.
func New(cfg *config.Config, accounts repository.IAccountRepository, redisClient redis.UniversalClient) (*App, error) {
	codec, err := service.NewTokenCodec([]byte(cfg.JWT.SecretKey), cfg.JWT.Algorithm, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()
	ledger := repository.NewRedisLedger(redisClient)
	hasher := service.NewPasswordHasher(cfg.Security.BcryptCost)
	authService := service.NewAuthService(accounts, ledger, codec, hasher, cfg.RetiredTTL(), recorder)

	r := router.NewRouter(router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Members:       handler.NewMemberHandler(authService),
		Authenticator: authService,
		Metrics:       recorder.Handler(),
	})

	return &App{Router: r, Auth: authService, Metrics: recorder}, nil
}

func Run() {
	logger.Init()
	config.LoadConfig(".")
	cfg := &config.AppConfig
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	logger.Log.Info("Configuration loaded successfully")

	if err := db.Migrate(db.DSN(cfg)); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	application, err := New(cfg, repository.NewAccountRepository(database), redisClient)
	if err != nil {
		logger.Log.Fatalf("Error wiring application: %v", err)
	}

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           application.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
