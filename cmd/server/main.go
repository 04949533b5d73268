package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/elmazzun/jwt-manager/internal/audit"
	"github.com/elmazzun/jwt-manager/internal/auth"
	"github.com/elmazzun/jwt-manager/internal/config"
	"github.com/elmazzun/jwt-manager/internal/httpserver"
	"github.com/elmazzun/jwt-manager/internal/logging"
	appmw "github.com/elmazzun/jwt-manager/internal/middleware"
	"github.com/elmazzun/jwt-manager/internal/mykafka"
	"github.com/elmazzun/jwt-manager/internal/repo"
	"github.com/elmazzun/jwt-manager/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	users := &repo.UserRepo{DB: db}
	watermark := &auth.Watermark{}

	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS}, cfg.KAFKA_TOPIC)
	}

	var indexer *audit.Indexer
	if cfg.ES_URL != "" {
		esClient, err := audit.NewClient(cfg.ES_URL, cfg.ES_USER, cfg.ES_PASSWORD)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		indexer = audit.NewIndexer(esClient, "auth_audit")
	}

	var rdb *redis.Client
	if cfg.REDIS_ADDR != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.REDIS_ADDR})
	}

	svc := &service.AccountService{
		Users:     users,
		Watermark: watermark,
		Producer:  producer,
		Audit:     indexer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(appmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Accounts:      &httpserver.AccountHTTP{Svc: svc},
		Authorizer:    &auth.Authorizer{Users: users, Watermark: watermark},
		LoginThrottle: appmw.LoginThrottle(rdb, int64(cfg.LOGIN_LIMIT), time.Minute),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
