package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"postboard/internal/config"
	"postboard/internal/db"
	"postboard/internal/events"
	"postboard/internal/handlers"
	"postboard/internal/httperr"
	"postboard/internal/logging"
	mwauth "postboard/internal/middleware/auth"
	loggingmw "postboard/internal/middleware/logging"
	"postboard/internal/repo"
	"postboard/internal/search"
	"postboard/internal/session"
	httpserver "postboard/internal/transport/http"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)

	var postIndex *search.Index
	if cfg.ESURL != "" {
		postIndex, err = search.New(search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    "posts",
		})
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		logger.Info("search enabled", "index", postIndex.Name())
	} else {
		logger.Info("search disabled, ES_URL not set")
	}

	userRepo := &repo.UserRepo{DB: database}
	tokenRepo := &repo.TokenRepo{DB: database}
	postRepo := &repo.PostRepo{DB: database}

	sessions := &session.Manager{
		Users:         userRepo,
		Tokens:        tokenRepo,
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httperr.EchoHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	// RequestLogger also owns request-id assignment.
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Guard:       &mwauth.Guard{AccessSecret: cfg.JWTSecret, RefreshSecret: cfg.JWTRefreshSecret},
		AuthHandler: &handlers.AuthHandler{Users: userRepo, Sessions: sessions, Producer: producer},
		UserHandler: &handlers.UserHandler{Users: userRepo},
		PostHandler: &handlers.PostHandler{Posts: postRepo, Users: userRepo, Producer: producer, Search: postIndex},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("listening", "port", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
