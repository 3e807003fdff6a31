package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/database"
	"github.com/minhwang72/monsil-wedding/internal/routes"
	"github.com/minhwang72/monsil-wedding/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.Connect(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("failed to auto migrate")
	}
	if err := database.EnsureAdmin(db, cfg.Admin); err != nil {
		logrus.WithError(err).Fatal("failed to seed admin account")
	}

	app, err := routes.Setup(db, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up routes")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sweep.Enabled {
		logrus.WithFields(logrus.Fields{
			"interval":     cfg.Sweep.Interval.String(),
			"grace_period": cfg.Sweep.GracePeriod.String(),
		}).Info("orphan file sweep scheduled")
		go app.Sweep.Run(ctx, cfg.Sweep.Interval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
