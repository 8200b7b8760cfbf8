package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steeplehq/steeple/internal/backup"
	"github.com/steeplehq/steeple/internal/database"
	"github.com/steeplehq/steeple/internal/logging"
	"github.com/steeplehq/steeple/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("STEEPLE_LOG_LEVEL"))

	port := os.Getenv("STEEPLE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("STEEPLE_DB_PATH")
	if dbPath == "" {
		dbPath = "steeple.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("STEEPLE_S3_ENDPOINT"),
			Bucket:    os.Getenv("STEEPLE_S3_BUCKET"),
			Region:    os.Getenv("STEEPLE_S3_REGION"),
			AccessKey: os.Getenv("STEEPLE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("STEEPLE_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("STEEPLE_BACKUP_PASSPHRASE"),
	}
	if v := os.Getenv("STEEPLE_BACKUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			logger.Error("invalid STEEPLE_BACKUP_INTERVAL", "value", v, "error", err)
			os.Exit(1)
		}
		backupCfg.Interval = d
	}

	srv := server.New(db, backupCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if srv.BackupManager().Enabled() {
		srv.BackupManager().Start(ctx)
		defer srv.BackupManager().Stop()
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Steeple running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
