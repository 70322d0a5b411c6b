package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/ai"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/config"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/database"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/logging"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/server"
)

func main() {
	configPath := flag.String("config", "household.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var evaluator ai.Evaluator
	if cfg.AI.Enabled && cfg.AI.BaseURL != "" {
		evaluator = ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AITimeout(), logger.With("component", "ai"))
		logger.Info("AI photo review enabled", "base_url", cfg.AI.BaseURL)
	}

	srv := server.New(db, evaluator, logger)

	// Expired rate-limit buckets accumulate between PIN attempts; sweep hourly.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("household engine listening", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
