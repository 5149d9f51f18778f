package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/hashmine/miner-rewards/internal/platform/config"
	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	tokenizedConfig "github.com/tokenized/config"
	"github.com/tokenized/logger"
	"github.com/tokenized/threads"
)

func main() {

	// ---------------------------------------------------------------------------------------------
	// Logging

	logPath := os.Getenv("LOG_FILE_PATH")

	logConfig := logger.NewConfig(strings.ToUpper(os.Getenv("DEVELOPMENT")) == "TRUE",
		strings.ToUpper(os.Getenv("LOG_FORMAT")) == "TEXT", logPath)

	ctx := logger.ContextWithLogConfig(context.Background(), logConfig)

	// ---------------------------------------------------------------------------------------------
	// App Starting

	logger.Info(ctx, "main : Started : Application Initializing")
	defer logger.Info(ctx, "main : Completed")

	// ---------------------------------------------------------------------------------------------
	// Config

	cfg := &config.Config{}
	if err := tokenizedConfig.LoadConfig(ctx, cfg); err != nil {
		logger.Fatal(ctx, "main : Load Config : %s", err)
	}

	tokenizedConfig.DumpSafe(ctx, cfg)

	// The persistent disk flag must be an exact "true" or "false". Anything
	// else halts the process before listening.
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		logger.Fatal(ctx, "main : Database Path : %s", err)
	}

	// ---------------------------------------------------------------------------------------------
	// Start Database

	logger.Info(ctx, "main : Started : Initialize Database : %s", dbPath)

	masterDB, err := db.New(&db.DBConfig{
		Driver: cfg.Db.Driver,
		URL:    dbPath,
	})
	if err != nil {
		logger.Fatal(ctx, "main : Register DB : %s", err)
	}
	defer masterDB.Close()

	if err := rewards.EnsureSchema(ctx, masterDB); err != nil {
		logger.Fatal(ctx, "main : Create Schema : %s", err)
	}

	// ---------------------------------------------------------------------------------------------
	// Status Sweeper

	sweeper := rewards.NewSweeper(masterDB, cfg.Sweep.PromoteInterval,
		cfg.Sweep.CompleteInterval, cfg.Sweep.CompleteAge)

	wait := sync.WaitGroup{}

	promoteThread := threads.NewInterruptableThread("Promote Sweep", sweeper.RunPromote)
	promoteThread.SetWait(&wait)
	promoteComplete := promoteThread.GetCompleteChannel()

	completeThread := threads.NewInterruptableThread("Complete Sweep", sweeper.RunComplete)
	completeThread.SetWait(&wait)
	completeComplete := completeThread.GetCompleteChannel()

	promoteThread.Start(ctx)
	completeThread.Start(ctx)

	// ---------------------------------------------------------------------------------------------
	// Start API Service

	webConfig := &web.Config{
		RootURL: cfg.Web.RootURL,
	}

	api := http.Server{
		Addr:           cfg.Web.APIHost,
		Handler:        API(webConfig, masterDB),
		ReadTimeout:    cfg.Web.ReadTimeout,
		WriteTimeout:   cfg.Web.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info(ctx, "main : HTTP server Listening %s", cfg.Web.APIHost)
		serverErrors <- api.ListenAndServe()
	}()

	// ---------------------------------------------------------------------------------------------
	// Shutdown

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		logger.Error(ctx, "main : Error starting HTTP server : %s", err)

	case <-promoteComplete:
		logger.Error(ctx, "main : Promote sweep finished early")

	case <-completeComplete:
		logger.Error(ctx, "main : Complete sweep finished early")

	case <-osSignals:
		logger.Info(ctx, "main : Start shutdown...")
	}

	// Stop the sweeper threads and wait for them to finish.
	promoteThread.Stop(ctx)
	completeThread.Stop(ctx)
	wait.Wait()

	// Create context for Shutdown call.
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
	defer cancel()

	// Asking listener to shutdown and load shed.
	if err := api.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "main : Graceful HTTP server shutdown did not complete in %v : %s",
			cfg.Web.ShutdownTimeout, err)
		if err := api.Close(); err != nil {
			logger.Fatal(ctx, "main : Could not stop HTTP server : %s", err)
		}
	}
}
