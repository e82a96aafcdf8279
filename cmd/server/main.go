package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libraryapi/internal/api"
	"libraryapi/pkg/factory"
	"libraryapi/pkg/tracing"
)

func main() {
	appFactory, err := factory.NewFactory()
	if err != nil {
		fmt.Printf("Application could not be initialized: %v\n", err)
		os.Exit(1)
	}
	defer appFactory.Close()

	log := appFactory.GetLogger()
	cfg := appFactory.GetConfig()

	shutdownTracing := tracing.Init("libraryapi")

	log.Info("Starting application", map[string]interface{}{
		"env":    cfg.AppEnv,
		"driver": cfg.Database.Driver,
	})

	if err := appFactory.GetMigrationService().RunMigrations(context.Background()); err != nil {
		log.Fatal("Migrations could not be applied", map[string]interface{}{"error": err.Error()})
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(appFactory),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Error("Tracer shutdown failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Server stopped", nil)
}
