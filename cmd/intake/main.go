package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/config"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/httpapi"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/stage"

	_ "github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore/all"
)

// main runs the HTTP intake service: it accepts raw entity batches and lands
// them in the bronze bucket synchronously.
func main() {
	cfgPath := flag.String("config", "", "config YAML path (env-only when empty)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	hasError := false
	for _, iss := range config.Validate(cfg) {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid")
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer log.Sync()

	if cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	bronze, err := blobstore.New(ctx, blobstore.Config{
		Kind:   cfg.Store.Kind,
		Bucket: cfg.Store.BronzeBucket,
		Root:   cfg.Store.Root,
	})
	if err != nil {
		log.Fatal("open bronze store", "error", err)
	}
	defer bronze.Close()

	server := &httpapi.Server{
		Ingest: stage.Ingestor{
			Bronze:      bronze,
			Source:      cfg.Source,
			Environment: cfg.Environment,
			Log:         log,
		},
		Log: log,
	}

	srv := &http.Server{
		Addr:              cfg.Intake.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("intake listening", "addr", cfg.Intake.Addr, "store", cfg.Store.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
