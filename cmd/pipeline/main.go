package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/config"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/logger"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/metrics/prompush"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/records"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/stage"
	"github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/warehouse"

	// register all backends with the blobstore factory.
	// config specifies which to use but we build in support for all of them.
	_ "github.com/settpaing89/ecommerce-realtime-analytics-pipeline/internal/blobstore/all"
)

// main is the entry point for the batch pipeline binary. It loads the
// config, optionally initializes a metrics backend, and executes the
// requested stage.
func main() {
	var (
		cfgPath           string
		stageFlg          string
		entityFlg         string
		inputFlg          string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validateFlg       bool
	)

	flag.StringVar(&cfgPath, "config", "", "config YAML path (env-only when empty)")
	flag.StringVar(&stageFlg, "stage", "all", "stage to run: ingest, silver, gold, quality, publish, all")
	flag.StringVar(&entityFlg, "entity", "", "entity type for -stage ingest (customer, product, order, event)")
	flag.StringVar(&inputFlg, "input", "", "JSON file holding the raw batch for -stage ingest")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, none); overrides config")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL; overrides config")
	flag.BoolVar(&validateFlg, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid")
	}
	if validateFlg {
		fmt.Fprintln(os.Stderr, "configuration is valid")
		return
	}

	logMode := cfg.LogMode
	if *verbose {
		logMode = "dev"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer log.Sync()

	// Decide metrics backend: flag → config.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = cfg.Metrics.Backend
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		b, err := prompush.NewBackend("ecommerce_pipeline", gwURL)
		if err != nil {
			log.Warn("metrics backend init failed, using nop", "error", err)
			break
		}
		log.Info("metrics enabled", "backend", backendName, "url", gwURL)
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics flush failed", "error", err)
			}
		}()
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		log.Warn("unknown metrics backend, metrics disabled", "backend", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if err := run(ctx, cfg, log, stageFlg, entityFlg, inputFlg); err != nil {
		log.Fatal("pipeline failed", "stage", stageFlg, "error", err)
	}

	log.Info("completed", "stage", stageFlg, "elapsed", time.Since(start).Truncate(time.Millisecond).String())
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger, stageName, entityTag, inputPath string) error {
	openBucket := func(bucket string) (blobstore.Store, error) {
		return blobstore.New(ctx, blobstore.Config{
			Kind:   cfg.Store.Kind,
			Bucket: bucket,
			Root:   cfg.Store.Root,
		})
	}

	switch stageName {
	case "ingest":
		bronze, err := openBucket(cfg.Store.BronzeBucket)
		if err != nil {
			return err
		}
		defer bronze.Close()
		return runIngest(ctx, cfg, log, bronze, entityTag, inputPath)

	case "silver":
		bronze, err := openBucket(cfg.Store.BronzeBucket)
		if err != nil {
			return err
		}
		defer bronze.Close()
		silver, err := openBucket(cfg.Store.SilverBucket)
		if err != nil {
			return err
		}
		defer silver.Close()
		s := stage.Silverizer{Bronze: bronze, Silver: silver, Log: log}
		results, err := s.Run(ctx)
		printJSON(results)
		return err

	case "gold":
		silver, err := openBucket(cfg.Store.SilverBucket)
		if err != nil {
			return err
		}
		defer silver.Close()
		gold, err := openBucket(cfg.Store.GoldBucket)
		if err != nil {
			return err
		}
		defer gold.Close()
		g := stage.GoldBuilder{Silver: silver, Gold: gold, Log: log}
		results, err := g.Run(ctx)
		printJSON(results)
		return err

	case "quality":
		gold, err := openBucket(cfg.Store.GoldBucket)
		if err != nil {
			return err
		}
		defer gold.Close()
		q := stage.QualityChecker{Gold: gold, Log: log}
		results, err := q.Run(ctx)
		printJSON(results)
		return err

	case "publish":
		if cfg.Warehouse.DSN == "" {
			return fmt.Errorf("publish requires WAREHOUSE_DSN")
		}
		gold, err := openBucket(cfg.Store.GoldBucket)
		if err != nil {
			return err
		}
		defer gold.Close()
		pub, err := warehouse.New(ctx, cfg.Warehouse.DSN)
		if err != nil {
			return err
		}
		defer pub.Close()
		p := stage.GoldPublisher{Gold: gold, Warehouse: pub, Log: log}
		results, err := p.Run(ctx)
		printJSON(results)
		return err

	case "all":
		// ingest only when an input batch was given; the scheduled path runs
		// silver onward against whatever the intake service already landed.
		if inputPath != "" {
			bronze, err := openBucket(cfg.Store.BronzeBucket)
			if err != nil {
				return err
			}
			if err := runIngest(ctx, cfg, log, bronze, entityTag, inputPath); err != nil {
				bronze.Close()
				return err
			}
			bronze.Close()
		}
		for _, next := range []string{"silver", "gold", "quality"} {
			if err := run(ctx, cfg, log, next, "", ""); err != nil {
				return err
			}
		}
		if cfg.Warehouse.DSN != "" {
			return run(ctx, cfg, log, "publish", "", "")
		}
		return nil
	}
	return fmt.Errorf("unknown stage %q", stageName)
}

func runIngest(ctx context.Context, cfg config.Config, log *logger.Logger, bronze blobstore.Store, entityTag, inputPath string) error {
	if entityTag == "" {
		return fmt.Errorf("-stage ingest requires -entity")
	}
	if inputPath == "" {
		return fmt.Errorf("-stage ingest requires -input")
	}
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var recs []records.Record
	if err := json.NewDecoder(f).Decode(&recs); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	ing := stage.Ingestor{
		Bronze:      bronze,
		Source:      cfg.Source,
		Environment: cfg.Environment,
		Log:         log,
	}
	res, err := ing.Run(ctx, entityTag, recs)
	printJSON(res)
	return err
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
