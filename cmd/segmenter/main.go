package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"customer-segmentation/internal/cluster"
	"customer-segmentation/internal/config"
	"customer-segmentation/internal/gateway"
	"customer-segmentation/internal/observability"
	"customer-segmentation/internal/usecase"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	// Flags override the environment.
	flag.StringVar(&cfg.Source, "source", cfg.Source, "Transaction source: csv or mysql")
	flag.StringVar(&cfg.Input, "input", cfg.Input, "Path to the retail sales CSV file")
	flag.StringVar(&cfg.MySQLDSN, "dsn", cfg.MySQLDSN, "MySQL DSN or mysql:// URL")
	flag.StringVar(&cfg.MySQLTable, "table", cfg.MySQLTable, "MySQL table holding the transactions")
	flag.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for the customer table and the JSON report")
	flag.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write run metrics to this textfile (optional)")
	flag.IntVar(&cfg.K, "k", cfg.K, "Number of clusters for the final partition")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for k-means initialization")
	flag.BoolVar(&cfg.Diagnose, "diagnose", cfg.Diagnose, "Compute inertia and silhouette over the k range")
	flag.IntVar(&cfg.MinK, "min-k", cfg.MinK, "Smallest k for diagnostics")
	flag.IntVar(&cfg.MaxK, "max-k", cfg.MaxK, "Largest k for diagnostics")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent k-means fits during diagnostics")
	flag.BoolVar(&cfg.UseRating, "use-rating", cfg.UseRating, "Add the mean review rating as a clustering feature")
	flag.StringVar(&cfg.MissingRating, "missing-rating", cfg.MissingRating, "Customers without a rating: impute-median or drop")
	flag.BoolVar(&cfg.DropConstantFeatures, "drop-constant", cfg.DropConstantFeatures, "Drop constant feature columns instead of failing")
	flag.BoolVar(&cfg.Clean, "clean", cfg.Clean, "Drop rows without an amount and clip amount outliers")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	stdout := flag.Bool("stdout", false, "Print the full JSON report to stdout instead of writing files")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	missingRating, err := cluster.ParseMissingRatingPolicy(cfg.MissingRating)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Dependency Injection (Wiring the application) ---
	// 1. Create the repository (the outermost layer)
	var (
		repo   usecase.TransactionRepository
		source string
	)
	switch cfg.Source {
	case config.SourceMySQL:
		db, err := gateway.OpenMySQL(cfg.MySQLDSN)
		if err != nil {
			logger.Fatal("failed to open mysql", zap.Error(err))
		}
		defer db.Close()
		repo, source = gateway.NewMySQLTransactionRepository(db), cfg.MySQLTable
	default:
		repo, source = gateway.NewCSVTransactionRepository(), cfg.Input
	}

	// 2. Create the usecase and inject its collaborators (the core logic layer)
	metrics := observability.NewMetrics()
	segmentation := usecase.NewSegmentationUseCase(repo, metrics, logger)

	opts := usecase.Options{
		K:                    cfg.K,
		Seed:                 cfg.Seed,
		Diagnose:             cfg.Diagnose,
		MinK:                 cfg.MinK,
		MaxK:                 cfg.MaxK,
		Workers:              cfg.Workers,
		NInit:                cfg.NInit,
		MaxIter:              cfg.MaxIter,
		UseRating:            cfg.UseRating,
		MissingRating:        missingRating,
		DropConstantFeatures: cfg.DropConstantFeatures,
		Clean:                cfg.Clean,
	}
	if cfg.Diagnose {
		opts.Progress = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("fitting candidate k"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	// --- Execute the Usecase ---
	report, err := segmentation.Segment(ctx, source, opts)
	if err != nil {
		logger.Fatal("segmentation failed", zap.Error(err))
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics textfile", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}

	// --- Present the Output ---
	if *stdout {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatal("failed to generate JSON report", zap.Error(err))
		}
		fmt.Println(string(output))
		return
	}

	written, err := gateway.NewReportWriter(cfg.OutputDir).Write(report)
	if err != nil {
		logger.Fatal("failed to write outputs", zap.Error(err))
	}
	output, err := json.MarshalIndent(written, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode output paths", zap.Error(err))
	}
	fmt.Println(string(output))
}
