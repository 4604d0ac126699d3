package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/cache"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/config"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/ledger"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/server"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/internal/store"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/emi"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/output"
	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API server")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	principal := flag.Float64("principal", 0, "loan principal for a one-shot schedule preview")
	rate := flag.Float64("rate", 0, "annual interest rate percent for a one-shot schedule preview")
	tenure := flag.Int("tenure", constants.DefaultTenureMonths, "tenure in months for a one-shot schedule preview")
	dueDay := flag.Int("due-day", 1, "due day of month for a one-shot schedule preview")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *serve {
		runServer(conf, logger)
		return
	}

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	runSchedulePreview(logger, outputFormat, *principal, *rate, *tenure, *dueDay)
}

// runSchedulePreview prints the expected installment schedule for the given
// loan parameters without touching storage.
func runSchedulePreview(logger *zap.Logger, outputFormat string, principal, rate float64, tenure, dueDay int) {
	if err := validation.ValidateEMIInputs(principal, rate, tenure, dueDay); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	loan := emi.LoanRecord{
		Principal:         principal,
		AnnualRatePercent: rate,
		TenureMonths:      tenure,
		EMIStarted:        true,
		EMIDueDay:         dueDay,
		Status:            emi.StatusApproved,
	}

	entries, err := emi.Schedule(loan, time.Now())
	if err != nil {
		logger.Fatal("failed to generate schedule",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(entries, emi.CompletionStatus(loan))
	case constants.OutputFormatCSV:
		output.CsvFormat(entries)
	}
}

func runServer(conf *config.Configuration, logger *zap.Logger) {
	storage, err := store.NewSQLiteStore(conf.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open storage",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		_ = storage.Close()
	}()

	var derivationCache cache.Cache
	if conf.Cache.RedisAddress != "" {
		derivationCache = cache.NewRedisCache(conf.Cache.RedisAddress)
		logger.Info("using redis derivation cache",
			zap.String("op", "main"),
			zap.String("address", conf.Cache.RedisAddress),
		)
	} else {
		derivationCache = cache.NewMemoryCache()
	}

	l := ledger.New(storage, derivationCache, conf.Cache.TTL, logger)
	handler := server.NewHandler(logger, l, version)

	logger.Info(fmt.Sprintf("listening on %s", conf.Server.Address),
		zap.String("op", "main"),
	)
	if err := http.ListenAndServe(conf.Server.Address, handler); err != nil {
		logger.Fatal("server exited",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
