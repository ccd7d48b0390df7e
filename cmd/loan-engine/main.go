package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/revisional/loan-engine/internal/report"
	"github.com/revisional/loan-engine/internal/request"
	"github.com/revisional/loan-engine/internal/server"
	"github.com/revisional/loan-engine/internal/store"
	"github.com/revisional/loan-engine/pkg/output"
	"github.com/revisional/loan-engine/pkg/schedule"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger creates a zap logger based on the request file's logging
// section and the CLI override.
func initializeLogger(loggingConfig request.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// CLI override takes precedence
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

	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
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

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	requestLocation := flag.String("request", "request.yaml", "path to the calculation request file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	tableFlag := flag.String("table", "", "table override: preview, charged, due, comparative")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serveAddr := flag.String("serve", "", "listen address for HTTP server mode (e.g. :8080); empty runs the CLI")
	dbPath := flag.String("db", "", "path to the snapshot database (server mode only; empty disables snapshots)")
	flag.Parse()

	if *serveAddr != "" {
		serve(*serveAddr, *dbPath, *logLevel)
		return
	}

	// Load the request file first so its logging section can shape the logger.
	req, err := request.Load(*requestLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load request at %s\", \"error\": \"%v\"}\n", *requestLocation, err)
		os.Exit(1)
	}

	logger, err := initializeLogger(req.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over the request file's output section.
	outputFormat := req.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = "pretty"
	}
	if outputFormat != "pretty" && outputFormat != "csv" {
		logger.Fatal(fmt.Sprintf("invalid output format %q (expected pretty or csv)", outputFormat),
			zap.String("op", "main"),
		)
	}

	tableName := req.Output.Table
	if *tableFlag != "" {
		tableName = *tableFlag
	}
	table, err := report.ParseTable(tableName)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	params, err := req.Parameters()
	if err != nil {
		logger.Fatal("failed to parse request",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	result, err := report.NewEngine(logger).Run(params)
	if err != nil {
		logger.Fatal("failed to compute schedules",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch table {
	case report.TablePreview:
		printPreview(result.Preview())
	case report.TableCharged:
		printScenario(outputFormat, result.Charged)
	case report.TableDue:
		printScenario(outputFormat, result.Due)
	case report.TableComparative:
		if outputFormat == "csv" {
			output.CsvComparison(os.Stdout, result.Comparison)
		} else {
			output.PrettyComparison(os.Stdout, result.Comparison)
		}
	}
}

func printScenario(outputFormat string, scenario *schedule.Scenario) {
	if outputFormat == "csv" {
		output.CsvSchedule(os.Stdout, scenario)
		return
	}
	output.PrettySchedule(os.Stdout, scenario)
}

func printPreview(preview report.Preview) {
	fmt.Printf("Contract rate (monthly):  %s\n", preview.Formatted.ContractRateMonthly)
	fmt.Printf("Market rate (monthly):    %s\n", preview.Formatted.MarketRateMonthly)
	fmt.Printf("Rate spread (points):     %s\n", preview.Formatted.RateSpreadPoints)
	fmt.Printf("Total paid (charged):     %s\n", preview.Formatted.TotalPaidCharged)
	fmt.Printf("Total due (market rate):  %s\n", preview.Formatted.TotalDueAtMarket)
	fmt.Printf("Total restitution:        %s\n", preview.Formatted.TotalRestitution)
}

func serve(addr, dbPath, logLevel string) {
	logger, err := initializeLogger(request.LoggingConfig{}, logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	var storage store.Storage
	if dbPath != "" {
		sqliteStore, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			logger.Fatal("failed to open snapshot database",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		defer sqliteStore.Close()
		storage = sqliteStore
	}

	handler := server.NewHandler(logger, report.NewEngine(logger), storage)

	logger.Info("starting HTTP server",
		zap.String("op", "main"),
		zap.String("addr", addr),
		zap.Bool("snapshots", storage != nil),
	)

	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server terminated",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
