package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fairscore/fairscore/internal/applicant"
	"github.com/fairscore/fairscore/internal/config"
	"github.com/fairscore/fairscore/internal/dataset"
	"github.com/fairscore/fairscore/internal/engine"
	"github.com/fairscore/fairscore/internal/fairness"
	"github.com/fairscore/fairscore/internal/result"
	"github.com/fairscore/fairscore/internal/server"
	"github.com/fairscore/fairscore/pkg/constants"
	"github.com/fairscore/fairscore/pkg/output"
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
	applicantsPath := flag.String("applicants", "", "path to applicant CSV (overrides dataset.path in config)")
	rateFlag := flag.Float64("rate", -1, "target approval rate override in [0,1]")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	decisionsOut := flag.String("decisions-out", "", "file to write the decisions JSON to (overrides config)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP analysis API instead of a one-shot analysis")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
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

	targetRate := conf.Analysis.TargetRate
	if *rateFlag >= 0 {
		targetRate = *rateFlag
	}

	if *serve {
		runServer(logger, *serverConfigLocation, targetRate)
		return
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	datasetPath := conf.Dataset.Path
	if *applicantsPath != "" {
		datasetPath = *applicantsPath
	}
	if datasetPath == "" {
		logger.Fatal("no applicant CSV supplied; set dataset.path or pass -applicants",
			zap.String("op", "main"),
		)
	}

	table, err := dataset.Load(logger, datasetPath)
	if err != nil {
		logger.Fatal("failed to load applicant dataset",
			zap.String("op", "main"),
			zap.String("path", datasetPath),
			zap.Error(err),
		)
	}

	res, err := analyze(logger, table, targetRate)
	if err != nil {
		logger.Fatal("failed to compute decisions",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, res)
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, res)
	case constants.OutputFormatJSON:
		if err := output.JSONFormat(os.Stdout, res); err != nil {
			logger.Fatal("failed to serialize result",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	default:
		logger.Fatal(fmt.Sprintf("invalid output format: %s", outputFormat),
			zap.String("op", "main"),
		)
	}

	decisionsFile := conf.Output.DecisionsFile
	if *decisionsOut != "" {
		decisionsFile = *decisionsOut
	}
	if decisionsFile != "" {
		if err := writeDecisionsFile(decisionsFile, res); err != nil {
			logger.Fatal("failed to write decisions file",
				zap.String("op", "main"),
				zap.String("path", decisionsFile),
				zap.Error(err),
			)
		}
		logger.Info("saved decisions",
			zap.String("op", "main"),
			zap.String("path", decisionsFile),
		)
	}
}

// analyze runs both policies over the table and assembles the full result.
func analyze(logger *zap.Logger, table applicant.Table, targetRate float64) (result.Result, error) {
	oppDecisions, oppSummary, err := engine.Decide(logger, table, targetRate, engine.PolicyOpportunity)
	if err != nil {
		return result.Result{}, err
	}
	outDecisions, outSummary, err := engine.Decide(logger, table, targetRate, engine.PolicyOutcomes)
	if err != nil {
		return result.Result{}, err
	}

	oppReport, err := fairness.Aggregate(oppDecisions, table)
	if err != nil {
		return result.Result{}, err
	}
	outReport, err := fairness.Aggregate(outDecisions, table)
	if err != nil {
		return result.Result{}, err
	}

	return result.Assemble(targetRate, len(table),
		oppDecisions, oppSummary, oppReport,
		outDecisions, outSummary, outReport,
		fairness.ScoreParity(table)), nil
}

func writeDecisionsFile(path string, res result.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := output.JSONFormat(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runServer(logger *zap.Logger, configLocation string, defaultRate float64) {
	serverConf, err := server.LoadConfig(configLocation)
	if err != nil {
		logger.Fatal("failed to load server configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	handler := server.NewHandler(logger, serverConf.UploadSizeBytes(), version, defaultRate)

	logger.Info("starting analysis API",
		zap.String("op", "main"),
		zap.String("address", serverConf.Address),
	)
	if err := http.ListenAndServe(serverConf.Address, handler); err != nil {
		logger.Fatal("server terminated",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
