package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/depreciation-forecast/internal/config"
	"github.com/iwvelando/depreciation-forecast/internal/forecast"
	"github.com/iwvelando/depreciation-forecast/internal/logging"
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/dataset"
	"github.com/iwvelando/depreciation-forecast/pkg/output"
	"github.com/iwvelando/depreciation-forecast/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, markdown")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	summary := flag.Bool("summary", false, "print dataset statistics and model evaluation before the forecast")
	htmlReport := flag.String("html-report", "", "optional path to write the report rendered as HTML")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx := context.Background()

	listings, err := forecast.LoadListings(ctx, logger, conf.Dataset)
	if err != nil {
		logger.Fatal("failed to load listings",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	model, evaluation, err := forecast.TrainModel(logger, listings, conf.Model)
	if err != nil {
		logger.Fatal("failed to train depreciation model",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *summary {
		output.SummaryFormat(dataset.Summarize(listings), evaluation)
		fmt.Printf("\n")
	}

	results, err := forecast.GetForecast(ctx, logger, *conf, model, dataset.MeanListPrice(listings))
	if err != nil {
		logger.Fatal("failed to compute forecast",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results)
	case constants.OutputFormatCSV:
		output.CsvFormat(results)
	case constants.OutputFormatMarkdown:
		output.MarkdownFormat(results)
	}

	if *htmlReport != "" {
		html, err := output.HTMLString(results)
		if err != nil {
			logger.Fatal("failed to render html report",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if err := os.WriteFile(*htmlReport, []byte(html), 0644); err != nil {
			logger.Fatal("failed to write html report",
				zap.String("op", "main"),
				zap.String("path", *htmlReport),
				zap.Error(err),
			)
		}
	}
}
