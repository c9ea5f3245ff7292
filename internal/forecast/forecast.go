// Package forecast defines the data structures related to a given forecast and
// includes functions for training the regression and computing the forecasts.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/depreciation-forecast/internal/config"
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/dataset"
	"github.com/iwvelando/depreciation-forecast/pkg/depreciation"
	"github.com/iwvelando/depreciation-forecast/pkg/regression"
	"github.com/iwvelando/depreciation-forecast/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// postgresConnectTimeout bounds the retries when the listings live in Postgres.
const postgresConnectTimeout = 30 * time.Second

// Forecast holds all information related to a specific forecast.
type Forecast struct {
	Name                   string                        `json:"name"`
	Scenario               config.ResolvedScenario       `json:"scenario"`
	InitialDepreciationPct float64                       `json:"initialDepreciationPct"`
	Projection             depreciation.ProjectionResult `json:"projection"`
	Analysis               depreciation.Analysis         `json:"analysis"`
	Warnings               []string                      `json:"warnings,omitempty"`
}

// LoadListings reads the listings from the configured dataset.
func LoadListings(ctx context.Context, logger *zap.Logger, conf config.DatasetConfig) ([]dataset.Listing, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var listings []dataset.Listing
	var err error
	switch conf.Driver {
	case constants.DatasetDriverCSV, "":
		listings, err = dataset.CSVSource{Path: conf.Path}.Load(ctx)
	case constants.DatasetDriverSQLite:
		var source *dataset.SQLiteSource
		source, err = dataset.OpenSQLite(conf.Path)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = source.Close()
		}()
		listings, err = source.Load(ctx)
	case constants.DatasetDriverPostgres:
		var source *dataset.PostgresSource
		source, err = dataset.ConnectPostgres(ctx, logger, conf.DSN, postgresConnectTimeout)
		if err != nil {
			return nil, err
		}
		defer source.Close()
		listings, err = source.Load(ctx)
	default:
		return nil, validation.ValidateDatasetDriver(conf.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listings from %s dataset: %w", conf.Driver, err)
	}

	logger.Debug(fmt.Sprintf("loaded %d listings", len(listings)),
		zap.String("op", "forecast.LoadListings"),
		zap.String("driver", conf.Driver),
	)
	return listings, nil
}

// TrainModel fits the depreciation regression on a seeded training split of
// the listings and evaluates it on the held-out rows. When the split leaves no
// test rows the model is scored on its training data.
func TrainModel(logger *zap.Logger, listings []dataset.Listing, conf config.ModelConfig) (*regression.LinearModel, regression.Evaluation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(listings) == 0 {
		return nil, regression.Evaluation{}, dataset.ErrNoListings
	}

	x, y := dataset.Features(listings)
	trainIdx, testIdx, err := regression.Split(len(y), conf.TestRatio, conf.Seed)
	if err != nil {
		return nil, regression.Evaluation{}, fmt.Errorf("failed to split listings: %w", err)
	}

	xTrain, yTrain := regression.Subset(x, y, trainIdx)
	model, err := regression.Fit(xTrain, yTrain, dataset.FeatureNames())
	if err != nil {
		return nil, regression.Evaluation{}, fmt.Errorf("failed to fit regression: %w", err)
	}

	xTest, yTest := regression.Subset(x, y, testIdx)
	if len(yTest) == 0 {
		xTest, yTest = xTrain, yTrain
	}
	evaluation, err := regression.Evaluate(model, xTest, yTest)
	if err != nil {
		return nil, regression.Evaluation{}, fmt.Errorf("failed to evaluate regression: %w", err)
	}
	evaluation.TrainSize = len(yTrain)

	logger.Info("trained depreciation model",
		zap.String("op", "forecast.TrainModel"),
		zap.Int("train", evaluation.TrainSize),
		zap.Int("test", evaluation.TestSize),
		zap.Float64("r2", evaluation.R2),
		zap.Float64("rmse", evaluation.RMSE),
	)
	return model, evaluation, nil
}

// Project estimates the scenario's current depreciation with the model and
// projects it over the scenario's horizon. A scenario without a list price
// uses meanListPrice.
func Project(model *regression.LinearModel, scenario config.ResolvedScenario, meanListPrice float64) (Forecast, error) {
	if model == nil {
		return Forecast{}, errors.New("no trained model")
	}
	if scenario.ListPrice == 0 {
		scenario.ListPrice = meanListPrice
	}

	initialPct, err := model.Predict(float64(scenario.VehicleYear), scenario.Mileage)
	if err != nil {
		return Forecast{}, fmt.Errorf("scenario %s: failed to estimate depreciation: %w", scenario.Name, err)
	}

	projection, err := depreciation.Project(depreciation.Params{
		BaseYear:               scenario.ValuationYear,
		BaseMileage:            scenario.Mileage,
		ListPrice:              scenario.ListPrice,
		InitialDepreciationPct: initialPct,
		HorizonYears:           scenario.HorizonYears,
		AnnualMileage:          scenario.AnnualMileage,
	})
	if err != nil {
		return Forecast{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := Forecast{
		Name:                   scenario.Name,
		Scenario:               scenario,
		InitialDepreciationPct: initialPct,
		Projection:             projection,
		Analysis:               depreciation.Analyze(projection),
	}
	if warning := validation.ValidateInitialDepreciation(scenario.Name, initialPct); warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	result.Warnings = append(result.Warnings, validation.ValidateScenario(validation.ScenarioConfig{
		Name:          scenario.Name,
		Active:        true,
		VehicleYear:   scenario.VehicleYear,
		HorizonYears:  scenario.HorizonYears,
		AnnualMileage: scenario.AnnualMileage,
	}, scenario.ValuationYear)...)

	return result, nil
}

// GetForecast processes the Forecasts for all active Scenarios. Scenarios are
// projected concurrently; results keep configuration order.
func GetForecast(ctx context.Context, logger *zap.Logger, conf config.Configuration, model *regression.LinearModel, meanListPrice float64) ([]Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.GetForecast"),
			)
		}
	}

	scenarios := conf.ActiveScenarios()
	results := make([]Forecast, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	for i, scenario := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := Project(model, scenario, meanListPrice)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				logger.Warn(warning,
					zap.String("op", "forecast.GetForecast"),
					zap.String("scenario", scenario.Name),
				)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
