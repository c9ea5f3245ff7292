// Package config defines the data structures related to configuration and
// includes functions for loading, resolving and validating the config.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for depreciation-forecast.
type Configuration struct {
	Dataset   DatasetConfig `yaml:"dataset"`
	Model     ModelConfig   `yaml:"model"`
	Common    Common        `yaml:"common"`
	Scenarios []Scenario    `yaml:"scenarios"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output, rotated
	MaxSizeMB  int    `yaml:"maxSizeMB,omitempty"`  // rotate after this many megabytes
	MaxBackups int    `yaml:"maxBackups,omitempty"` // rotated files to keep
	MaxAgeDays int    `yaml:"maxAgeDays,omitempty"` // days to keep rotated files
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, markdown
}

// DatasetConfig locates the listings used to train the regression.
type DatasetConfig struct {
	Driver string `yaml:"driver,omitempty"` // csv, sqlite, postgres
	Path   string `yaml:"path,omitempty"`   // csv file or sqlite database
	DSN    string `yaml:"dsn,omitempty"`    // postgres connection string, falls back to DATABASE_URL
}

// ModelConfig controls how the regression is trained and evaluated.
type ModelConfig struct {
	TestRatio float64 `yaml:"testRatio,omitempty"`
	Seed      int64   `yaml:"seed,omitempty"`
}

// Common holds the projection defaults shared by all scenarios.
type Common struct {
	ValuationYear int `yaml:"valuationYear,omitempty"`
	// ListPrice of zero means the dataset's mean list price.
	ListPrice     float64  `yaml:"listPrice,omitempty"`
	HorizonYears  *int     `yaml:"horizonYears,omitempty"`
	AnnualMileage *float64 `yaml:"annualMileage,omitempty"`
}

// Scenario describes one vehicle to project. Unset fields inherit Common.
type Scenario struct {
	Name          string   `yaml:"name"`
	Active        bool     `yaml:"active"`
	VehicleYear   int      `yaml:"vehicleYear"`
	Mileage       float64  `yaml:"mileage"`
	ListPrice     float64  `yaml:"listPrice,omitempty"`
	HorizonYears  *int     `yaml:"horizonYears,omitempty"`
	AnnualMileage *float64 `yaml:"annualMileage,omitempty"`
}

// ResolvedScenario is a Scenario with every Common default applied.
type ResolvedScenario struct {
	Name          string  `json:"name"`
	VehicleYear   int     `json:"vehicleYear"`
	Mileage       float64 `json:"mileage"`
	ValuationYear int     `json:"valuationYear"`
	// ListPrice of zero means the dataset's mean list price.
	ListPrice     float64 `json:"listPrice"`
	HorizonYears  int     `json:"horizonYears"`
	AnnualMileage float64 `json:"annualMileage"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A relative dataset path is resolved against the
// directory of the configuration file.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	configuration, err := decode(v)
	if err != nil {
		return nil, err
	}

	if configuration.Dataset.Path != "" && !filepath.IsAbs(configuration.Dataset.Path) {
		configuration.Dataset.Path = filepath.Join(filepath.Dir(configPath), configuration.Dataset.Path)
	}
	return configuration, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset settings with the package defaults.
func (conf *Configuration) ApplyDefaults() {
	if conf.Dataset.Driver == "" {
		conf.Dataset.Driver = constants.DatasetDriverCSV
	}
	if conf.Dataset.Driver == constants.DatasetDriverPostgres && conf.Dataset.DSN == "" {
		conf.Dataset.DSN = os.Getenv("DATABASE_URL")
	}
	if conf.Model.TestRatio == 0 {
		conf.Model.TestRatio = constants.DefaultTestRatio
	}
	if conf.Model.Seed == 0 {
		conf.Model.Seed = constants.DefaultSeed
	}
	if conf.Common.ValuationYear == 0 {
		conf.Common.ValuationYear = constants.DefaultValuationYear
	}
	if conf.Common.HorizonYears == nil {
		horizon := constants.DefaultHorizonYears
		conf.Common.HorizonYears = &horizon
	}
	if conf.Common.AnnualMileage == nil {
		mileage := constants.DefaultAnnualMileage
		conf.Common.AnnualMileage = &mileage
	}
}

// Resolve applies the Common defaults to a scenario.
func (conf *Configuration) Resolve(s Scenario) ResolvedScenario {
	resolved := ResolvedScenario{
		Name:          s.Name,
		VehicleYear:   s.VehicleYear,
		Mileage:       s.Mileage,
		ValuationYear: conf.Common.ValuationYear,
		ListPrice:     s.ListPrice,
	}
	if resolved.ListPrice == 0 {
		resolved.ListPrice = conf.Common.ListPrice
	}

	switch {
	case s.HorizonYears != nil:
		resolved.HorizonYears = *s.HorizonYears
	case conf.Common.HorizonYears != nil:
		resolved.HorizonYears = *conf.Common.HorizonYears
	default:
		resolved.HorizonYears = constants.DefaultHorizonYears
	}

	switch {
	case s.AnnualMileage != nil:
		resolved.AnnualMileage = *s.AnnualMileage
	case conf.Common.AnnualMileage != nil:
		resolved.AnnualMileage = *conf.Common.AnnualMileage
	default:
		resolved.AnnualMileage = constants.DefaultAnnualMileage
	}

	return resolved
}

// ActiveScenarios returns every active scenario with defaults applied, in
// configuration order.
func (conf *Configuration) ActiveScenarios() []ResolvedScenario {
	var scenarios []ResolvedScenario
	for _, s := range conf.Scenarios {
		if s.Active {
			scenarios = append(scenarios, conf.Resolve(s))
		}
	}
	return scenarios
}

// Validate returns the first setting that makes the configuration unusable.
func (conf *Configuration) Validate() error {
	if err := validation.ValidateDatasetDriver(conf.Dataset.Driver); err != nil {
		return err
	}
	switch conf.Dataset.Driver {
	case constants.DatasetDriverCSV, constants.DatasetDriverSQLite:
		if conf.Dataset.Path == "" {
			return fmt.Errorf("dataset path is required for driver %s", conf.Dataset.Driver)
		}
	case constants.DatasetDriverPostgres:
		if conf.Dataset.DSN == "" {
			return errors.New("dataset dsn (or DATABASE_URL) is required for driver postgres")
		}
	}

	if conf.Model.TestRatio < 0 || conf.Model.TestRatio >= 1 {
		return fmt.Errorf("model test ratio %v must be in [0, 1)", conf.Model.TestRatio)
	}
	if conf.Common.ListPrice < 0 {
		return fmt.Errorf("common list price %v must not be negative", conf.Common.ListPrice)
	}

	seen := make(map[string]struct{})
	for _, s := range conf.Scenarios {
		if s.Name == "" {
			return errors.New("every scenario needs a name")
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate scenario name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		r := conf.Resolve(s)
		if r.ListPrice < 0 {
			return fmt.Errorf("scenario %q: list price %v must not be negative", s.Name, r.ListPrice)
		}
		if r.HorizonYears < 0 {
			return fmt.Errorf("scenario %q: horizon years %d must not be negative", s.Name, r.HorizonYears)
		}
		if r.AnnualMileage < 0 {
			return fmt.Errorf("scenario %q: annual mileage %v must not be negative", s.Name, r.AnnualMileage)
		}
		if r.Mileage < 0 {
			return fmt.Errorf("scenario %q: mileage %v must not be negative", s.Name, r.Mileage)
		}
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (conf *Configuration) ValidateConfiguration() []string {
	validator := validation.ConfigValidator{
		ValuationYear: conf.Common.ValuationYear,
		DatasetDriver: conf.Dataset.Driver,
	}
	for _, s := range conf.Scenarios {
		r := conf.Resolve(s)
		validator.Scenarios = append(validator.Scenarios, validation.ScenarioConfig{
			Name:          r.Name,
			Active:        s.Active,
			VehicleYear:   r.VehicleYear,
			HorizonYears:  r.HorizonYears,
			AnnualMileage: r.AnnualMileage,
		})
	}
	return validator.ValidateAll()
}
