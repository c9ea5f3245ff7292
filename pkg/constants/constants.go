// Package constants provides shared constants for the depreciation-forecast application.
package constants

// Depreciation curve constants
const (
	// InitialBaseRate is the age-driven annual depreciation rate before the first decay step (9%).
	InitialBaseRate = 0.09

	// BaseRateDecay is applied to the base rate before each projected year.
	BaseRateDecay = 0.85

	// MileageReference is the annual distance, in km, that the mileage coefficient is normalized to.
	MileageReference = 20000.0

	// MileageCoefficient is the extra annual depreciation rate per MileageReference km driven.
	MileageCoefficient = 0.20

	// MaxHorizonYears bounds the projection horizon accepted from configuration and the API.
	MaxHorizonYears = 50
)

// Analysis constants
const (
	// SteepTrendDelta is the drop, in percentage points, between first and last annual loss
	// above which the depreciation curve is considered steep.
	SteepTrendDelta = 5.0
)

// LossThresholds are the annual loss percentages reported by the projection analysis.
var LossThresholds = []float64{8, 5, 3}

// Projection defaults
const (
	// DefaultValuationYear is the valuation year used when neither the configuration nor the request sets one.
	DefaultValuationYear = 2025

	// DefaultHorizonYears is the default number of projected years.
	DefaultHorizonYears = 5

	// DefaultAnnualMileage is the default assumed distance driven per year, in km.
	DefaultAnnualMileage = 15000.0
)

// Model defaults
const (
	// DefaultTestRatio is the share of listings held out to evaluate the regression.
	DefaultTestRatio = 0.2

	// DefaultSeed makes the train/test split reproducible.
	DefaultSeed int64 = 42
)

// Dataset drivers
const (
	DatasetDriverCSV      = "csv"
	DatasetDriverSQLite   = "sqlite"
	DatasetDriverPostgres = "postgres"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatMarkdown is the markdown report format
	OutputFormatMarkdown = "markdown"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8000"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultAllowedOrigin is the frontend origin allowed by CORS
	DefaultAllowedOrigin = "http://localhost:3000"

	// DefaultCacheTTLSeconds is how long cached API responses live in Redis
	DefaultCacheTTLSeconds = 600
)

// Numeric constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
