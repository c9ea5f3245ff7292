// Package server exposes the depreciation model and projections over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/iwvelando/depreciation-forecast/internal/cache"
	"github.com/iwvelando/depreciation-forecast/internal/config"
	"github.com/iwvelando/depreciation-forecast/internal/forecast"
	"github.com/iwvelando/depreciation-forecast/pkg/constants"
	"github.com/iwvelando/depreciation-forecast/pkg/depreciation"
	"github.com/iwvelando/depreciation-forecast/pkg/format"
	"github.com/iwvelando/depreciation-forecast/pkg/output"
	"github.com/iwvelando/depreciation-forecast/pkg/regression"
	"go.uber.org/zap"
)

// Model bundles the fitted regression with the defaults applied to requests.
type Model struct {
	Regression    *regression.LinearModel
	Evaluation    regression.Evaluation
	MeanListPrice float64
	Defaults      config.Common
}

type handler struct {
	logger        *zap.Logger
	model         Model
	defaults      config.Configuration
	cache         cache.Repository
	metrics       *metrics
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the prediction and forecast API.
func NewHandler(logger *zap.Logger, model Model, store cache.Repository, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if store == nil {
		store = cache.NewMemoryCache()
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	defaults := config.Configuration{Common: model.Defaults}
	defaults.ApplyDefaults()

	h := &handler{
		logger:        logger,
		model:         model,
		defaults:      defaults,
		cache:         store,
		metrics:       newMetrics(),
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{constants.DefaultAllowedOrigin}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.instrument(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", h.handleRoot)
	r.Method(http.MethodGet, "/metrics", h.metrics.handler())
	r.Post("/predict", h.handlePredict)
	r.Route("/api", func(r chi.Router) {
		r.Post("/forecast", h.handleForecast)
		r.Post("/report", h.handleReport)
		r.Get("/model", h.handleModel)
		r.Get("/version", h.handleVersion)
	})

	return r
}

func (h *handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Depreciation API is running",
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

type modelResponse struct {
	FeatureNames  []string              `json:"featureNames"`
	Intercept     float64               `json:"intercept"`
	MeanListPrice float64               `json:"meanListPrice"`
	Evaluation    regression.Evaluation `json:"evaluation"`
}

func (h *handler) handleModel(w http.ResponseWriter, r *http.Request) {
	if h.model.Regression == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "no trained model", "server.handleModel")
		return
	}
	h.writeJSON(w, http.StatusOK, modelResponse{
		FeatureNames:  h.model.Regression.FeatureNames,
		Intercept:     h.model.Regression.Intercept,
		MeanListPrice: h.model.MeanListPrice,
		Evaluation:    h.model.Evaluation,
	})
}

type predictResponse struct {
	ReceivedParams map[string]interface{} `json:"received_params"`
	Prediction     string                 `json:"prediction"`
}

// handlePredict echoes the received parameters. When they name a vehicle year
// and mileage the prediction is the model's depreciation estimate.
func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePredict"

	var params map[string]interface{}
	if !h.decodeJSON(w, r, &params, op) {
		return
	}
	if params == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "request body must be a JSON object", op)
		return
	}

	response := predictResponse{ReceivedParams: params}
	estimated := false

	year, yearOK := lookupNumber(params, "year", "anno", "vehicleYear")
	mileage, mileageOK := lookupNumber(params, "mileage", "chilometri", "km")
	switch {
	case !yearOK || !mileageOK:
		response.Prediction = "provide year and mileage to estimate depreciation"
	case h.model.Regression == nil:
		response.Prediction = "no trained model available"
	default:
		pct, err := h.model.Regression.Predict(year, mileage)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("prediction failed: %v", err), op)
			return
		}
		response.Prediction = format.Percent(pct)
		estimated = true
	}
	h.metrics.predictions.WithLabelValues(strconv.FormatBool(estimated)).Inc()

	h.writeJSON(w, http.StatusOK, response)
}

// lookupNumber returns the first key present in params holding a number or a
// numeric string. Numbers arrive as json.Number since decodeJSON keeps their
// original text.
func lookupNumber(params map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		raw, ok := params[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

type forecastRequest struct {
	Name          string   `json:"name"`
	VehicleYear   int      `json:"vehicleYear"`
	Mileage       float64  `json:"mileage"`
	ValuationYear int      `json:"valuationYear"`
	ListPrice     float64  `json:"listPrice"`
	HorizonYears  *int     `json:"horizonYears"`
	AnnualMileage *float64 `json:"annualMileage"`
}

type forecastResponse struct {
	RunID    string            `json:"runId"`
	Cached   bool              `json:"cached"`
	Forecast forecast.Forecast `json:"forecast"`
	Duration string            `json:"duration"`
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	start := time.Now()

	scenario, ok := h.decodeScenario(w, r, op)
	if !ok {
		return
	}

	result, cached, ok := h.forecast(w, r, scenario, op)
	if !ok {
		return
	}

	h.metrics.forecasts.WithLabelValues(strconv.FormatBool(cached)).Inc()

	elapsed := time.Since(start)
	response := forecastResponse{
		RunID:    uuid.NewString(),
		Cached:   cached,
		Forecast: result,
		Duration: elapsed.String(),
	}

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.String("runId", response.RunID),
		zap.String("scenario", result.Name),
		zap.Bool("cached", cached),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	scenario, ok := h.decodeScenario(w, r, op)
	if !ok {
		return
	}

	result, _, ok := h.forecast(w, r, scenario, op)
	if !ok {
		return
	}

	html, err := output.HTMLString([]forecast.Forecast{result})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		h.logger.Error("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

// decodeScenario reads a forecast request and applies the configured defaults.
func (h *handler) decodeScenario(w http.ResponseWriter, r *http.Request, op string) (config.ResolvedScenario, bool) {
	var req forecastRequest
	if !h.decodeJSON(w, r, &req, op) {
		return config.ResolvedScenario{}, false
	}
	if req.VehicleYear <= 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "vehicleYear is required", op)
		return config.ResolvedScenario{}, false
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("%d with %.0f km", req.VehicleYear, req.Mileage)
	}

	scenario := h.defaults.Resolve(config.Scenario{
		Name:          req.Name,
		Active:        true,
		VehicleYear:   req.VehicleYear,
		Mileage:       req.Mileage,
		ListPrice:     req.ListPrice,
		HorizonYears:  req.HorizonYears,
		AnnualMileage: req.AnnualMileage,
	})
	if req.ValuationYear != 0 {
		scenario.ValuationYear = req.ValuationYear
	}
	if scenario.HorizonYears > constants.MaxHorizonYears {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("horizonYears %d exceeds the maximum of %d", scenario.HorizonYears, constants.MaxHorizonYears), op)
		return config.ResolvedScenario{}, false
	}
	return scenario, true
}

// forecast projects the scenario, serving repeated requests from the cache.
func (h *handler) forecast(w http.ResponseWriter, r *http.Request, scenario config.ResolvedScenario, op string) (forecast.Forecast, bool, bool) {
	if h.model.Regression == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, "no trained model", op)
		return forecast.Forecast{}, false, false
	}

	payload, err := json.Marshal(scenario)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return forecast.Forecast{}, false, false
	}
	key := cache.Key("forecast", payload)

	if cached, found, err := h.cache.Get(r.Context(), key); err != nil {
		h.logger.Warn("cache lookup failed",
			zap.String("op", op),
			zap.Error(err),
		)
	} else if found {
		var result forecast.Forecast
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			return result, true, true
		}
	}

	result, err := forecast.Project(h.model.Regression, scenario, h.model.MeanListPrice)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, depreciation.ErrInvalidParameter) || errors.Is(err, depreciation.ErrNonPhysicalRate) {
			status = http.StatusUnprocessableEntity
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return forecast.Forecast{}, false, false
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := h.cache.Set(r.Context(), key, string(encoded)); err != nil {
			h.logger.Warn("cache store failed",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}
	return result, false, true
}

func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
