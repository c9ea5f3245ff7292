package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/depreciation-forecast/internal/cache"
	"github.com/iwvelando/depreciation-forecast/internal/config"
	"github.com/iwvelando/depreciation-forecast/pkg/regression"
	"go.uber.org/zap"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// testModel predicts 20% for a 2022 car with 30,000 km; every year older adds
// five points and every 10,000 km one point.
func testModel() Model {
	return Model{
		Regression: &regression.LinearModel{
			FeatureNames: []string{"year", "mileage"},
			Means:        []float64{2022, 30000},
			Scales:       []float64{1, 10000},
			Intercept:    20,
			Coefficients: []float64{-5, 1},
		},
		Evaluation: regression.Evaluation{
			R2:        0.95,
			RMSE:      1.2,
			TrainSize: 19,
			TestSize:  5,
		},
		MeanListPrice: 40000,
		Defaults: config.Common{
			ValuationYear: 2025,
			ListPrice:     35000,
			HorizonYears:  intPtr(2),
			AnnualMileage: floatPtr(15000),
		},
	}
}

func newTestHandler(store cache.Repository) http.Handler {
	return NewHandler(zap.NewNop(), testModel(), store, nil, "v1.2.3")
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandleRoot(t *testing.T) {
	rr := doRequest(newTestHandler(nil), http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["message"] != "Depreciation API is running" {
		t.Fatalf("unexpected message %q", resp["message"])
	}
}

func TestHandleVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		expected string
	}{
		{"explicit", "v1.2.3", "v1.2.3"},
		{"empty", "  ", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(zap.NewNop(), testModel(), nil, nil, tt.version)
			rr := doRequest(h, http.MethodGet, "/api/version", "")
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["version"] != tt.expected {
				t.Fatalf("expected version %s, got %s", tt.expected, resp["version"])
			}
		})
	}
}

func TestHandlePredict(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		prediction string
	}{
		{"italian keys", `{"anno": 2022, "chilometri": 30000, "extra": "x"}`, http.StatusOK, "20.00%"},
		{"english keys with string year", `{"year": "2020", "mileage": 50000}`, http.StatusOK, "32.00%"},
		{"arbitrary object", `{"param1": 1}`, http.StatusOK, "provide year and mileage to estimate depreciation"},
		{"null body", `null`, http.StatusBadRequest, ""},
		{"not an object", `[1, 2]`, http.StatusBadRequest, ""},
		{"invalid json", `{`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(newTestHandler(nil), http.MethodPost, "/predict", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp predictResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Prediction != tt.prediction {
				t.Errorf("expected prediction %q, got %q", tt.prediction, resp.Prediction)
			}
			if resp.ReceivedParams == nil {
				t.Errorf("expected received_params to be echoed")
			}
		})
	}
}

func TestHandlePredictEchoesParams(t *testing.T) {
	rr := doRequest(newTestHandler(nil), http.MethodPost, "/predict", `{"anno": 2022, "chilometri": 30000, "extra": "x"}`)

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	params := raw["received_params"]
	if params["extra"] != "x" || params["anno"] != float64(2022) {
		t.Fatalf("unexpected echoed params %v", params)
	}
}

func TestHandlePredictKeepsNumberText(t *testing.T) {
	rr := doRequest(newTestHandler(nil), http.MethodPost, "/predict", `{"year": 2022, "mileage": 30000, "vin": 12345678901234567890}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"vin":12345678901234567890`) {
		t.Errorf("expected the number echoed unchanged, got %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"prediction":"20.00%"`) {
		t.Errorf("expected a prediction from numeric fields, got %s", rr.Body.String())
	}
}

func TestHandleForecast(t *testing.T) {
	store := cache.NewMemoryCache()
	h := newTestHandler(store)
	body := `{"name": "golf", "vehicleYear": 2022, "mileage": 30000}`

	rr := doRequest(h, http.MethodPost, "/api/forecast", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp forecastResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, err := uuid.Parse(resp.RunID); err != nil {
		t.Errorf("expected a uuid run id, got %q", resp.RunID)
	}
	if resp.Cached {
		t.Errorf("expected the first response to be computed")
	}

	points := resp.Forecast.Projection.Points
	expectedValues := []float64{28000, 21658, 17000.98855}
	if len(points) != len(expectedValues) {
		t.Fatalf("expected %d points, got %d", len(expectedValues), len(points))
	}
	for i, expected := range expectedValues {
		if math.Abs(points[i].EstimatedValue-expected) > 1e-6 {
			t.Errorf("point %d: expected %v, got %v", i, expected, points[i].EstimatedValue)
		}
	}
	if points[0].Year != 2025 || points[2].CumulativeMileage != 60000 {
		t.Errorf("unexpected points %+v", points)
	}
	if len(resp.Forecast.Projection.Losses) != 2 {
		t.Errorf("expected 2 losses, got %d", len(resp.Forecast.Projection.Losses))
	}

	again := doRequest(h, http.MethodPost, "/api/forecast", body)
	var cachedResp forecastResponse
	if err := json.Unmarshal(again.Body.Bytes(), &cachedResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !cachedResp.Cached {
		t.Errorf("expected the second response to come from the cache")
	}
	if cachedResp.RunID == resp.RunID {
		t.Errorf("expected a new run id per request")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 cached entry, got %d", store.Len())
	}
}

func TestHandleForecastOverrides(t *testing.T) {
	body := `{"vehicleYear": 2022, "mileage": 30000, "valuationYear": 2030, "listPrice": 50000, "horizonYears": 0, "annualMileage": 0}`
	rr := doRequest(newTestHandler(nil), http.MethodPost, "/api/forecast", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp forecastResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Forecast.Projection.Points) != 1 {
		t.Fatalf("expected a single point for a zero horizon, got %d", len(resp.Forecast.Projection.Points))
	}
	point := resp.Forecast.Projection.Points[0]
	if point.Year != 2030 || math.Abs(point.EstimatedValue-40000) > 1e-6 {
		t.Errorf("unexpected point %+v", point)
	}
	if resp.Forecast.Name != "2022 with 30000 km" {
		t.Errorf("unexpected default name %q", resp.Forecast.Name)
	}
}

func TestHandleForecastErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid json", `{"vehicleYear": `, http.StatusBadRequest},
		{"missing vehicle year", `{"mileage": 30000}`, http.StatusBadRequest},
		{"horizon too long", `{"vehicleYear": 2022, "horizonYears": 60}`, http.StatusUnprocessableEntity},
		{"negative horizon", `{"vehicleYear": 2022, "horizonYears": -1}`, http.StatusUnprocessableEntity},
		{"negative list price", `{"vehicleYear": 2022, "listPrice": -1}`, http.StatusUnprocessableEntity},
		{"non-physical rate", `{"vehicleYear": 2022, "annualMileage": 100000}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(newTestHandler(nil), http.MethodPost, "/api/forecast", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] == "" {
				t.Errorf("expected an error message")
			}
		})
	}
}

func TestHandleForecastBodyLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetUploadSizeBytes(16)
	h := NewHandler(zap.NewNop(), testModel(), nil, cfg, "")

	rr := doRequest(h, http.MethodPost, "/api/forecast", `{"vehicleYear": 2022, "mileage": 30000}`)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleForecastWithoutModel(t *testing.T) {
	h := NewHandler(zap.NewNop(), Model{}, nil, nil, "")

	if rr := doRequest(h, http.MethodPost, "/api/forecast", `{"vehicleYear": 2022}`); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 for forecast, got %d", rr.Code)
	}
	if rr := doRequest(h, http.MethodGet, "/api/model", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 for model, got %d", rr.Code)
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string) error {
	return errors.New("cache down")
}

func TestHandleForecastCacheFailure(t *testing.T) {
	rr := doRequest(newTestHandler(failingCache{}), http.MethodPost, "/api/forecast", `{"vehicleYear": 2022, "mileage": 30000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected cache failures to be tolerated, got %d", rr.Code)
	}
}

func TestHandleReport(t *testing.T) {
	rr := doRequest(newTestHandler(nil), http.MethodPost, "/api/report", `{"name": "golf", "vehicleYear": 2022, "mileage": 30000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %s", ct)
	}
	for _, e := range []string{"<h2>golf</h2>", "<table>", "€21,658.00"} {
		if !strings.Contains(rr.Body.String(), e) {
			t.Errorf("report missing %q", e)
		}
	}
}

func TestHandleModel(t *testing.T) {
	rr := doRequest(newTestHandler(nil), http.MethodGet, "/api/model", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp modelResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Intercept != 20 || resp.MeanListPrice != 40000 {
		t.Errorf("unexpected model response %+v", resp)
	}
	if resp.Evaluation.TrainSize != 19 || resp.Evaluation.R2 != 0.95 {
		t.Errorf("unexpected evaluation %+v", resp.Evaluation)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	newTestHandler(nil).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allowed origin for unknown origin, got %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := doRequest(newTestHandler(nil), http.MethodGet, "/predict", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandlePredictModelError(t *testing.T) {
	h := NewHandler(zap.NewNop(), Model{Regression: &regression.LinearModel{}}, nil, nil, "")
	rr := doRequest(h, http.MethodPost, "/predict", `{"year": 2022, "mileage": 1}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 for a malformed model, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(nil)
	doRequest(h, http.MethodPost, "/predict", `{"anno": 2022, "chilometri": 30000}`)
	doRequest(h, http.MethodPost, "/api/forecast", `{"vehicleYear": 2022, "mileage": 30000}`)
	doRequest(h, http.MethodPost, "/api/forecast", `{"vehicleYear": 2022, "mileage": 30000}`)

	rr := doRequest(h, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body := rr.Body.String()
	expected := []string{
		`depreciation_predictions_total{estimated="true"} 1`,
		`depreciation_forecasts_total{cached="false"} 1`,
		`depreciation_forecasts_total{cached="true"} 1`,
		`depreciation_http_requests_total{method="POST",route="/api/forecast",status="200"} 2`,
	}
	for _, e := range expected {
		if !strings.Contains(body, e) {
			t.Errorf("metrics missing %q", e)
		}
	}
}
