package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
	apierrors "pricepulse/internal/errors"
	"pricepulse/internal/scraper"
	"pricepulse/internal/shared/testutil"
	api "pricepulse/pkg/contracts/api/v1"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	cfg.Analysis.Location = "UTC"
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	app, err := newApplication(cfg, paths, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func serve(app *Application, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication_Routes(t *testing.T) {
	app := newTestApplication(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, config.HealthEndpoint, http.StatusOK},
		{"readiness", http.MethodGet, config.ReadinessEndpoint, http.StatusOK},
		{"liveness", http.MethodGet, config.LivenessEndpoint, http.StatusOK},
		{"version", http.MethodGet, "/api/version", http.StatusOK},
		{"latest before any run", http.MethodGet, "/api/analysis/latest", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/nowhere", http.StatusNotFound},
		{"metrics", http.MethodGet, config.MetricsEndpoint, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_NotFoundIsProblemDocument(t *testing.T) {
	app := newTestApplication(t, testConfig())

	rec := serve(app, http.MethodGet, "/nowhere", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem apierrors.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeNotFound, problem.Type)
	assert.Equal(t, "/nowhere", problem.Instance)
}

func TestApplication_AnalyzeAndExport(t *testing.T) {
	app := newTestApplication(t, testConfig())

	body := `{"item_name":"Chroma 3 Case","export":true,"points":` + testutil.PriceDataJSON + `}`
	rec := serve(app, http.MethodPost, config.AnalyzeEndpoint, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Statistics.TotalPoints)
	require.NotNil(t, resp.Export)
	assert.FileExists(t, resp.Export.Detailed)
	assert.FileExists(t, resp.Export.Simplified)
	assert.FileExists(t, resp.Export.Summary)
	assert.Contains(t, resp.Export.Detailed, app.Paths.ExportsDir)

	latest := serve(app, http.MethodGet, "/api/analysis/latest", "")
	require.Equal(t, http.StatusOK, latest.Code)

	var last api.AnalysisResponse
	require.NoError(t, json.Unmarshal(latest.Body.Bytes(), &last))
	assert.Equal(t, resp.RunID, last.RunID)

	metrics := serve(app, http.MethodGet, config.MetricsEndpoint, "")
	assert.Contains(t, metrics.Body.String(), "analysis_runs_total")
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
}

func TestApplication_AnalyzeExportOverride(t *testing.T) {
	tests := []struct {
		name       string
		export     string
		wantExport bool
	}{
		{"configured default", "", true},
		{"explicit false", `"export":false,`, false},
		{"explicit true", `"export":true,`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t, testConfig())
			require.True(t, app.Config.Export.Enabled)

			body := `{"item_name":"Chroma 3 Case",` + tt.export + `"points":` + testutil.PriceDataJSON + `}`
			rec := serve(app, http.MethodPost, config.AnalyzeEndpoint, body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp api.AnalysisResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			entries, err := os.ReadDir(app.Paths.ExportsDir)
			require.NoError(t, err)
			if tt.wantExport {
				assert.NotNil(t, resp.Export)
				assert.NotEmpty(t, entries)
			} else {
				assert.Nil(t, resp.Export)
				assert.Empty(t, entries)
			}
		})
	}
}

func TestApplication_AnalyzeRejectsSingleValidPoint(t *testing.T) {
	app := newTestApplication(t, testConfig())

	rec := serve(app, http.MethodPost, config.AnalyzeEndpoint, `{"points":[[1700000000,"1.00"],["bad","2.00"]]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestApplication_MethodNotAllowed(t *testing.T) {
	app := newTestApplication(t, testConfig())

	rec := serve(app, http.MethodGet, config.AnalyzeEndpoint, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApplication(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, config.HealthEndpoint, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, config.HealthEndpoint, "").Code)
}

func TestApplication_Scheduler(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		app := newTestApplication(t, testConfig())
		assert.Nil(t, app.Scheduler)
	})

	t.Run("enabled registers the listing job", func(t *testing.T) {
		cfg := testConfig()
		cfg.Schedule.Enabled = true
		cfg.Schedule.Spec = "0 0 * * * *"
		app := newTestApplication(t, cfg)

		require.NotNil(t, app.Scheduler)
		app.Scheduler.Start()
		t.Cleanup(func() { _ = app.Scheduler.Stop(context.Background()) })
		assert.False(t, app.Scheduler.Next(ListingJobName).IsZero())
	})

	t.Run("bad spec fails construction", func(t *testing.T) {
		cfg := testConfig()
		cfg.Schedule.Enabled = true
		cfg.Schedule.Spec = "every tuesday"

		logger, _ := testutil.NewTestLogger(t)
		_, err := newApplication(cfg, config.NewPaths(t.TempDir()), logger)
		assert.Error(t, err)
	})
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ShutdownTimeout = 5 * time.Second
	app := newTestApplication(t, cfg)
	app.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestGetCORSConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 9090
	app := &Application{Config: cfg}

	assert.Equal(t, []string{"http://localhost:9090", "http://127.0.0.1:9090"}, app.getCORSConfig().AllowedOrigins)

	cfg.Logging.Development = true
	assert.Contains(t, app.getCORSConfig().AllowedOrigins, "http://localhost:3000")
}

func TestNewAnalyzer(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	analyzer, err := NewAnalyzer(config.AnalysisConfig{WindowDays: 30, Location: "UTC"}, logger)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, analyzer.Window())
	assert.Equal(t, time.UTC, analyzer.Location())

	_, err = NewAnalyzer(config.AnalysisConfig{WindowDays: 30, Location: "Mars/Olympus_Mons"}, logger)
	assert.Error(t, err)
}

func TestNewSourceFactory(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	factory := NewSourceFactory(config.Default().Scraper, config.NewPaths(t.TempDir()), logger)

	src := factory("", "")
	assert.IsType(t, &scraper.BrowserSource{}, src)
	assert.NotSame(t, src, factory("https://steamcommunity.com/market/listings/730/Other", "Other"))
}
