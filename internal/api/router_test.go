package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/KScore/internal/config"
	"github.com/MikeSquared-Agency/KScore/internal/hermes"
	"github.com/MikeSquared-Agency/KScore/internal/metrics"
	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
	"github.com/MikeSquared-Agency/KScore/internal/store"
)

// Mocks
type mockStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}
func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}
func (m *mockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}
func (m *mockStore) Close() error { return nil }

func (m *mockStore) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

type mockHermes struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (m *mockHermes) Publish(subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, data)
	return nil
}
func (m *mockHermes) Subscribe(_ string, _ func(string, []byte)) error { return nil }
func (m *mockHermes) Close()                                           {}

func (m *mockHermes) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

type testEnv struct {
	router  http.Handler
	store   *mockStore
	hermes  *mockHermes
	metrics *metrics.Metrics
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.AdminToken = "test-token"
	cfg.Server.RateLimit = 0
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Server.InstanceID = "node-test"
	cfg.Weights.Default = scoring.DefaultWeights()
	cfg.Weights.Bounds = scoring.Bounds{Min: 0, Max: 1}
	cfg.Plot.DefaultWidth = 900
	cfg.Plot.MaxWidth = 1000
	return cfg
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	env := &testEnv{
		store:   newMockStore(),
		hermes:  &mockHermes{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	rd := render.NewRenderer(scoring.DefaultModel(), cfg.RenderOptions(), logger)
	env.router = NewRouter(cfg, rd, env.store, env.hermes, env.metrics, logger)
	return env
}

func (e *testEnv) do(method, path string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := NewMetricsRouter()
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("GET", "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, `id="wp"`)
	assert.Contains(t, body, `id="wr"`)
	assert.Contains(t, body, "/api/v1/plot.svg?width=900")
	assert.Contains(t, body, `wp.addEventListener("input"`)
	assert.Contains(t, body, `addEventListener("resize"`)
	assert.Contains(t, body, "stage.clientWidth")
	assert.Contains(t, body, `id="cross-v"`)
	assert.Contains(t, body, `id="cross-h"`)
}

func TestPlotSVGRaw(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("GET", "/api/v1/plot.svg?width=300", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(renderIDHeader))
	assert.Contains(t, w.Body.String(), "<svg")

	assert.Empty(t, env.store.value(store.WeightKeyP), "raw renders must not touch stored weights")
	assert.Equal(t, []string{hermes.SubjectRenderCompleted("raw")}, env.hermes.published())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RendersTotal.WithLabelValues("raw", "svg")))
}

func TestPlotSVGPinnedCrosshair(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/plot.svg?width=300&px=40&py=50", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, strings.Count(w.Body.String(), `class="crosshair"`))

	// Off the plot: rendered, no crosshair.
	w = env.do("GET", "/api/v1/plot.svg?width=300&px=-40&py=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `class="crosshair"`)

	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/v1/plot.svg?px=40", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/v1/plot.svg?px=40&py=NaN", nil).Code)
}

func TestPlotSVGWeightedPersistsWeights(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("GET", "/api/v1/plot.svg?width=300&variant=weighted&wp=0.3", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "0.3", env.store.value(store.WeightKeyP))
	assert.Equal(t, "0.5", env.store.value(store.WeightKeyR))
	assert.Equal(t, []string{hermes.SubjectWeightsUpdated, hermes.SubjectRenderCompleted("weighted")}, env.hermes.published())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.WeightUpdates.WithLabelValues("render")))
	evt, ok := env.hermes.payloads[0].(hermes.WeightsUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, "node-test", evt.Origin)
	assert.Equal(t, "render", evt.Source)

	// Same weights again: saved but not announced.
	w = env.do("GET", "/api/v1/plot.svg?width=300&variant=weighted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.hermes.published(), 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.WeightUpdates.WithLabelValues("render")))
}

func TestPlotRenderSurvivesStoreFailure(t *testing.T) {
	env := setupTestRouter(t)
	env.store.failSet = true

	w := env.do("GET", "/api/v1/plot.svg?width=300&variant=weighted", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StoreErrors.WithLabelValues("save_weights")))
}

func TestPlotRejectsBadQuery(t *testing.T) {
	env := setupTestRouter(t)
	tests := []string{
		"/api/v1/plot.svg?width=abc",
		"/api/v1/plot.svg?width=-3",
		"/api/v1/plot.svg?variant=sideways",
		"/api/v1/plot.svg?variant=weighted&wp=2",
		"/api/v1/plot?variant=weighted&wr=lots",
		"/api/v1/plot?variant=weighted&wp=NaN",
		"/api/v1/plot.svg?variant=weighted&wr=Inf",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			w := env.do("GET", path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestPlotJSON(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("GET", "/api/v1/plot?width=300&variant=weighted", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, key := range []string{"id", "layout", "levels", "labels", "guides", "legend", "note", "weighted_range"} {
		assert.Contains(t, body, key)
	}

	var labels []struct {
		Value     float64 `json:"value"`
		Reference bool    `json:"reference"`
		Text      string  `json:"text"`
	}
	require.NoError(t, json.Unmarshal(body["labels"], &labels))
	var found bool
	for _, lb := range labels {
		if lb.Reference {
			found = true
			assert.Equal(t, 200.0, lb.Value)
			assert.Equal(t, "1.00", lb.Text)
		}
	}
	assert.True(t, found, "reference label missing")
}

func TestFieldParquet(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("GET", "/api/v1/field.parquet?width=300", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.apache.parquet", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PAR1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RendersTotal.WithLabelValues("raw", "parquet")))
}

func TestProbe(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/probe?x=10&y=10&width=300", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pr render.Probe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pr))
	assert.True(t, pr.Visible)
	assert.Len(t, pr.Lines, 4)
	assert.Len(t, pr.Crosshair, 2)

	w = env.do("GET", "/api/v1/probe?x=-5&y=10&width=300", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pr = render.Probe{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pr))
	assert.False(t, pr.Visible)

	w = env.do("GET", "/api/v1/probe?y=10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProbeWeightedUsesStoredWeights(t *testing.T) {
	env := setupTestRouter(t)
	env.store.data[store.WeightKeyP] = "1"
	env.store.data[store.WeightKeyR] = "0"

	w := env.do("GET", "/api/v1/probe?x=10&y=10&width=300&variant=weighted", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pr render.Probe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pr))
	require.NotNil(t, pr.Weighted)
	assert.InDelta(t, pr.KP/100, *pr.Weighted, 1e-9)
	assert.Len(t, pr.Lines, 5)
}

func TestNonFiniteInputRejected(t *testing.T) {
	env := setupTestRouter(t)
	tests := []string{
		"/api/v1/calibration/p?value=NaN",
		"/api/v1/calibration/r?value=Inf",
		"/api/v1/calibration/r?value=-Inf",
		"/api/v1/probe?x=NaN&y=10",
		"/api/v1/probe?x=10&y=-Inf",
		"/api/v1/probe?x=10&y=10&variant=weighted&wp=NaN",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			w := env.do("GET", path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestProbeValidatesWeightOverrides(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/probe?x=10&y=10&variant=weighted&wp=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "weight p 3 outside")

	// Overrides only apply to the weighted variant.
	w = env.do("GET", "/api/v1/probe?x=10&y=10&wp=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProbeStream(t *testing.T) {
	env := setupTestRouter(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/probe"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"x": 20, "y": 30, "width": 300}))
	var pr render.Probe
	require.NoError(t, conn.ReadJSON(&pr))
	assert.True(t, pr.Visible)
	assert.Equal(t, 20.0, pr.MX)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var errMsg map[string]string
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "invalid message", errMsg["error"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"x": 20, "y": 30, "variant": "nope"}))
	errMsg = nil
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.NotEmpty(t, errMsg["error"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"x": 20, "y": 30, "variant": "weighted", "wp": 4}))
	errMsg = nil
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Contains(t, errMsg["error"], "weight p 4 outside")

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"x": 5000, "y": 30, "width": 300}))
	pr = render.Probe{}
	require.NoError(t, conn.ReadJSON(&pr))
	assert.False(t, pr.Visible)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ProbesTotal.WithLabelValues("ws", "false")))
}

func TestCalibrationEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do("GET", "/api/v1/calibration/p?value=18", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp CalibrationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 100.0, resp.Score)
	assert.True(t, resp.InDomain)
	assert.Equal(t, []float64{14.4, 18, 21.6}, resp.Breaks)

	w = env.do("GET", "/api/v1/calibration/r?value=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = CalibrationResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp.Score)
	assert.False(t, resp.InDomain)

	assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/v1/calibration/q?value=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/v1/calibration/r?value=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/v1/calibration/r", nil).Code)
}

func TestWeightsGetDefaults(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("GET", "/api/v1/weights", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp WeightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.5, resp.P)
	assert.Equal(t, 0.5, resp.R)
	assert.Equal(t, 1.0, resp.Sum)
}

func TestWeightsPut(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("PUT", "/api/v1/weights", strings.NewReader(`{"p":0.2,"r":0.9}`), "Content-Type", "application/json")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "0.2", env.store.value(store.WeightKeyP))
	assert.Equal(t, "0.9", env.store.value(store.WeightKeyR))
	require.Equal(t, []string{hermes.SubjectWeightsUpdated}, env.hermes.published())

	evt, ok := env.hermes.payloads[0].(hermes.WeightsUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, "api", evt.Source)
	assert.Equal(t, 0.2, evt.P)

	w = env.do("GET", "/api/v1/weights", nil)
	var resp WeightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0.2, resp.P)
}

func TestWeightsPutRejectsInvalid(t *testing.T) {
	env := setupTestRouter(t)
	for _, body := range []string{`not json`, `{"p":1.5,"r":0.5}`, `{"p":0.5,"r":-1}`} {
		w := env.do("PUT", "/api/v1/weights", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, env.hermes.published())
}

func TestWeightsPutStoreFailure(t *testing.T) {
	env := setupTestRouter(t)
	env.store.failSet = true
	w := env.do("PUT", "/api/v1/weights", strings.NewReader(`{"p":0.2,"r":0.9}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, env.hermes.published())
}

func TestWeightsResetRequiresAdminToken(t *testing.T) {
	env := setupTestRouter(t)
	env.store.data[store.WeightKeyP] = "0.1"

	w := env.do("POST", "/api/v1/weights/reset", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/weights/reset", nil, "Authorization", "Bearer test-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.5", env.store.value(store.WeightKeyP))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.WeightUpdates.WithLabelValues("reset")))
}

func TestRouterWithoutHermes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	rd := render.NewRenderer(scoring.DefaultModel(), cfg.RenderOptions(), logger)
	router := NewRouter(cfg, rd, newMockStore(), nil, metrics.New(prometheus.NewRegistry()), logger)

	req := httptest.NewRequest("GET", "/api/v1/plot.svg?width=300&variant=weighted&wr=0.8", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter(t)
	w := env.do("OPTIONS", "/api/v1/weights", nil,
		"Origin", "https://dashboard.example.com",
		"Access-Control-Request-Method", "PUT",
	)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
