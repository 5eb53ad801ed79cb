package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stockDashboard/internal/analysis/pipeline"
	"stockDashboard/internal/dashboard"
	"stockDashboard/internal/domain"
	"stockDashboard/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type fakeTables struct {
	table *domain.PriceTable
	err   error
}

func (f *fakeTables) Table(ctx context.Context) (*domain.PriceTable, error) {
	return f.table, f.err
}

// testTable holds Monday 2024-01-01 through Sunday 2024-01-14.
func testTable() *domain.PriceTable {
	table := domain.NewPriceTable([]string{"Close_AAPL", "Close_NVDA"})
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		table.AppendRow(start.AddDate(0, 0, i), map[string]float64{
			"Close_AAPL": 100 + float64(i),
			"Close_NVDA": 40.5 + float64(i),
		})
	}
	return table
}

func newTestServer(t *testing.T, tables TableProvider, cfg Config) *Server {
	t.Helper()
	s, err := NewServer(cfg, tables, pipeline.New(pipeline.Config{RSIEnabled: cfg.RSIEnabled}), &mockLogger{})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	_, err := NewServer(Config{}, nil, pipeline.New(pipeline.Config{}), &mockLogger{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{})

	w := do(s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestOptions(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{RSIEnabled: true, DefaultThreshold: 120})

	w := do(s, http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp optionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Companies, 5)
	assert.Equal(t, option{Value: "AAPL", Label: "Apple"}, resp.Companies[0])
	assert.Equal(t, []string{"daily", "weekly", "monthly"}, resp.Granularities)
	assert.Equal(t, []string{"line", "candlestick", "area"}, resp.ChartTypes)
	assert.Equal(t, option{Value: "sma20", Label: "SMA 20"}, resp.Indicators[1])
	assert.Len(t, resp.Weekdays, 7)
	assert.Equal(t, "Sun", resp.Weekdays[6].Label)
	assert.Equal(t, 120.0, resp.Defaults.PriceThreshold)
	assert.Equal(t, []domain.Ticker{domain.AAPL, domain.NVDA}, resp.Defaults.Tickers)
	assert.True(t, resp.RSIEnabled)
}

func TestThreshold(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"defaults", "/api/threshold", 113},
		{"single ticker", "/api/threshold?tickers=nvda", 53},
		{"unknown ticker falls back", "/api/threshold?tickers=MSFT", 100},
		{"empty list falls back", "/api/threshold?tickers=", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, w.Code)

			var resp thresholdResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Bound)
		})
	}
}

func TestDashboard_Defaults(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{})

	w := do(s, http.MethodPost, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view dashboard.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 113, view.ThresholdBound)
	assert.Equal(t, 113.0, view.Threshold)
	require.NotNil(t, view.Figure)
	require.Len(t, view.Figure.Traces, 2)
	assert.Len(t, view.Figure.Traces[0].X, 10)
	assert.Equal(t, "$111.00", view.MetricColumns[0][0].Value)
	assert.Equal(t, "11.00 (11.00%)", view.MetricColumns[0][0].Delta)
}

func TestDashboard_PartialSelection(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{})

	body := `{"tickers":["NVDA","GOOGL"],"weekdays":[0,1,2,3,4,5,6],"indicator":"ema50","showHover":false}`
	w := do(s, http.MethodPost, "/api/dashboard", body)
	require.Equal(t, http.StatusOK, w.Code)

	raw := w.Body.String()
	assert.Contains(t, raw, `"hovermode":false`)
	assert.Contains(t, raw, `"EMA 50 (NVDA)"`)
	assert.Contains(t, raw, `"missing_column"`)

	var view dashboard.View
	require.NoError(t, json.Unmarshal([]byte(raw), &view))
	assert.Equal(t, domain.Daily, view.Selection.Granularity)
	require.NotNil(t, view.Figure)
	assert.Len(t, view.Figure.Traces[0].X, 14)
}

func TestDashboard_NoTickers(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{})

	w := do(s, http.MethodPost, "/api/dashboard", `{"tickers":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No companies selected")
	assert.NotContains(t, w.Body.String(), `"figure"`)
}

func TestDashboard_BadRequests(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{})

	tests := []struct {
		name string
		body string
	}{
		{"unknown granularity", `{"granularity":"hourly"}`},
		{"weekday out of range", `{"weekdays":[7]}`},
		{"unknown indicator", `{"indicator":"macd"}`},
		{"malformed json", `{"tickers":`},
		{"wrong type", `{"weekdays":"mon"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, http.MethodPost, "/api/dashboard", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_request", resp["code"])
		})
	}
}

func TestDashboard_SourceUnavailable(t *testing.T) {
	s := newTestServer(t, &fakeTables{err: ports.ErrSourceUnavailable}, Config{})

	w := do(s, http.MethodPost, "/api/dashboard", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(s, http.MethodGet, "/api/threshold", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, &fakeTables{table: testTable()}, Config{Host: "127.0.0.1", Port: 0})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
