package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgseong/emp/internal/config"
	"github.com/cgseong/emp/internal/dataset"
	"github.com/cgseong/emp/internal/stats"
)

const testCSV = `조사년도,학번,취업구분1,기업지역,기업구분,회사구분
2020,20160001,취업,서울,사기업,대기업
2020,20160002,취업,경기,공공기관,공기업
2020,20160003,미취업,,,
2021,20170001,취업,서울,사기업,중소기업
2021,20170002,진학,,,
2021,20170003,외국인,,,
`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: 10 * time.Second,
		},
		Dataset: config.DatasetConfig{AllowReload: true},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

// newTestServer writes csv to a temp file and builds a server around it.
// It returns the server and the dataset path for tests that rewrite it.
func newTestServer(t *testing.T, csv string) (*Server, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "graduates.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	store, err := dataset.NewStore(path)
	require.NoError(t, err)

	return NewServer(store, testConfig()), path
}

// get performs a request against the router and decodes the JSON body into out.
func get(t *testing.T, s *Server, target string, out any) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	resp := rec.Result()
	if out != nil {
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp
}

func TestSummaryHandler(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got SummaryResponse
	resp := get(t, s, "/api/summary", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, got.Stats.Total)
	assert.Equal(t, 3, got.Stats.Employed)
	assert.Equal(t, 1, got.Stats.Unemployed)
	assert.InDelta(t, 75.0, got.Stats.Rate, 0.01)
	assert.Equal(t, dataset.EncodingUTF8, got.Dataset.Encoding)
}

func TestSummaryHandler_YearFilter(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got SummaryResponse
	get(t, s, "/api/summary?year=2021", &got)

	// 2021 eligible: one employed, 진학/외국인 excluded entirely
	assert.Equal(t, 1, got.Stats.Total)
	assert.Equal(t, 1, got.Stats.Employed)
	assert.Equal(t, 0, got.Stats.Unemployed)
	assert.InDelta(t, 100.0, got.Stats.Rate, 0.01)
}

func TestSummaryHandler_RegionFilter(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got SummaryResponse
	get(t, s, "/api/summary?region="+url.QueryEscape("서울"), &got)

	// region restricts the employed count only; total spans all years
	assert.Equal(t, 4, got.Stats.Total)
	assert.Equal(t, 2, got.Stats.Employed)
	assert.Equal(t, 2, got.Stats.Unemployed)
}

func TestYearlyHandler(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got SummaryTableResponse[stats.YearSummary]
	resp := get(t, s, "/api/yearly", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, stats.YearSummary{Year: 2020, Total: 3, Employed: 2, Unemployed: 1, Rate: 66.7}, got.Rows[0])
	assert.Equal(t, stats.YearSummary{Year: 2021, Total: 1, Employed: 1, Unemployed: 0, Rate: 100.0}, got.Rows[1])
	assert.Empty(t, got.Error)
}

func TestCategoryHandlers(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var regions SummaryTableResponse[stats.CategorySummary]
	get(t, s, "/api/regions", &regions)
	require.Len(t, regions.Rows, 2)
	assert.Equal(t, stats.CategorySummary{Value: "서울", Count: 2, Share: 66.7}, regions.Rows[0])
	assert.Equal(t, stats.CategorySummary{Value: "경기", Count: 1, Share: 33.3}, regions.Rows[1])

	var sizes SummaryTableResponse[stats.CategorySummary]
	get(t, s, "/api/company-sizes?year=2020", &sizes)
	require.Len(t, sizes.Rows, 2)
	for _, row := range sizes.Rows {
		assert.Equal(t, 1, row.Count)
		assert.InDelta(t, 50.0, row.Share, 0.01)
	}
}

func TestCategoryHandler_MissingColumn(t *testing.T) {
	s, _ := newTestServer(t, "조사년도,취업구분1\n2020,취업\n")

	var got SummaryTableResponse[stats.CategorySummary]
	resp := get(t, s, "/api/regions", &got)

	// missing column blanks this section but is not a request failure
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, got.Rows)
	assert.Contains(t, got.Error, dataset.ColRegion)

	// the yearly section still works
	var yearly SummaryTableResponse[stats.YearSummary]
	get(t, s, "/api/yearly", &yearly)
	assert.Len(t, yearly.Rows, 1)
	assert.Empty(t, yearly.Error)
}

func TestOptionsHandler(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got stats.Options
	get(t, s, "/api/options", &got)

	assert.Equal(t, []int{2020, 2021}, got.Years)
	assert.Equal(t, []string{"경기", "서울"}, got.Regions)
	assert.Equal(t, []string{"공공기관", "사기업"}, got.EmployerTypes)
}

func TestRecordsHandler(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got RecordsResponse
	get(t, s, "/api/records", &got)
	assert.Equal(t, 3, got.Total)
	assert.Len(t, got.Records, 3)

	// free-text search runs after the dimension filter
	get(t, s, "/api/records?year=2020&q="+url.QueryEscape("서울"), &got)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "20160001", got.Records[0].StudentID)
}

func TestRecordsHandler_Pagination(t *testing.T) {
	var b strings.Builder
	b.WriteString("조사년도,학번,취업구분1\n")
	for i := 0; i < 7; i++ {
		b.WriteString("2020,2016000")
		b.WriteByte(byte('0' + i))
		b.WriteString(",취업\n")
	}
	s, _ := newTestServer(t, b.String())

	var got RecordsResponse
	get(t, s, "/api/records?per_page=3&page=3", &got)

	assert.Equal(t, 7, got.Total)
	assert.Equal(t, 3, got.Page)
	assert.Len(t, got.Records, 1)
}

func TestRecordsHandler_PageBeyondEnd(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	// A page number large enough to overflow page*per_page must still
	// produce an empty page, not a panic.
	for _, page := range []string{"4", "9223372036854775806"} {
		var got RecordsResponse
		resp := get(t, s, "/api/records?per_page=500&page="+page, &got)

		assert.Equal(t, http.StatusOK, resp.StatusCode, "page=%s", page)
		assert.Equal(t, 3, got.Total, "page=%s", page)
		assert.Empty(t, got.Records, "page=%s", page)
	}
}

func TestReloadHandler(t *testing.T) {
	s, path := newTestServer(t, testCSV)

	var before SummaryResponse
	get(t, s, "/api/summary", &before)

	require.NoError(t, os.WriteFile(path, []byte("조사년도,취업구분1\n2022,취업\n"), 0o644))

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var after SummaryResponse
	get(t, s, "/api/summary", &after)
	assert.Equal(t, 1, after.Stats.Total)
	assert.NotEqual(t, before.Dataset.ID, after.Dataset.ID)
}

func TestReloadHandler_FailureKeepsServing(t *testing.T) {
	s, path := newTestServer(t, testCSV)

	// drop the status column so the reload fails
	require.NoError(t, os.WriteFile(path, []byte("조사년도\n2020\n"), 0o644))

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, CodeReloadFailed, errResp.Code)

	// old snapshot still answers
	var got SummaryResponse
	get(t, s, "/api/summary", &got)
	assert.Equal(t, 4, got.Stats.Total)
}

func TestReloadHandler_Disabled(t *testing.T) {
	s, _ := newTestServer(t, testCSV)
	s.cfg.Dataset.AllowReload = false

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	var got map[string]any
	resp := get(t, s, "/healthz", &got)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", got["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "emp_dataset_rows")
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "대시보드")
}

func TestErrorEnvelopeCodeMatchesStatus(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.respondError(rec, req, errors.New("boom"), http.StatusInternalServerError, CodeInternalError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, CodeInternalError, got.Code)
	assert.Equal(t, "boom", got.Error)
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, testCSV)

	resp := get(t, s, "/api/summary", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
