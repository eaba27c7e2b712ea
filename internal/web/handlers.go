package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cgseong/emp/internal/dataset"
	"github.com/cgseong/emp/internal/logging"
	"github.com/cgseong/emp/internal/stats"
)

// DefaultPageSize is the record-table page size when none is requested.
const DefaultPageSize = 50

// MaxPageSize caps the record-table page size.
const MaxPageSize = 500

// DatasetInfo describes the active snapshot in API responses.
type DatasetInfo struct {
	ID       uuid.UUID `json:"id"`
	LoadedAt time.Time `json:"loaded_at"`
	Encoding string    `json:"encoding"`
}

func datasetInfo(ds *dataset.Dataset) DatasetInfo {
	return DatasetInfo{ID: ds.ID, LoadedAt: ds.LoadedAt, Encoding: ds.Encoding}
}

// handleIndex serves the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError, CodeInternalError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleHealth reports liveness and the active snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"dataset": datasetInfo(s.store.Current()),
	})
}

// SummaryResponse carries the headline metrics for the current selection.
type SummaryResponse struct {
	Dataset DatasetInfo   `json:"dataset"`
	Stats   dataset.Stats `json:"stats"`
}

// handleSummary returns the headline numbers for the current filter
// selection: total scoped to the selected years, employed from the fully
// filtered subset.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Current()
	sel := parseSelection(r)

	filtered := sel.Apply(ds.Employed)
	writeJSON(w, http.StatusOK, SummaryResponse{
		Dataset: datasetInfo(ds),
		Stats:   sel.FilteredStats(ds.Eligible, filtered),
	})
}

// SummaryTableResponse wraps an aggregation result. When the source column
// is missing from the file, Rows is empty and Error carries the reason; the
// dashboard renders that section empty and the others keep working.
type SummaryTableResponse[T any] struct {
	Rows  []T    `json:"rows"`
	Error string `json:"error,omitempty"`
}

// handleYearly returns the per-year employment table for the selected years.
func (s *Server) handleYearly(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Current()
	sel := parseSelection(r)

	rows, err := stats.Yearly(ds, sel.FilterEligible(ds.Eligible))
	writeAggregation(w, r, rows, err)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.handleCategory(w, r, stats.ByRegion)
}

func (s *Server) handleEmployerTypes(w http.ResponseWriter, r *http.Request) {
	s.handleCategory(w, r, stats.ByEmployerType)
}

func (s *Server) handleCompanySizes(w http.ResponseWriter, r *http.Request) {
	s.handleCategory(w, r, stats.ByCompanySize)
}

// handleCategory runs one category-share aggregation over the filtered
// employed subset.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request,
	aggregate func(*dataset.Dataset, []dataset.Record) ([]stats.CategorySummary, error)) {
	ds := s.store.Current()
	sel := parseSelection(r)

	rows, err := aggregate(ds, sel.Apply(ds.Employed))
	writeAggregation(w, r, rows, err)
}

// writeAggregation reports a missing source column inline rather than
// failing the request: one absent column should only blank its own section.
func writeAggregation[T any](w http.ResponseWriter, r *http.Request, rows []T, err error) {
	resp := SummaryTableResponse[T]{Rows: rows}
	if resp.Rows == nil {
		resp.Rows = []T{}
	}
	if err != nil {
		resp.Rows = []T{}
		resp.Error = err.Error()
		logging.FromContext(r.Context()).Warn("aggregation skipped", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleOptions lists the observed values per filter dimension.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.CollectOptions(s.store.Current()))
}

// RecordsResponse is one page of the filtered detail table.
type RecordsResponse struct {
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
	Records []dataset.Record `json:"records"`
}

// handleRecords returns the filtered employed rows, optionally narrowed by
// the free-text query q, paginated with page/per_page.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Current()
	sel := parseSelection(r)

	records := stats.Search(sel.Apply(ds.Employed), r.URL.Query().Get("q"))

	page := parseIntParam(r, "page", 1)
	perPage := parseIntParam(r, "per_page", DefaultPageSize)
	if perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	// Compare against the page count instead of multiplying first, so an
	// absurd page value cannot overflow into a negative slice offset.
	start := len(records)
	if page <= len(records)/perPage+1 {
		start = (page - 1) * perPage
	}
	end := start + perPage
	if end > len(records) {
		end = len(records)
	}

	writeJSON(w, http.StatusOK, RecordsResponse{
		Total:   len(records),
		Page:    page,
		PerPage: perPage,
		Records: records[start:end],
	})
}

// handleReload re-reads the CSV and swaps the active snapshot. A failed
// reload keeps the previous snapshot serving.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Dataset.AllowReload {
		s.respondError(w, r, fmt.Errorf("dataset reload is disabled"), http.StatusForbidden, CodeReloadDisabled)
		return
	}

	ds, err := s.store.Reload()
	if err != nil {
		s.metrics.reloadFailures.Inc()
		s.respondError(w, r, fmt.Errorf("reload dataset: %w", err), http.StatusInternalServerError, CodeReloadFailed)
		return
	}

	s.metrics.reloads.Inc()
	s.metrics.observeDataset(ds)
	logging.FromContext(r.Context()).Info("dataset reloaded",
		"snapshot_id", ds.ID,
		"eligible", len(ds.Eligible),
		"employed", len(ds.Employed),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"dataset": datasetInfo(ds),
		"stats":   ds.Stats,
	})
}

// parseSelection reads the multi-select filter state from query params.
// Each dimension accepts repeated params (year=2020&year=2021&region=서울);
// an absent dimension means "all observed values".
func parseSelection(r *http.Request) stats.Selection {
	q := r.URL.Query()

	sel := stats.Selection{
		Regions:       q["region"],
		EmployerTypes: q["employer_type"],
		CompanySizes:  q["company_size"],
	}
	for _, raw := range q["year"] {
		if y, err := strconv.Atoi(raw); err == nil {
			sel.Years = append(sel.Years, y)
		}
	}
	return sel
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
