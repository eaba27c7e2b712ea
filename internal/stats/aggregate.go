// Package stats derives the dashboard's summary tables from a loaded
// dataset: the yearly employment breakdown and the category shares over the
// employed subset. All functions are pure; they are recomputed on every
// request from the current snapshot.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cgseong/emp/internal/dataset"
)

// ErrMissingColumn reports that an aggregation's source column was not
// present in the loaded file. The corresponding dashboard section renders
// empty; other sections are unaffected.
var ErrMissingColumn = errors.New("column not found")

// YearSummary is one row of the yearly employment table.
type YearSummary struct {
	Year       int     `json:"year"`
	Total      int     `json:"total"`
	Employed   int     `json:"employed"`
	Unemployed int     `json:"unemployed"`
	Rate       float64 `json:"rate"`
}

// CategorySummary is one row of a category-share table (region, employer
// type, or company size).
type CategorySummary struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// Yearly groups the given eligible records by survey year and computes the
// employment rate per year, ordered by year ascending. Fails with
// ErrMissingColumn if the file had no year or status column.
func Yearly(ds *dataset.Dataset, eligible []dataset.Record) ([]YearSummary, error) {
	if !ds.HasColumn(dataset.ColYear) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, dataset.ColYear)
	}
	if !ds.HasColumn(dataset.ColStatus) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, dataset.ColStatus)
	}

	totals := make(map[int]int)
	employed := make(map[int]int)
	for _, rec := range eligible {
		totals[rec.Year]++
		if rec.Status == dataset.StatusEmployed {
			employed[rec.Year]++
		}
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearSummary, 0, len(years))
	for _, y := range years {
		total := totals[y]
		emp := employed[y]
		out = append(out, YearSummary{
			Year:       y,
			Total:      total,
			Employed:   emp,
			Unemployed: total - emp,
			Rate:       round1(float64(emp) / float64(total) * 100),
		})
	}
	return out, nil
}

// ByRegion computes each region's share of the employed subset.
func ByRegion(ds *dataset.Dataset, employed []dataset.Record) ([]CategorySummary, error) {
	return ByColumn(ds, employed, dataset.ColRegion)
}

// ByEmployerType computes each employer type's share of the employed subset.
func ByEmployerType(ds *dataset.Dataset, employed []dataset.Record) ([]CategorySummary, error) {
	return ByColumn(ds, employed, dataset.ColEmployerType)
}

// ByCompanySize computes each company-size category's share of the
// employed subset.
func ByCompanySize(ds *dataset.Dataset, employed []dataset.Record) ([]CategorySummary, error) {
	return ByColumn(ds, employed, dataset.ColCompanySize)
}

// ByColumn counts distinct values of col across the given employed records
// and derives each value's percentage share of the subset total. Order is
// count descending, then value ascending, which keeps output deterministic.
func ByColumn(ds *dataset.Dataset, employed []dataset.Record, col string) ([]CategorySummary, error) {
	if !ds.HasColumn(col) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}

	counts := make(map[string]int)
	total := 0
	for _, rec := range employed {
		val := columnValue(rec, col)
		if val == "" {
			continue
		}
		counts[val]++
		total++
	}

	out := make([]CategorySummary, 0, len(counts))
	for val, n := range counts {
		out = append(out, CategorySummary{Value: val, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	for i := range out {
		out[i].Share = round1(float64(out[i].Count) / float64(total) * 100)
	}
	return out, nil
}

// columnValue resolves a column name to the record field it maps to,
// falling back to the preserved Extra columns.
func columnValue(rec dataset.Record, col string) string {
	switch col {
	case dataset.ColRegion:
		return rec.Region
	case dataset.ColEmployerType:
		return rec.EmployerType
	case dataset.ColCompanySize:
		return rec.CompanySize
	case dataset.ColStatus:
		return rec.Status
	case dataset.ColStudentID:
		return rec.StudentID
	}
	return rec.Extra[col]
}

// round1 rounds to one decimal place, matching the report the dashboard
// replaces.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
