package stats

import (
	"sort"

	"github.com/cgseong/emp/internal/dataset"
)

// Selection holds the user's multi-select filter choices. An empty slice
// means "all observed values" for that dimension; dimensions combine with
// logical AND.
type Selection struct {
	Years         []int    `json:"years,omitempty"`
	Regions       []string `json:"regions,omitempty"`
	EmployerTypes []string `json:"employer_types,omitempty"`
	CompanySizes  []string `json:"company_sizes,omitempty"`
}

// IsAll reports whether no dimension is restricted.
func (s Selection) IsAll() bool {
	return len(s.Years) == 0 && len(s.Regions) == 0 &&
		len(s.EmployerTypes) == 0 && len(s.CompanySizes) == 0
}

// MatchesYear reports whether a survey year passes the year filter.
func (s Selection) MatchesYear(year int) bool {
	if len(s.Years) == 0 {
		return true
	}
	for _, y := range s.Years {
		if y == year {
			return true
		}
	}
	return false
}

// Apply returns the employed records passing all four dimension filters.
// With an unrestricted selection the input is returned as-is.
func (s Selection) Apply(employed []dataset.Record) []dataset.Record {
	if s.IsAll() {
		return employed
	}

	regions := toSet(s.Regions)
	types := toSet(s.EmployerTypes)
	sizes := toSet(s.CompanySizes)

	out := make([]dataset.Record, 0, len(employed))
	for _, rec := range employed {
		if !s.MatchesYear(rec.Year) {
			continue
		}
		if regions != nil && !regions[rec.Region] {
			continue
		}
		if types != nil && !types[rec.EmployerType] {
			continue
		}
		if sizes != nil && !sizes[rec.CompanySize] {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FilterEligible restricts the eligible set to the selected years. The
// eligible-side numbers only honor the year dimension: region, employer
// type, and size exist only for employed rows.
func (s Selection) FilterEligible(eligible []dataset.Record) []dataset.Record {
	if len(s.Years) == 0 {
		return eligible
	}
	out := make([]dataset.Record, 0, len(eligible))
	for _, rec := range eligible {
		if s.MatchesYear(rec.Year) {
			out = append(out, rec)
		}
	}
	return out
}

// FilteredStats computes the headline numbers for the current selection:
// the total is the eligible set restricted to the selected years, the
// employed count is the fully filtered subset, and unemployed is their
// difference. The rate guard for an empty total applies as usual.
func (s Selection) FilteredStats(eligible, filteredEmployed []dataset.Record) dataset.Stats {
	total := len(s.FilterEligible(eligible))
	return dataset.ComputeStats(total, len(filteredEmployed))
}

// Options lists the observed values per filter dimension, used to populate
// the dashboard's multi-selects.
type Options struct {
	Years         []int    `json:"years"`
	Regions       []string `json:"regions"`
	EmployerTypes []string `json:"employer_types"`
	CompanySizes  []string `json:"company_sizes"`
}

// CollectOptions scans a dataset for the distinct values of each filter
// dimension. Years come from the eligible set; the category dimensions are
// only populated on employed rows, so they come from the employed subset.
func CollectOptions(ds *dataset.Dataset) Options {
	yearSet := make(map[int]bool)
	for _, rec := range ds.Eligible {
		if rec.Year != 0 {
			yearSet[rec.Year] = true
		}
	}

	regionSet := make(map[string]bool)
	typeSet := make(map[string]bool)
	sizeSet := make(map[string]bool)
	for _, rec := range ds.Employed {
		if rec.Region != "" {
			regionSet[rec.Region] = true
		}
		if rec.EmployerType != "" {
			typeSet[rec.EmployerType] = true
		}
		if rec.CompanySize != "" {
			sizeSet[rec.CompanySize] = true
		}
	}

	opts := Options{
		Years:         make([]int, 0, len(yearSet)),
		Regions:       sortedKeys(regionSet),
		EmployerTypes: sortedKeys(typeSet),
		CompanySizes:  sortedKeys(sizeSet),
	}
	for y := range yearSet {
		opts.Years = append(opts.Years, y)
	}
	sort.Ints(opts.Years)
	return opts
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
