package stats

import (
	"strconv"
	"strings"

	"github.com/cgseong/emp/internal/dataset"
)

// Search returns the records whose stringified fields contain the query,
// case-insensitively. An empty query matches everything. This backs the
// free-text box above the detail table and runs after the dimension
// filters.
func Search(records []dataset.Record, query string) []dataset.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	out := make([]dataset.Record, 0, len(records))
	for _, rec := range records {
		if matches(rec, query) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec dataset.Record, query string) bool {
	fields := []string{
		strconv.Itoa(rec.Year),
		rec.StudentID,
		rec.Status,
		rec.Region,
		rec.EmployerType,
		rec.CompanySize,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	for _, v := range rec.Extra {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}
