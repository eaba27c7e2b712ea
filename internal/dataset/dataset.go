// Package dataset loads the graduate employment survey CSV into memory and
// derives the populations everything else is computed from: the eligible set
// (all rows minus advanced-study and foreign-national graduates) and the
// employed subset. This package has no UI dependencies.
package dataset

import (
	"time"

	"github.com/google/uuid"
)

// Column headers expected in the survey CSV. The file comes out of the
// university's reporting system with Korean headers; they are matched
// case-sensitively after cell cleanup.
const (
	ColYear         = "조사년도" // survey year
	ColStudentID    = "학번"   // student identifier
	ColStatus       = "취업구분1" // employment status category
	ColRegion       = "기업지역" // employer region
	ColEmployerType = "기업구분" // employer type
	ColCompanySize  = "회사구분" // company size category
)

// Employment status values interpreted by the pipeline. Any other value
// counts as "not employed" within the eligible set.
const (
	StatusEmployed      = "취업"  // employed
	StatusAdvancedStudy = "진학"  // continuing to graduate school
	StatusForeign       = "외국인" // foreign national
)

// excludedStatuses are removed from the population before any statistics
// are computed.
var excludedStatuses = map[string]bool{
	StatusAdvancedStudy: true,
	StatusForeign:       true,
}

// Excluded reports whether a status value removes the row from the
// eligible set.
func Excluded(status string) bool {
	return excludedStatuses[status]
}

// Record is one graduate's survey row. The six interpreted columns are
// typed; every other column is preserved verbatim in Extra.
type Record struct {
	Year         int               `json:"year"`
	StudentID    string            `json:"student_id"`
	Status       string            `json:"status"`
	Region       string            `json:"region"`
	EmployerType string            `json:"employer_type"`
	CompanySize  string            `json:"company_size"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Stats holds the headline numbers for a population.
type Stats struct {
	Total      int     `json:"total"`      // eligible graduates
	Employed   int     `json:"employed"`   // status == StatusEmployed
	Unemployed int     `json:"unemployed"` // Total - Employed
	Rate       float64 `json:"rate"`       // Employed/Total*100, 0 when Total is 0
}

// ComputeStats derives headline numbers from population counts.
// The rate is defined as 0 for an empty population rather than an error.
func ComputeStats(total, employed int) Stats {
	s := Stats{
		Total:      total,
		Employed:   employed,
		Unemployed: total - employed,
	}
	if total > 0 {
		s.Rate = float64(employed) / float64(total) * 100
	}
	return s
}

// Dataset is one loaded snapshot of the survey file. Snapshots are
// immutable after load; a reload builds a fresh Dataset and the server
// swaps the pointer.
type Dataset struct {
	// ID identifies this snapshot in logs and API responses.
	ID uuid.UUID `json:"id"`

	// LoadedAt is when the file was read.
	LoadedAt time.Time `json:"loaded_at"`

	// Encoding is the text encoding the file decoded with ("utf-8" or "cp949").
	Encoding string `json:"encoding"`

	// Columns is the cleaned header row as read from the file.
	Columns []string `json:"columns"`

	// Eligible is every row minus the excluded status categories.
	Eligible []Record `json:"-"`

	// Employed is the subset of Eligible with status == StatusEmployed.
	Employed []Record `json:"-"`

	// Stats are the headline numbers over the full eligible set.
	Stats Stats `json:"stats"`

	columnSet map[string]bool
}

// HasColumn reports whether the named column was present in the file header.
func (d *Dataset) HasColumn(name string) bool {
	return d.columnSet[name]
}
