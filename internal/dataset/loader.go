package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/korean"
)

// MaxFileSize is the maximum allowed CSV file size (100MB).
// Overridden from config at startup.
var MaxFileSize int64 = 100 * 1024 * 1024

// Encoding labels reported on a loaded Dataset.
const (
	EncodingUTF8  = "utf-8"
	EncodingCP949 = "cp949"
)

// Load reads and parses the survey CSV at path.
//
// The file is decoded as UTF-8 first; if the bytes are not valid UTF-8 the
// load retries as CP949, the legacy encoding Korean spreadsheet exports
// still ship in. Any other failure (missing file, malformed CSV, missing
// status column) returns an error and no dataset.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, fmt.Errorf("dataset too large: %d bytes (limit %d)", len(data), MaxFileSize)
	}
	return Parse(data)
}

// Parse builds a Dataset from raw CSV bytes. See Load for the contract.
func Parse(data []byte) (*Dataset, error) {
	data = stripBOM(data)

	enc := EncodingUTF8
	if !utf8.Valid(data) {
		// x/text's euc-kr table is the WHATWG one, which covers the
		// windows-949 extension rows these files actually use.
		decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		data = decoded
		enc = EncodingCP949
	}

	rows, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	header, rows := splitHeader(rows)
	if header == nil {
		return nil, fmt.Errorf("dataset is empty")
	}

	cols := make(map[string]bool, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = true
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	if !cols[ColStatus] {
		return nil, fmt.Errorf("column %q not found in dataset header", ColStatus)
	}

	ds := &Dataset{
		ID:        uuid.New(),
		LoadedAt:  time.Now(),
		Encoding:  enc,
		Columns:   header,
		columnSet: cols,
	}

	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		rec := buildRecord(row, header, index)
		if Excluded(rec.Status) {
			continue
		}
		ds.Eligible = append(ds.Eligible, rec)
		if rec.Status == StatusEmployed {
			ds.Employed = append(ds.Employed, rec)
		}
	}

	ds.Stats = ComputeStats(len(ds.Eligible), len(ds.Employed))
	return ds, nil
}

// buildRecord maps one CSV row onto a Record using the header index.
// Short rows read as empty cells; columns beyond the header are dropped.
func buildRecord(row, header []string, index map[string]int) Record {
	rec := Record{
		Year:         parseYear(cellAt(row, index, ColYear)),
		StudentID:    cellAt(row, index, ColStudentID),
		Status:       cellAt(row, index, ColStatus),
		Region:       cellAt(row, index, ColRegion),
		EmployerType: cellAt(row, index, ColEmployerType),
		CompanySize:  cellAt(row, index, ColCompanySize),
	}

	for i, name := range header {
		if interpreted(name) || i >= len(row) {
			continue
		}
		if val := CleanCell(row[i]); val != "" {
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[name] = val
		}
	}
	return rec
}

func interpreted(col string) bool {
	switch col {
	case ColYear, ColStudentID, ColStatus, ColRegion, ColEmployerType, ColCompanySize:
		return true
	}
	return false
}

func cellAt(row []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return CleanCell(row[i])
}

// parseYear accepts plain integers and float-formatted years ("2020.0"),
// which show up when the file round-trips through a spreadsheet.
func parseYear(s string) int {
	if s == "" {
		return 0
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// splitHeader returns the first non-empty row, cleaned, and the remaining
// data rows. Returns a nil header if no such row exists.
func splitHeader(rows [][]string) ([]string, [][]string) {
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		header := make([]string, len(row))
		for j, cell := range row {
			header[j] = CleanCell(cell)
		}
		return header, rows[i+1:]
	}
	return nil, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CleanCell trims whitespace and the invisible characters spreadsheet
// exports leave behind (BOM, zero-width space, NBSP).
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\uFEFF\u200B\u00A0")
	return strings.TrimSpace(s)
}

// stripBOM removes a leading UTF-8 byte order mark from Windows exports.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
