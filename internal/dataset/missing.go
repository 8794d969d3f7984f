package dataset

import "strings"

// missingMarkers are the cell spellings treated as a missing value, matching
// the default NA markers of common dataframe readers.
var missingMarkers = map[string]struct{}{
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"-nan": {},
}

// IsMissing reports whether a raw cell holds no value.
func IsMissing(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	_, ok := missingMarkers[v]
	return ok
}

// DropMissing returns a table without every record that has any missing field.
func (t *Table) DropMissing() *Table {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		complete := true
		for _, v := range row {
			if IsMissing(v) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, row)
		}
	}
	return t.withRows(rows)
}

// MissingCounts returns, per column, how many records lack a value.
func (t *Table) MissingCounts() map[string]int {
	counts := make(map[string]int, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			if IsMissing(v) {
				counts[t.Columns[i]]++
			}
		}
	}
	return counts
}
