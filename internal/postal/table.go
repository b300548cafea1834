package postal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Table maps US state codes to their constituent postal codes, loaded from
// the bundled us_postal_codes.csv. Read-only after load.
type Table struct {
	byState map[string][]string
}

const (
	zipColumn   = "Zip Code"
	stateColumn = "State Abbreviation"
)

// LoadTable reads the postal-code table from path.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "postal: open table")
	}
	defer f.Close() //nolint:errcheck

	return ReadTable(f)
}

// ReadTable parses a postal-code table from r. The header row must contain
// the "Zip Code" and "State Abbreviation" columns.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "postal: read table header")
	}

	zipIdx, stateIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case zipColumn:
			zipIdx = i
		case stateColumn:
			stateIdx = i
		}
	}
	if zipIdx < 0 || stateIdx < 0 {
		return nil, eris.Errorf("postal: table missing %q or %q column", zipColumn, stateColumn)
	}

	byState := make(map[string][]string)
	seen := make(map[string]struct{})

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "postal: read table row")
		}
		if len(record) <= zipIdx || len(record) <= stateIdx {
			continue
		}

		state := strings.ToUpper(strings.TrimSpace(record[stateIdx]))
		zip := NormalizeCode(record[zipIdx])
		if state == "" || zip == "" {
			continue
		}

		key := state + "|" + zip
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		byState[state] = append(byState[state], zip)
	}

	for _, zips := range byState {
		sort.Strings(zips)
	}

	return &Table{byState: byState}, nil
}

// PostalCodesForState returns the distinct postal codes for a state, sorted.
func (t *Table) PostalCodesForState(stateCode string) ([]string, error) {
	if err := CheckStateCode(stateCode); err != nil {
		return nil, err
	}
	zips := t.byState[stateCode]
	out := make([]string, len(zips))
	copy(out, zips)
	return out, nil
}

// NormalizeCode zero-pads a US postal code to five digits. Non-numeric input
// is returned trimmed but otherwise untouched.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	if len(code) < 5 {
		return fmt.Sprintf("%05s", code)
	}
	return code
}
