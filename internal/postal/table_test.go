package postal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tableFixture = `Zip Code,Place Name,State,State Abbreviation,County,Latitude,Longitude
19701,Bear,Delaware,DE,New Castle,39.6,-75.66
19702,Newark,Delaware,DE,New Castle,39.59,-75.69
19701,Bear Annex,Delaware,DE,New Castle,39.6,-75.66
501,Holtsville,New York,NY,Suffolk,40.81,-73.04
10001,New York,New York,NY,New York,40.75,-73.99
`

func TestReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader(tableFixture))
	require.NoError(t, err)

	de, err := table.PostalCodesForState("DE")
	require.NoError(t, err)
	assert.Equal(t, []string{"19701", "19702"}, de, "duplicate zip rows collapse")

	ny, err := table.PostalCodesForState("NY")
	require.NoError(t, err)
	assert.Equal(t, []string{"00501", "10001"}, ny, "codes are zero-padded and sorted")
}

func TestReadTable_MissingColumns(t *testing.T) {
	_, err := ReadTable(strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Zip Code")
}

func TestPostalCodesForState_UnknownState(t *testing.T) {
	table, err := ReadTable(strings.NewReader(tableFixture))
	require.NoError(t, err)

	_, err = table.PostalCodesForState("XX")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestPostalCodesForState_EmptyState(t *testing.T) {
	table, err := ReadTable(strings.NewReader(tableFixture))
	require.NoError(t, err)

	// Valid state with no rows in the table.
	mt, err := table.PostalCodesForState("MT")
	require.NoError(t, err)
	assert.Empty(t, mt)
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips.csv")
	require.NoError(t, os.WriteFile(path, []byte(tableFixture), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	de, err := table.PostalCodesForState("DE")
	require.NoError(t, err)
	assert.Len(t, de, 2)
}

func TestLoadTable_Missing(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
