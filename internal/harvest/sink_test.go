package harvest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
)

func record(name, postal string) model.ContactRecord {
	return model.ContactRecord{
		Establishment: name,
		Street:        "1 Main St",
		PostalCode:    postal,
		Category:      "restaurant",
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	sink := NewSink(t.TempDir(), "restaurant", "US")

	written, err := sink.WriteRun([]model.ContactRecord{
		record("A", "10001"),
		record("B", "10001-2602"), // prefix match keeps zip+4 rows
	}, "10001")

	require.NoError(t, err)
	assert.True(t, written)

	records := readCSV(t, sink.CSVPath("10001"))
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Establishment)
	assert.Equal(t, "10001-2602", records[1].PostalCode)
}

func TestWriteRun_AllRowsFiltered_AppendsSkipLog(t *testing.T) {
	sink := NewSink(t.TempDir(), "restaurant", "US")

	written, err := sink.WriteRun([]model.ContactRecord{
		record("Elsewhere", "19702"),
	}, "19701")

	require.NoError(t, err)
	assert.False(t, written)
	assert.NoFileExists(t, sink.CSVPath("19701"))

	logged, err := sink.SkipLog().Load()
	require.NoError(t, err)
	assert.Contains(t, logged, "19701")
}

func TestWriteRun_LeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	sink := NewSink(root, "restaurant", "US")

	_, err := sink.WriteRun([]model.ContactRecord{record("A", "10001")}, "10001")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "restaurant", "US"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".csv-", "temp files must be renamed away")
	}
}

func TestAggregate_MergesAndDedupes(t *testing.T) {
	sink := NewSink(t.TempDir(), "restaurant", "US")

	_, err := sink.WriteRun([]model.ContactRecord{record("A", "19701"), record("B", "19701")}, "19701")
	require.NoError(t, err)
	// Overlapping viewports can land the same row in a neighboring code's
	// CSV; write one directly to simulate that.
	err = writeCSV(sink.CSVPath("19702"), []model.ContactRecord{record("B", "19701"), record("C", "19702")})
	require.NoError(t, err)

	path, err := sink.Aggregate("DE", []string{"19701", "19702", "19703"})
	require.NoError(t, err)

	records := readCSV(t, path)
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Establishment
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestSkipLog_LoadMissingIsEmpty(t *testing.T) {
	log := NewSkipLog(t.TempDir(), "restaurant", "US")
	codes, err := log.Load()
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestSkipLog_AppendIsAppendOnly(t *testing.T) {
	log := NewSkipLog(t.TempDir(), "restaurant", "US")

	require.NoError(t, log.Append("19701"))
	require.NoError(t, log.Append("19702"))

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Equal(t, "19701\n19702\n", string(data))

	codes, err := log.Load()
	require.NoError(t, err)
	assert.Len(t, codes, 2)
}

func TestSkipLog_PartitionedByEstablishmentAndCountry(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, NewSkipLog(root, "restaurant", "US").Append("10001"))

	codes, err := NewSkipLog(root, "bar", "US").Load()
	require.NoError(t, err)
	assert.Empty(t, codes, "logs are per (establishment, country)")
}
