package harvest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Sink owns the CSV output layout for one (establishment, country) pair:
// root/<establishment>/<country>/<postal_code>.csv, plus the skip log for
// zero-result postal codes.
type Sink struct {
	root          string
	establishment string
	countryCode   string
	skipLog       *SkipLog
}

// NewSink creates a Sink rooted at the output directory.
func NewSink(root, establishment, countryCode string) *Sink {
	return &Sink{
		root:          root,
		establishment: establishment,
		countryCode:   countryCode,
		skipLog:       NewSkipLog(root, establishment, countryCode),
	}
}

// SkipLog returns the sink's skip log.
func (s *Sink) SkipLog() *SkipLog {
	return s.skipLog
}

func (s *Sink) dir() string {
	return filepath.Join(s.root, s.establishment, s.countryCode)
}

// CSVPath returns the output path for a postal code.
func (s *Sink) CSVPath(postalCode string) string {
	return filepath.Join(s.dir(), postalCode+".csv")
}

// AggregatePath returns the output path for a state-wide aggregate.
func (s *Sink) AggregatePath(stateCode string) string {
	return filepath.Join(s.dir(), stateCode+"_all_postal_codes.csv")
}

// HasCSV reports whether a postal code's CSV already exists.
func (s *Sink) HasCSV(postalCode string) bool {
	_, err := os.Stat(s.CSVPath(postalCode))
	return err == nil
}

// WriteRun persists one postal-code pass. Records whose postal code does not
// start with the run's code are dropped: detail responses for places near the
// viewport edge can belong to a neighboring code. Zero remaining records
// appends a skip-log entry instead of writing a CSV. The write is
// all-or-nothing: rows go to a temp file that is renamed into place.
func (s *Sink) WriteRun(records []model.ContactRecord, postalCode string) (bool, error) {
	kept := make([]model.ContactRecord, 0, len(records))
	for _, rec := range records {
		if strings.HasPrefix(rec.PostalCode, postalCode) {
			kept = append(kept, rec)
		}
	}

	if len(kept) == 0 {
		if err := s.skipLog.Append(postalCode); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := writeCSV(s.CSVPath(postalCode), kept); err != nil {
		return false, err
	}
	return true, nil
}

// Aggregate merges the per-postal CSVs of a state into a single
// <state>_all_postal_codes.csv, dropping exact-duplicate rows. Postal codes
// without a CSV are skipped silently.
func (s *Sink) Aggregate(stateCode string, postalCodes []string) (string, error) {
	seen := make(map[model.ContactRecord]struct{})
	var merged []model.ContactRecord

	for _, code := range postalCodes {
		path := s.CSVPath(code)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", eris.Wrapf(err, "harvest: read %s", path)
		}

		var records []model.ContactRecord
		if err := csvutil.Unmarshal(data, &records); err != nil {
			return "", eris.Wrapf(err, "harvest: parse %s", path)
		}
		for _, rec := range records {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			merged = append(merged, rec)
		}
	}

	out := s.AggregatePath(stateCode)
	if err := writeCSV(out, merged); err != nil {
		return "", err
	}

	zap.L().Info("state aggregate written",
		zap.String("path", out),
		zap.Int("rows", len(merged)),
	)
	return out, nil
}

// writeCSV marshals records to a temp file in the target directory and
// renames it into place.
func writeCSV(path string, records []model.ContactRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "harvest: create output dir")
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "harvest: marshal csv")
	}

	tmp, err := os.CreateTemp(dir, ".csv-*")
	if err != nil {
		return eris.Wrap(err, "harvest: create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "harvest: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "harvest: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "harvest: rename into place")
	}
	return nil
}
