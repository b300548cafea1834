// Package harvest drives the contact-harvesting passes: geocode a postal
// code, enumerate nearby places, fetch details, and persist CSV output. It
// also keeps the append-only skip log that makes state-wide batches
// resumable.
package harvest

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// SkipLog records postal codes that yielded zero results for one
// (establishment, country) pair, one code per line. Entries are append-only;
// a batch re-run reads the log once and never re-queries a listed code.
type SkipLog struct {
	path string
}

// NewSkipLog returns the skip log for an (establishment, country) output
// partition.
func NewSkipLog(root, establishment, countryCode string) *SkipLog {
	return &SkipLog{
		path: filepath.Join(root, establishment, countryCode, "logs", "logfile"),
	}
}

// Path returns the logfile location.
func (l *SkipLog) Path() string {
	return l.path
}

// Load reads the logged postal codes. A missing logfile is an empty set.
func (l *SkipLog) Load() (map[string]struct{}, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, eris.Wrap(err, "harvest: open skip log")
	}
	defer f.Close() //nolint:errcheck

	codes := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if code := strings.TrimSpace(scanner.Text()); code != "" {
			codes[code] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "harvest: read skip log")
	}
	return codes, nil
}

// Append records a postal code with zero results.
func (l *SkipLog) Append(postalCode string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return eris.Wrap(err, "harvest: create log dir")
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrap(err, "harvest: open skip log")
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.WriteString(postalCode + "\n"); err != nil {
		return eris.Wrap(err, "harvest: append skip log")
	}
	return nil
}
