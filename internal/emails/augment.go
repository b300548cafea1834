package emails

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RowError records a row whose website could not be scraped. The row is
// still written, with an empty email set.
type RowError struct {
	Row     int    `json:"row"`
	Website string `json:"website"`
	Err     string `json:"error"`
}

// Report summarizes one augmentation run.
type Report struct {
	InputPath  string     `json:"input_path"`
	OutputPath string     `json:"output_path"`
	Rows       int        `json:"rows"`
	WithEmails int        `json:"with_emails"`
	Errors     []RowError `json:"errors,omitempty"`
}

// Augmenter produces <name>_with_emails.csv copies of contact CSVs.
type Augmenter struct {
	fetcher         *Fetcher
	maxContactPages int
}

// NewAugmenter creates an Augmenter.
func NewAugmenter(fetcher *Fetcher, maxContactPages int) *Augmenter {
	return &Augmenter{fetcher: fetcher, maxContactPages: maxContactPages}
}

// OutputPath derives the augmented-copy path from an input CSV path.
func OutputPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + "_with_emails.csv"
}

// Augment reads csvPath, scrapes each row's website (from urlColumn) plus
// any discovered contact pages for email addresses, and writes a copy with
// an added emails column. The input file is never modified. Rows with an
// empty website make no network calls. Per-row scrape failures are recorded
// in the report and the row proceeds with an empty email set.
func (a *Augmenter) Augment(ctx context.Context, csvPath, urlColumn string, overwrite bool) (*Report, error) {
	outPath := OutputPath(csvPath)
	if !overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return nil, eris.Errorf("emails: %s already exists", outPath)
		}
	}

	in, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "emails: open input csv")
	}
	defer in.Close() //nolint:errcheck

	reader := csv.NewReader(in)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "emails: read input csv")
	}
	if len(rows) == 0 {
		return nil, eris.New("emails: input csv is empty")
	}

	urlIdx := -1
	for i, col := range rows[0] {
		if strings.TrimSpace(col) == urlColumn {
			urlIdx = i
			break
		}
	}
	if urlIdx < 0 {
		return nil, eris.Errorf("emails: input csv has no %q column", urlColumn)
	}

	log := zap.L().With(
		zap.String("component", "emails.augmenter"),
		zap.String("csv", csvPath),
	)

	report := &Report{InputPath: csvPath, OutputPath: outPath, Rows: len(rows) - 1}

	out := make([][]string, 0, len(rows))
	out = append(out, append(append([]string{}, rows[0]...), "emails"))

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		website := ""
		if urlIdx < len(row) {
			website = strings.TrimSpace(row[urlIdx])
		}

		var found []string
		if website != "" {
			found, err = a.scrapeSite(ctx, website)
			if err != nil {
				if ctx.Err() != nil {
					return nil, err
				}
				log.Warn("row scrape failed",
					zap.Int("row", i+1),
					zap.String("website", website),
					zap.Error(err),
				)
				report.Errors = append(report.Errors, RowError{
					Row:     i + 1,
					Website: website,
					Err:     err.Error(),
				})
				found = nil
			}
		}
		if len(found) > 0 {
			report.WithEmails++
		}

		out = append(out, append(append([]string{}, row...), strings.Join(found, "; ")))
	}

	if err := writeRows(outPath, out); err != nil {
		return nil, err
	}

	log.Info("augmented csv written",
		zap.String("path", outPath),
		zap.Int("rows", report.Rows),
		zap.Int("with_emails", report.WithEmails),
		zap.Int("errors", len(report.Errors)),
	)

	return report, nil
}

// scrapeSite fetches the homepage and any discovered contact pages, and
// unions the emails found. Contact pages that fail to load are skipped; the
// homepage's emails still count.
func (a *Augmenter) scrapeSite(ctx context.Context, website string) ([]string, error) {
	doc, err := a.fetcher.Fetch(ctx, website)
	if err != nil {
		return nil, err
	}

	found, contactPages := ExtractPage(doc, website)
	set := make(map[string]struct{}, len(found))
	for _, e := range found {
		set[e] = struct{}{}
	}

	if len(contactPages) > a.maxContactPages {
		contactPages = contactPages[:a.maxContactPages]
	}
	for _, page := range contactPages {
		sub, err := a.fetcher.Fetch(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		more, _ := ExtractPage(sub, page)
		for _, e := range more {
			set[e] = struct{}{}
		}
	}

	merged := make([]string, 0, len(set))
	for e := range set {
		merged = append(merged, e)
	}
	sort.Strings(merged)
	return merged, nil
}

// writeRows writes all rows atomically via a temp file rename.
func writeRows(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".emails-*")
	if err != nil {
		return eris.Wrap(err, "emails: create temp file")
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "emails: write output csv")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "emails: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "emails: rename into place")
	}
	return nil
}
