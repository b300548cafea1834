package harvest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/postal"
	"github.com/sells-group/contacts-cli/pkg/places"
)

// ViewportCache looks up previously resolved viewports. Implemented by
// cache.ViewportCache; nil disables caching.
type ViewportCache interface {
	Get(ctx context.Context, postalCode, countryCode string) (*model.Viewport, error)
	Put(ctx context.Context, postalCode, countryCode string, vp model.Viewport) error
}

// Runner orchestrates harvesting passes across postal codes. All passes run
// strictly sequentially; one pass's failure never aborts the batch.
type Runner struct {
	client places.Client
	table  *postal.Table
	root   string
	cache  ViewportCache
}

// NewRunner creates a Runner. table may be nil when only single-postal-code
// passes are needed; cache may be nil to disable viewport caching.
func NewRunner(client places.Client, table *postal.Table, outputRoot string, cache ViewportCache) *Runner {
	return &Runner{
		client: client,
		table:  table,
		root:   outputRoot,
		cache:  cache,
	}
}

// PassResult summarizes one (establishment, postal code) pass. Skipped means
// the pass was short-circuited by an existing CSV or skip-log entry and no
// API call was made.
type PassResult struct {
	PostalCode     string `json:"postal_code"`
	Skipped        bool   `json:"skipped,omitempty"`
	Places         int    `json:"places"`
	Records        int    `json:"records"`
	DetailFailures int    `json:"detail_failures"`
	CSVWritten     bool   `json:"csv_written"`
	CSVPath        string `json:"csv_path,omitempty"`
}

// PassFailure records a postal code whose pass failed entirely.
type PassFailure struct {
	PostalCode string `json:"postal_code"`
	Err        string `json:"error"`
}

// RunReport summarizes a state-wide batch.
type RunReport struct {
	ID            string        `json:"id"`
	Establishment string        `json:"establishment"`
	StateCode     string        `json:"state_code"`
	CountryCode   string        `json:"country_code"`
	Total         int           `json:"total"`
	Completed     int           `json:"completed"`
	Skipped       int           `json:"skipped"`
	Empty         int           `json:"empty"`
	Failed        int           `json:"failed"`
	AggregatePath string        `json:"aggregate_path,omitempty"`
	Failures      []PassFailure `json:"failures,omitempty"`
}

// GrabPostalCode runs one harvesting pass: resolve the postal code to a
// viewport, enumerate places, fetch details, and write the CSV (or a
// skip-log entry when nothing was found). A postal code with an existing CSV
// or a skip-log entry is skipped without any API call. A failed detail fetch
// is logged and skipped; a failed resolution or search aborts only this pass.
func (r *Runner) GrabPostalCode(ctx context.Context, establishment, postalCode, countryCode string) (*PassResult, error) {
	if err := postal.CheckEstablishment(establishment); err != nil {
		return nil, err
	}
	if err := postal.CheckCountryCode(countryCode); err != nil {
		return nil, err
	}
	postalCode = postal.NormalizeCode(postalCode)

	log := zap.L().With(
		zap.String("component", "harvest.runner"),
		zap.String("establishment", establishment),
		zap.String("postal_code", postalCode),
	)

	sink := NewSink(r.root, establishment, countryCode)
	logged, err := sink.SkipLog().Load()
	if err != nil {
		return nil, err
	}
	if _, ok := logged[postalCode]; ok || sink.HasCSV(postalCode) {
		log.Debug("postal code already harvested or logged, skipping")
		return &PassResult{PostalCode: postalCode, Skipped: true}, nil
	}

	vp, err := r.resolveViewport(ctx, postalCode, countryCode)
	if err != nil {
		return nil, err
	}

	refs, err := r.client.NearbySearch(ctx, *vp, establishment)
	if err != nil {
		return nil, err
	}

	result := &PassResult{PostalCode: postalCode, Places: len(refs)}

	records := make([]model.ContactRecord, 0, len(refs))
	for _, ref := range refs {
		rec, err := r.client.Details(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			// One bad place should not sink the whole pass.
			log.Warn("detail fetch failed, skipping place",
				zap.String("place_id", ref.ID),
				zap.Error(err),
			)
			result.DetailFailures++
			continue
		}
		records = append(records, *rec)
	}
	result.Records = len(records)

	written, err := sink.WriteRun(records, postalCode)
	if err != nil {
		return nil, err
	}
	result.CSVWritten = written
	if written {
		result.CSVPath = sink.CSVPath(postalCode)
		log.Info("postal code harvested", zap.Int("rows", result.Records))
	} else {
		log.Info("no results for postal code, skip log updated")
	}

	return result, nil
}

// resolveViewport consults the cache before calling the geocoder. Cache
// errors degrade to cache-off behavior.
func (r *Runner) resolveViewport(ctx context.Context, postalCode, countryCode string) (*model.Viewport, error) {
	if r.cache != nil {
		vp, err := r.cache.Get(ctx, postalCode, countryCode)
		if err != nil {
			zap.L().Debug("viewport cache read failed", zap.Error(err))
		} else if vp != nil {
			return vp, nil
		}
	}

	vp, err := r.client.ResolvePostalCode(ctx, postalCode, countryCode)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, postalCode, countryCode, *vp); err != nil {
			zap.L().Debug("viewport cache write failed", zap.Error(err))
		}
	}
	return vp, nil
}

// GrabState harvests every postal code of a US state, skipping codes that
// already have a CSV or a skip-log entry, then writes the state aggregate.
// Individual pass failures are recorded in the report and the batch
// continues.
func (r *Runner) GrabState(ctx context.Context, establishment, stateCode, countryCode string) (*RunReport, error) {
	if err := postal.CheckEstablishment(establishment); err != nil {
		return nil, err
	}
	if err := postal.CheckStateCode(stateCode); err != nil {
		return nil, err
	}
	if err := postal.CheckCountryCode(countryCode); err != nil {
		return nil, err
	}

	codes, err := r.table.PostalCodesForState(stateCode)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		ID:            uuid.New().String(),
		Establishment: establishment,
		StateCode:     stateCode,
		CountryCode:   countryCode,
		Total:         len(codes),
	}

	log := zap.L().With(
		zap.String("component", "harvest.runner"),
		zap.String("run_id", report.ID),
		zap.String("establishment", establishment),
		zap.String("state", stateCode),
	)

	sink := NewSink(r.root, establishment, countryCode)
	skipped, err := sink.SkipLog().Load()
	if err != nil {
		return nil, err
	}

	log.Info("state batch starting", zap.Int("postal_codes", len(codes)))

	for _, code := range codes {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		if _, ok := skipped[code]; ok {
			report.Skipped++
			continue
		}
		if sink.HasCSV(code) {
			report.Skipped++
			continue
		}

		result, err := r.GrabPostalCode(ctx, establishment, code, countryCode)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			log.Warn("postal code pass failed",
				zap.String("postal_code", code),
				zap.Error(err),
			)
			report.Failed++
			report.Failures = append(report.Failures, PassFailure{PostalCode: code, Err: err.Error()})
			continue
		}

		switch {
		case result.Skipped:
			report.Skipped++
		case result.CSVWritten:
			report.Completed++
		default:
			report.Empty++
		}
	}

	aggPath, err := sink.Aggregate(stateCode, codes)
	if err != nil {
		return report, err
	}
	report.AggregatePath = aggPath

	log.Info("state batch finished",
		zap.Int("completed", report.Completed),
		zap.Int("skipped", report.Skipped),
		zap.Int("empty", report.Empty),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}
