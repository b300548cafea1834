package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/cache"
	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/emails"
	"github.com/sells-group/contacts-cli/internal/harvest"
	"github.com/sells-group/contacts-cli/internal/postal"
	"github.com/sells-group/contacts-cli/pkg/places"
)

var (
	grabEstablishments []string
	grabPostalCodes    []string
	grabStateCode      string
	grabCountryCode    string
	grabFullState      bool
	grabOmitEmails     bool
)

var grabCmd = &cobra.Command{
	Use:   "grab",
	Short: "Harvest contact CSVs for postal codes or a full US state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// All input validation happens before any API call.
		if err := checkGrabInputs(); err != nil {
			return err
		}

		env, err := newGrabEnv(cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if grabFullState {
			return grabStates(ctx, env)
		}
		return grabPostals(ctx, env)
	},
}

func init() {
	grabCmd.Flags().StringSliceVarP(&grabEstablishments, "establishment", "e", nil,
		"establishment type(s) to harvest (e.g. restaurant)")
	grabCmd.Flags().StringSliceVarP(&grabPostalCodes, "postal-code", "p", nil,
		"postal code(s) to harvest")
	grabCmd.Flags().StringVarP(&grabStateCode, "state-code", "s", "",
		"US state code, used with --full-state")
	grabCmd.Flags().StringVarP(&grabCountryCode, "country-code", "c", "US",
		"ISO 3166-1 alpha-2 country code")
	grabCmd.Flags().BoolVarP(&grabFullState, "full-state", "f", false,
		"harvest every postal code of --state-code (US only)")
	grabCmd.Flags().BoolVarP(&grabOmitEmails, "omit-emails", "o", false,
		"skip the email-scraping pass over harvested CSVs")
	rootCmd.AddCommand(grabCmd)
}

// checkGrabInputs validates flag combinations and values without touching
// the network.
func checkGrabInputs() error {
	if len(grabEstablishments) == 0 {
		return eris.New("at least one --establishment is required")
	}
	for _, e := range grabEstablishments {
		if err := postal.CheckEstablishment(e); err != nil {
			return err
		}
	}
	if err := postal.CheckCountryCode(grabCountryCode); err != nil {
		return err
	}

	if grabFullState {
		if grabCountryCode != "US" {
			return eris.New("--full-state only supports --country-code US")
		}
		if grabStateCode == "" {
			return eris.New("--full-state requires --state-code")
		}
		return postal.CheckStateCode(grabStateCode)
	}

	if len(grabPostalCodes) == 0 {
		return eris.New("--postal-code is required (or use --full-state with --state-code)")
	}
	return nil
}

// grabEnv bundles the collaborators a grab run needs.
type grabEnv struct {
	runner    *harvest.Runner
	augmenter *emails.Augmenter
	cache     *cache.ViewportCache
}

func newGrabEnv(cfg *config.Config) (*grabEnv, error) {
	if cfg.Google.Key == "" {
		return nil, eris.New("google api key not configured (set google.key in config.yaml or CONTACTS_GOOGLE_KEY)")
	}

	opts := []places.Option{
		places.WithRateLimit(cfg.Google.RequestsPerSec),
		places.WithPageDelay(cfg.Google.PageDelay()),
		places.WithMaxPages(cfg.Google.MaxPages),
		places.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Google.TimeoutSecs) * time.Second,
		}),
	}
	if cfg.Google.BaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Google.BaseURL))
	}
	client := places.NewClient(cfg.Google.Key, opts...)

	var table *postal.Table
	if grabFullState {
		t, err := postal.LoadTable(cfg.Output.PostalTable)
		if err != nil {
			return nil, err
		}
		table = t
	}

	env := &grabEnv{}
	if cfg.Cache.Enabled {
		vc, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			// A broken cache must not block harvesting.
			zap.L().Warn("viewport cache unavailable", zap.Error(err))
		} else {
			env.cache = vc
		}
	}

	var vc harvest.ViewportCache
	if env.cache != nil {
		vc = env.cache
	}
	env.runner = harvest.NewRunner(client, table, cfg.Output.Root, vc)
	env.augmenter = emails.NewAugmenter(
		emails.NewFetcher(time.Duration(cfg.Emails.TimeoutSecs)*time.Second),
		cfg.Emails.MaxContactPages,
	)
	return env, nil
}

func (e *grabEnv) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

// grabPostals harvests each (establishment, postal code) pair in sequence.
// A failed pass is reported and the loop continues with the next pair.
func grabPostals(ctx context.Context, env *grabEnv) error {
	for _, establishment := range grabEstablishments {
		for _, code := range grabPostalCodes {
			result, err := env.runner.GrabPostalCode(ctx, establishment, code, grabCountryCode)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				fmt.Printf("pass failed for %s %s: %v\n", establishment, code, err)
				continue
			}

			if result.Skipped {
				fmt.Printf("skipping %s for postal code %s (already harvested or logged)\n",
					establishment, result.PostalCode)
				continue
			}
			if !result.CSVWritten {
				fmt.Printf("no %s found for postal code %s\n", establishment, result.PostalCode)
				continue
			}
			fmt.Printf("%s CSV for postal code %s created (%d rows)\n",
				establishment, result.PostalCode, result.Records)

			if !grabOmitEmails {
				if err := augmentCSV(ctx, env, result.CSVPath); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// grabStates harvests every postal code of the chosen state for each
// establishment, then augments the state aggregate.
func grabStates(ctx context.Context, env *grabEnv) error {
	for _, establishment := range grabEstablishments {
		report, err := env.runner.GrabState(ctx, establishment, grabStateCode, grabCountryCode)
		if err != nil {
			return err
		}

		fmt.Printf("%s in %s: %d harvested, %d skipped, %d empty, %d failed (run %s)\n",
			establishment, grabStateCode,
			report.Completed, report.Skipped, report.Empty, report.Failed, report.ID)
		for _, f := range report.Failures {
			fmt.Printf("  failed %s: %s\n", f.PostalCode, f.Err)
		}

		if !grabOmitEmails && report.AggregatePath != "" {
			if err := augmentCSV(ctx, env, report.AggregatePath); err != nil {
				return err
			}
		}
	}
	return nil
}

func augmentCSV(ctx context.Context, env *grabEnv, csvPath string) error {
	report, err := env.augmenter.Augment(ctx, csvPath, "website", true)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		fmt.Printf("email augmentation failed for %s: %v\n", csvPath, err)
		return nil
	}
	fmt.Printf("emails CSV created: %s (%d/%d rows with emails)\n",
		report.OutputPath, report.WithEmails, report.Rows)
	return nil
}
