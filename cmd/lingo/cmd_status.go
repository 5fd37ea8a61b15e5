package main

import (
	"fmt"

	"github.com/spf13/cobra"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/pipeline"
)

func (a *app) statusCmd() *cobra.Command {
	var (
		locales []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a translate run would send to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd, locales, asJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&locales, "locale", "l", nil, "Target locale (repeatable, default: locales.targets)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// LocaleStatus is the per-locale line of the status report.
type LocaleStatus struct {
	Locale   string   `json:"locale"`
	Uncached int      `json:"uncached"`
	Cached   int      `json:"cached"`
	Removed  int      `json:"removed"`
	Pending  []string `json:"pending,omitempty"`
}

func (a *app) runStatus(cmd *cobra.Command, locales []string, asJSON bool) error {
	targets, err := a.targets(locales)
	if err != nil {
		return err
	}

	reg, _, err := a.openRegistry(cmd)
	if err != nil {
		return err
	}
	dc, err := a.openCache()
	if err != nil {
		return err
	}

	// Status never calls a backend.
	orch := pipeline.New(reg, dc, lingo.NewRouter())
	defer orch.Close()

	report := make([]LocaleStatus, 0, len(targets))
	for _, locale := range targets {
		diff, err := orch.Status(cmd.Context(), a.cfg.Locales.Source, locale)
		if err != nil {
			return err
		}

		stats := diff.Stats()
		s := LocaleStatus{
			Locale:   locale,
			Uncached: stats.Uncached,
			Cached:   stats.Cached,
			Removed:  stats.Removed,
		}
		for _, k := range diff.Uncached.Keys() {
			s.Pending = append(s.Pending, k.Document+"#"+k.Scope)
		}
		report = append(report, s)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, report)
	}

	for _, s := range report {
		fmt.Fprintf(out, "%-8s %d to translate, %d cached, %d stale\n", s.Locale, s.Uncached, s.Cached, s.Removed)
		if a.quiet {
			continue
		}
		for _, p := range s.Pending {
			fmt.Fprintf(out, "  + %s\n", p)
		}
	}
	return nil
}
