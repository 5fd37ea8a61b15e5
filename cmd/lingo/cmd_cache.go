package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/cache"
)

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Move cached translations between stores",
	}
	cmd.AddCommand(a.cacheExportCmd(), a.cacheImportCmd())
	return cmd
}

func (a *app) cacheExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export cached translations as JSON (default: stdout)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := a.openCache()
			if err != nil {
				return err
			}

			metadata := map[string]string{
				"source_locale": a.cfg.Locales.Source,
				"generator":     lingo.UserAgent(),
			}
			exporter := cache.NewExporter(dc)
			if len(args) == 0 {
				return exporter.Export(cmd.Context(), cmd.OutOrStdout(), metadata)
			}
			if err := exporter.ExportToFile(cmd.Context(), args[0], metadata); err != nil {
				return err
			}
			if !a.quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported cache to %s\n", args[0])
			}
			return nil
		},
	}
}

func (a *app) cacheImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import translations exported with cache export",
		Long: `Import merges exported translations into the cache. Only hashes that the
cache already records are imported; entries for unknown content are counted
as failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := a.openCache()
			if err != nil {
				return err
			}

			var res *cache.ImportResult
			if args[0] == "-" {
				res, err = cache.NewImporter(dc).Import(cmd.Context(), os.Stdin)
			} else {
				res, err = cache.NewImporter(dc).ImportFromFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d translations (%d failed)\n", res.Imported, res.Failed)
			return nil
		},
	}
}
