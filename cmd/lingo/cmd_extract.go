package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sumitsaurabh927/lingo.dev-sub001/extractor"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

func (a *app) extractCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Record the translatable scopes of HTML or Go files in the registry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, root, args)
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Directory document keys are relative to")
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, root string, files []string) error {
	reg, signal, err := a.openRegistry(cmd)
	if err != nil {
		return err
	}

	if signal != nil {
		signal.Begin()
		defer signal.Done()
	}
	return a.extractFiles(cmd, reg, root, files)
}

// extractFiles records the scopes of files in reg and persists it.
func (a *app) extractFiles(cmd *cobra.Command, reg *registry.Registry, root string, files []string) error {
	out := cmd.OutOrStdout()

	var total extractor.Result
	for _, path := range files {
		doc, err := documentKey(root, path)
		if err != nil {
			return err
		}

		f, err := os.Open(path) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		res, err := extractor.ForPath(path).Extract(reg, doc, f)
		f.Close()
		if err != nil {
			return err
		}

		total.Elements += res.Elements
		total.Attributes += res.Attributes
		total.Skipped += res.Skipped
		if !a.quiet {
			fmt.Fprintf(out, "%s: %d scopes (%d skipped)\n", doc, res.Scopes(), res.Skipped)
		}
	}

	wrote, err := reg.Persist(cmd.Context())
	if err != nil {
		return err
	}

	if !a.quiet {
		state := "unchanged"
		if wrote {
			state = "updated"
		}
		fmt.Fprintf(out, "Extracted %d scopes (%d skipped) from %d documents, registry %s (%d scopes)\n",
			total.Scopes(), total.Skipped, len(files), state, reg.Snapshot().Len())
	}
	return nil
}

// documentKey names a document by its slash-separated path relative to root.
func documentKey(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("%s is not under %s: %w", path, root, err)
	}
	return filepath.ToSlash(rel), nil
}
