package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/internal/fsutil"
	"github.com/sumitsaurabh927/lingo.dev-sub001/pipeline"
)

type translateOptions struct {
	locales []string
	outDir  string
	root    string
	json    bool
}

func (a *app) translateCmd() *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate [file]...",
		Short: "Write a dictionary per target locale, translating only uncached content",
		Long: `Translate builds one dictionary per target locale from the registry.

When HTML or Go files are given they are extracted first. With signal
readiness and a quiescence period configured, extraction and translation
run concurrently and translation starts once the pass has finished and the
registry has settled. Other readiness modes only see persisted passes, so
the files are extracted before translation starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTranslate(cmd, opts, args)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.locales, "locale", "l", nil, "Target locale (repeatable, default: locales.targets)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".lingo/locales", "Directory for the <locale>.json dictionaries")
	cmd.Flags().StringVar(&opts.root, "root", ".", "Directory document keys are relative to")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the summary as JSON")
	return cmd
}

// LocaleSummary is the per-locale line of the translate summary.
type LocaleSummary struct {
	Locale       string `json:"locale"`
	Path         string `json:"path,omitempty"`
	Entries      int    `json:"entries"`
	Translated   int    `json:"translated"`
	Cached       int    `json:"cached"`
	Fallback     int    `json:"fallback"`
	Overridden   int    `json:"overridden"`
	FailedChunks int    `json:"failed_chunks"`
	Retries      int    `json:"retries"`
	Error        string `json:"error,omitempty"`
}

func (a *app) runTranslate(cmd *cobra.Command, opts translateOptions, files []string) error {
	ctx := cmd.Context()
	start := time.Now()

	targets, err := a.targets(opts.locales)
	if err != nil {
		return err
	}

	reg, signal, err := a.openRegistry(cmd)
	if err != nil {
		return err
	}
	dc, err := a.openCache()
	if err != nil {
		return err
	}
	router, err := a.cfg.NewRouter()
	if err != nil {
		return err
	}

	var progress *mpb.Progress
	var chunkOpts []lingo.ChunkOption
	if !a.quiet && !opts.json {
		progress = mpb.New(mpb.WithOutput(cmd.ErrOrStderr()), mpb.WithWidth(60))
		chunkOpts = append(chunkOpts, lingo.WithProgress(progressBars(progress)))
	}

	orch := pipeline.New(reg, dc, router,
		pipeline.WithChunkedTranslator(a.cfg.NewChunkedTranslator(chunkOpts...)),
		pipeline.WithQuiescence(a.cfg.Registry.Quiescence),
	)
	defer orch.Close()

	extracted := make(chan error, 1)
	switch {
	case len(files) == 0:
		extracted <- nil
	case a.cfg.Registry.Quiescence > 0 && signal != nil:
		signal.Begin()
		go func() {
			err := a.extractFiles(cmd, reg, opts.root, files)
			signal.Done()
			extracted <- err
		}()
	default:
		if err := a.extractFiles(cmd, reg, opts.root, files); err != nil {
			return err
		}
		extracted <- nil
	}

	batch, batchErr := orch.TranslateAll(ctx, a.cfg.Locales.Source, targets)
	if progress != nil {
		progress.Wait()
	}
	if err := <-extracted; err != nil {
		return err
	}
	if batch == nil {
		return batchErr
	}

	summaries := make([]LocaleSummary, 0, len(targets))
	for _, locale := range sortedLocales(batch) {
		s := LocaleSummary{Locale: locale}
		if err, ok := batch.Errors[locale]; ok {
			s.Error = err.Error()
			summaries = append(summaries, s)
			continue
		}

		res := batch.Results[locale]
		s.Path = filepath.Join(opts.outDir, locale+".json")
		if err := writeDictionary(s.Path, res.Dictionary); err != nil {
			return err
		}
		s.Entries = res.Dictionary.Len()
		s.Translated = res.Translated
		s.Cached = res.Cached
		s.Fallback = res.Fallback
		s.Overridden = res.Overridden
		s.FailedChunks = res.FailedChunks
		s.Retries = res.Retries
		summaries = append(summaries, s)
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		if err := writeJSON(out, summaries); err != nil {
			return err
		}
	case !a.quiet:
		printSummaries(out, summaries, time.Since(start))
	}
	return batchErr
}

// progressBars returns a progress callback drawing one bar per locale.
func progressBars(p *mpb.Progress) lingo.ProgressFunc {
	var mu sync.Mutex
	bars := make(map[string]*mpb.Bar)

	return func(locale string, done, total int) {
		mu.Lock()
		defer mu.Unlock()

		bar, ok := bars[locale]
		if !ok {
			bar = p.AddBar(int64(total),
				mpb.PrependDecorators(
					decor.Name(fmt.Sprintf("[%s]", locale), decor.WCSyncSpaceR),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
					decor.Counters(0, " | %d/%d chunks"),
				),
			)
			bars[locale] = bar
		}
		bar.SetCurrent(int64(done))
	}
}

func sortedLocales(b *pipeline.Batch) []string {
	locales := make([]string, 0, len(b.Results)+len(b.Errors))
	for l := range b.Results {
		locales = append(locales, l)
	}
	for l := range b.Errors {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

func writeDictionary(path string, dict lingo.Dictionary) error {
	data, err := json.MarshalIndent(dict, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", dict.Locale, err)
	}
	return fsutil.WriteFileAtomic(path, append(data, '\n'))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummaries(w io.Writer, summaries []LocaleSummary, elapsed time.Duration) {
	for _, s := range summaries {
		if s.Error != "" {
			fmt.Fprintf(w, "%-8s failed: %s\n", s.Locale, s.Error)
			continue
		}
		fmt.Fprintf(w, "%-8s %d entries: %d translated, %d cached, %d fallback, %d overridden",
			s.Locale, s.Entries, s.Translated, s.Cached, s.Fallback, s.Overridden)
		if s.FailedChunks > 0 {
			fmt.Fprintf(w, ", %d failed chunks", s.FailedChunks)
		}
		if s.Retries > 0 {
			fmt.Fprintf(w, ", %d retries", s.Retries)
		}
		fmt.Fprintf(w, " -> %s\n", s.Path)
	}
	fmt.Fprintf(w, "Done in %s\n", elapsed.Round(time.Millisecond))
}
