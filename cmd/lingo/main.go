// Command lingo extracts translatable content and keeps per-locale
// dictionaries up to date.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	lingo "github.com/sumitsaurabh927/lingo.dev-sub001"
	"github.com/sumitsaurabh927/lingo.dev-sub001/cache"
	"github.com/sumitsaurabh927/lingo.dev-sub001/config"
	"github.com/sumitsaurabh927/lingo.dev-sub001/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	quiet      bool

	cfg       *config.Config
	closeLogs func()
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	defer func() {
		if a.closeLogs != nil {
			a.closeLogs()
		}
	}()
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           lingo.Name,
		Short:         lingo.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Configuration file")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress progress output")

	root.AddCommand(
		a.extractCmd(),
		a.translateCmd(),
		a.statusCmd(),
		a.cacheCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	closeLogs, err := cfg.SetupLogging()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.closeLogs = closeLogs
	return nil
}

// openRegistry creates the configured registry and loads its persisted
// contents.
func (a *app) openRegistry(cmd *cobra.Command) (*registry.Registry, *registry.SignalReadiness, error) {
	reg, signal := a.cfg.NewRegistry()
	if err := reg.Load(cmd.Context()); err != nil {
		return nil, nil, err
	}
	return reg, signal, nil
}

func (a *app) openCache() (*cache.DictionaryCache, error) {
	store, err := a.cfg.NewCacheStore()
	if err != nil {
		return nil, err
	}
	return cache.NewDictionaryCache(store), nil
}

// targets returns the locales named on the command line, or the configured
// targets when none were given.
func (a *app) targets(locales []string) ([]string, error) {
	if len(locales) == 0 {
		locales = a.cfg.Locales.Targets
	}
	if len(locales) == 0 {
		return nil, &lingo.ConfigError{Message: "no target locales: set locales.targets or pass --locale"}
	}
	return locales, nil
}
