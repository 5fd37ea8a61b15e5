package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const logFilePermissions = 0o600

// SetupLogging configures the global logger from the log section. The
// returned function closes any log files that were opened.
func (cfg *Config) SetupLogging() (func(), error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var (
		writers []io.Writer
		files   []*os.File
	)

	outputs := cfg.Log.Outputs
	if len(outputs) == 0 {
		outputs = []string{"/dev/stderr"}
	}

	for _, output := range outputs {
		var f *os.File
		switch output {
		case "/dev/stdout", "stdout":
			f = os.Stdout
		case "/dev/stderr", "stderr":
			f = os.Stderr
		default:
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermissions) // #nosec G304 -- log path comes from configuration
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", output, err)
				continue
			}
			files = append(files, file)
			f = file
		}

		if cfg.Log.Format == "json" {
			writers = append(writers, f)
		} else {
			writers = append(writers, ConsoleWriter(f))
		}
	}

	if len(writers) == 0 {
		writers = append(writers, ConsoleWriter(os.Stderr))
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))

	return func() {
		for _, f := range files {
			_ = f.Close()
		}
	}, nil
}

// ConsoleWriter returns a human-readable zerolog writer for f, coloured
// only when f is a terminal.
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd())
	return zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}
}
