package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/engine"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// newLogger builds the stderr logger: errors only with --quiet, debug
// records with --verbose.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cfg.Quiet:
		level = slog.LevelError
	case cfg.Verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadEngine reads the configuration and builds an engine from it, limited
// to the --since/--until range read in the configured timezone.
// Configuration errors are returned before any input is touched.
func loadEngine(since, until string, opts ...engine.Option) (*config.Config, *slog.Logger, *engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	from, to, err := timeRange(since, until, loc)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newLogger(cfg)
	base := []engine.Option{engine.WithLogger(logger), engine.WithTimeRange(from, to)}
	eng, err := engine.NewFromConfig(cfg, append(base, opts...)...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, eng, nil
}

// timeRange parses --since and --until values; empty values leave that side open.
// Absolute values without an offset are read in loc.
func timeRange(since, until string, loc *time.Location) (time.Time, time.Time, error) {
	var s, u time.Time
	var err error
	if since != "" {
		s, err = config.ParseTimeRef(since, loc)
		if err != nil {
			return s, u, fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if until != "" {
		u, err = config.ParseTimeRef(until, loc)
		if err != nil {
			return s, u, fmt.Errorf("invalid --until value: %w", err)
		}
	}
	if !s.IsZero() && !u.IsZero() && u.Before(s) {
		return s, u, fmt.Errorf("--until %s is before --since %s", until, since)
	}
	return s, u, nil
}

// ingestInputs feeds every input to eng in order. "-" reads stdin.
// With progress set, file inputs draw a byte progress bar on stderr.
func ingestInputs(ctx context.Context, eng *engine.Engine, inputs []string, stdin io.Reader, progress bool) error {
	for _, path := range inputs {
		if ctx.Err() != nil {
			return nil
		}
		if path == config.StdinPath {
			if err := eng.IngestReader(ctx, stdin); err != nil {
				return err
			}
			continue
		}
		if err := ingestFile(ctx, eng, path, progress); err != nil {
			return err
		}
	}
	return nil
}

func ingestFile(ctx context.Context, eng *engine.Engine, path string, progress bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if progress {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		bar := newProgressBar(info.Size(), filepath.Base(path))
		defer bar.Finish()
		r = io.TeeReader(f, bar)
	}

	if err := eng.IngestReader(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func newProgressBar(size int64, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// signalContext returns the command's context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
