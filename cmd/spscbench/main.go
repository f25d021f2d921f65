// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command spscbench pushes a Fibonacci sequence through one ring between a
// producer and a consumer thread, verifies every value, and reports the
// time per element.
//
// Usage:
//
//	spscbench [-config spscbench.yaml] [-v]
//
// Settings come from the config file, .env and SPSC_* variables; see
// internal/config.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"code.hybscloud.com/ring/internal/config"
	"code.hybscloud.com/ring/internal/fib"
	"github.com/rs/zerolog"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses args, executes one harness run and returns the exit code.
// Logs go to stderr; Prometheus metrics, if enabled, to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("spscbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	maxprocsLog := func(format string, args ...any) { log.Debug().Msgf(format, args...) }
	undo, err := maxprocs.Set(maxprocs.Logger(maxprocsLog))
	if err != nil {
		log.Warn().Err(err).Msg("[main] setting GOMAXPROCS failed")
	}
	defer undo()
	if runtime.GOMAXPROCS(0) < 2 {
		log.Warn().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("[main] producer and consumer will share one P")
	}

	cfg, err := config.Load(*configPath, ".env")
	if err != nil {
		log.Error().Err(err).Msg("[config] failed to load")
		return 1
	}

	rep, err := fib.Run(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("[main] run failed")
		return 1
	}

	log.Info().
		Str("mode", string(rep.Mode)).
		Int("count", rep.Count).
		Int("capacity", rep.Capacity).
		Int("batch", rep.Batch).
		Dur("elapsed", rep.Elapsed).
		Float64("ns_per_op", rep.NsPerOp).
		Uint64("full_retries", rep.FullRetries).
		Uint64("empty_retries", rep.EmptyRetries).
		Msg("[main] run complete")

	if cfg.Metrics {
		rep.WriteMetrics(stdout)
	}
	return 0
}
