// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fib runs a known Fibonacci sequence through one ring and checks
// that the consumer receives it unchanged.
//
// In threaded mode one producer and one consumer goroutine, each locked to
// an OS thread and optionally pinned to a CPU, are released together by a
// [Gate], pause for a random number of spins, then transfer Count values.
// In sequential mode one goroutine alternately fills and drains the ring.
package fib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/ring"
	"code.hybscloud.com/spin"
	"github.com/rs/zerolog"
)

// Mode selects how the producer and consumer are scheduled.
type Mode string

const (
	// ModeThreaded runs producer and consumer on separate goroutines.
	ModeThreaded Mode = "threaded"
	// ModeSequential alternates filling and draining on the caller's goroutine.
	ModeSequential Mode = "sequential"
)

var (
	// ErrMismatch reports a value received out of order, altered or duplicated.
	ErrMismatch = errors.New("fib: sequence mismatch")
	// ErrLeak reports slots still occupied after a complete run.
	ErrLeak = errors.New("fib: slots in use after drain")
	// ErrConfig reports an unusable configuration.
	ErrConfig = errors.New("fib: invalid config")
)

// Config describes one run.
type Config struct {
	Count       int           `mapstructure:"count"`
	Capacity    int           `mapstructure:"capacity"`
	Strict      bool          `mapstructure:"strict"`
	Batch       int           `mapstructure:"batch"`
	MaxJitter   int           `mapstructure:"max_jitter"`
	ProducerCPU int           `mapstructure:"producer_cpu"`
	ConsumerCPU int           `mapstructure:"consumer_cpu"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Mode        Mode          `mapstructure:"mode"`
	Metrics     bool          `mapstructure:"metrics"`
}

// DefaultConfig mirrors the classic two-thread test: 20M values through a
// ring of 1<<20 slots.
func DefaultConfig() Config {
	return Config{
		Count:       20_000_000,
		Capacity:    1 << 20,
		Batch:       1,
		MaxJitter:   1000,
		ProducerCPU: -1,
		ConsumerCPU: -1,
		Timeout:     time.Minute,
		Mode:        ModeThreaded,
	}
}

// Validate checks the fields Run depends on. Capacity is checked by the ring.
func (c Config) Validate() error {
	switch {
	case c.Count < 0:
		return fmt.Errorf("%w: count %d", ErrConfig, c.Count)
	case c.Batch < 1:
		return fmt.Errorf("%w: batch %d", ErrConfig, c.Batch)
	case c.MaxJitter < 0:
		return fmt.Errorf("%w: max_jitter %d", ErrConfig, c.MaxJitter)
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout %v", ErrConfig, c.Timeout)
	case c.Mode != ModeThreaded && c.Mode != ModeSequential:
		return fmt.Errorf("%w: mode %q", ErrConfig, c.Mode)
	}
	return nil
}

// Report is the outcome of a successful run.
type Report struct {
	Mode         Mode
	Count        int
	Capacity     int
	Batch        int
	Elapsed      time.Duration
	NsPerOp      float64
	FullRetries  uint64
	EmptyRetries uint64

	stats *stats
}

// WriteMetrics writes the run's counters in Prometheus text format.
func (r Report) WriteMetrics(w io.Writer) {
	if r.stats != nil {
		r.stats.set.WritePrometheus(w)
	}
}

// Run executes one verified transfer as described by cfg.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	b := ring.Config(cfg.Capacity)
	if cfg.Strict {
		b.Strict()
	}
	r, err := ring.Build[uint64](b)
	if err != nil {
		return Report{}, fmt.Errorf("fib: build ring: %w", err)
	}
	defer r.Close()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	st := newStats(cfg.Mode, r.Cap())
	log.Debug().
		Str("mode", string(cfg.Mode)).
		Int("count", cfg.Count).
		Int("capacity", r.Cap()).
		Int("batch", cfg.Batch).
		Msg("fib: run starting")

	var elapsed time.Duration
	switch cfg.Mode {
	case ModeSequential:
		elapsed, err = runSequential(ctx, r, cfg, st)
	default:
		elapsed, err = runThreaded(ctx, r, cfg, st, log)
	}
	if err != nil {
		return Report{}, err
	}

	if free := r.Available(); free != r.Cap() {
		return Report{}, fmt.Errorf("%w: available %d of %d", ErrLeak, free, r.Cap())
	}

	rep := Report{
		Mode:         cfg.Mode,
		Count:        cfg.Count,
		Capacity:     r.Cap(),
		Batch:        cfg.Batch,
		Elapsed:      elapsed,
		FullRetries:  st.full.Get(),
		EmptyRetries: st.empty.Get(),
		stats:        st,
	}
	if cfg.Count > 0 {
		rep.NsPerOp = float64(elapsed.Nanoseconds()) / float64(cfg.Count)
	}
	st.nsPerOp = rep.NsPerOp

	log.Debug().
		Dur("elapsed", elapsed).
		Float64("ns_per_op", rep.NsPerOp).
		Msg("fib: run complete")
	return rep, nil
}

func runThreaded(ctx context.Context, r *ring.Ring[uint64], cfg Config, st *stats, log zerolog.Logger) (time.Duration, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		gate Gate
		wg   sync.WaitGroup
		errs [2]error
	)
	side := func(i int, cpu int, fn func(context.Context) error) {
		defer wg.Done()
		err := pinThread(cpu)
		if err == nil {
			err = gate.Arrive(ctx)
		}
		if err == nil {
			jitter(cfg.MaxJitter)
			err = fn(ctx)
		}
		if err != nil {
			errs[i] = err
			cancel()
		}
	}

	wg.Add(2)
	go side(0, cfg.ProducerCPU, func(ctx context.Context) error { return produce(ctx, r, cfg, st) })
	go side(1, cfg.ConsumerCPU, func(ctx context.Context) error { return consume(ctx, r, cfg, st) })

	if err := gate.AwaitArrivals(ctx, 2); err != nil {
		gate.Open()
		wg.Wait()
		return 0, firstErr(errs[:], err)
	}
	log.Debug().Msg("fib: producer and consumer ready")

	start := time.Now()
	gate.Open()
	wg.Wait()
	elapsed := time.Since(start)

	if err := firstErr(errs[:], nil); err != nil {
		return 0, err
	}
	return elapsed, nil
}

// firstErr prefers a side's own error over the cancellation it caused.
func firstErr(errs []error, fallback error) error {
	var canceled error
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			canceled = err
		default:
			return err
		}
	}
	if fallback != nil {
		return fallback
	}
	return canceled
}

func produce(ctx context.Context, p ring.Producer[uint64], cfg Config, st *stats) error {
	seq := newSequence()
	backoff := iox.Backoff{}

	if cfg.Batch == 1 {
		for i := range cfg.Count {
			v := seq.next()
			for !p.Push(v) {
				st.full.Inc()
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("fib: producer at %d: %w", i, err)
				}
				backoff.Wait()
			}
			backoff.Reset()
		}
		st.pushed.Add(cfg.Count)
		return nil
	}

	batch := make([]uint64, cfg.Batch)
	for sent := 0; sent < cfg.Count; {
		k := min(len(batch), cfg.Count-sent)
		for i := range k {
			batch[i] = seq.next()
		}
		for rest := batch[:k]; len(rest) > 0; {
			n := p.PushMany(rest)
			if n == 0 {
				st.full.Inc()
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("fib: producer at %d: %w", sent, err)
				}
				backoff.Wait()
				continue
			}
			backoff.Reset()
			rest = rest[n:]
			sent += n
		}
	}
	st.pushed.Add(cfg.Count)
	return nil
}

func consume(ctx context.Context, c ring.Consumer[uint64], cfg Config, st *stats) error {
	seq := newSequence()
	backoff := iox.Backoff{}

	if cfg.Batch == 1 {
		for i := range cfg.Count {
			want := seq.next()
			v, ok := c.Pull()
			for !ok {
				st.empty.Inc()
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("fib: consumer at %d: %w", i, err)
				}
				backoff.Wait()
				v, ok = c.Pull()
			}
			backoff.Reset()
			if v != want {
				return mismatch(i, v, want)
			}
		}
		st.pulled.Add(cfg.Count)
		return nil
	}

	batch := make([]uint64, cfg.Batch)
	for got := 0; got < cfg.Count; {
		n := c.PullMany(batch[:min(len(batch), cfg.Count-got)])
		if n == 0 {
			st.empty.Inc()
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("fib: consumer at %d: %w", got, err)
			}
			backoff.Wait()
			continue
		}
		backoff.Reset()
		for _, v := range batch[:n] {
			if want := seq.next(); v != want {
				return mismatch(got, v, want)
			}
			got++
		}
	}
	st.pulled.Add(cfg.Count)
	return nil
}

// runSequential fills the ring, drains it, and repeats until Count values
// have passed through, all on the calling goroutine.
func runSequential(ctx context.Context, r *ring.Ring[uint64], cfg Config, st *stats) (time.Duration, error) {
	prod, cons := newSequence(), newSequence()
	batch := make([]uint64, cfg.Batch)
	start := time.Now()

	for sent, got := 0, 0; got < cfg.Count; {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("fib: sequential at %d: %w", got, err)
		}

		// Fill
		for sent < cfg.Count {
			k := min(len(batch), cfg.Count-sent, r.Available())
			if k == 0 {
				st.full.Inc()
				break
			}
			for i := range k {
				batch[i] = prod.next()
			}
			n := r.PushMany(batch[:k])
			if n != k {
				return 0, fmt.Errorf("fib: sequential push: %d of %d with %d free", n, k, r.Available())
			}
			sent += n
		}

		// Drain
		for {
			n := r.PullMany(batch)
			if n == 0 {
				st.empty.Inc()
				break
			}
			for _, v := range batch[:n] {
				if want := cons.next(); v != want {
					return 0, mismatch(got, v, want)
				}
				got++
			}
		}
	}

	st.pushed.Add(cfg.Count)
	st.pulled.Add(cfg.Count)
	return time.Since(start), nil
}

func mismatch(i int, got, want uint64) error {
	return fmt.Errorf("%w: item %d: got %d, want %d", ErrMismatch, i, got, want)
}

// jitter spins for a random number of iterations in [0, limit).
func jitter(limit int) {
	if limit <= 0 {
		return
	}
	sw := spin.Wait{}
	for range rand.IntN(limit) {
		sw.Once()
	}
}

// sequence yields successive Fibonacci numbers modulo 2^64, starting 1, 2, 3, 5.
type sequence struct{ a, b uint64 }

func newSequence() sequence { return sequence{0, 1} }

func (s *sequence) next() uint64 {
	v := s.a + s.b
	s.a, s.b = s.b, v
	return v
}
