package circuit

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"DeferredWitnessCircuit/modules/logger"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Observer is notified after every generator run.
type Observer interface {
	GeneratorFinished(id string, took time.Duration, err error)
}

type resolveConfig struct {
	parallelism int
	observer    Observer
	log         zerolog.Logger
}

// ResolveOption configures Circuit.Resolve.
type ResolveOption func(*resolveConfig)

// WithParallelism bounds the number of generators running at once.
// Defaults to runtime.NumCPU().
func WithParallelism(n int) ResolveOption {
	return func(cfg *resolveConfig) {
		if n > 0 {
			cfg.parallelism = n
		}
	}
}

func WithObserver(o Observer) ResolveOption {
	return func(cfg *resolveConfig) {
		cfg.observer = o
	}
}

func WithLogger(l zerolog.Logger) ResolveOption {
	return func(cfg *resolveConfig) {
		cfg.log = l
	}
}

// Resolve runs every generator of the circuit exactly once against w, which
// must already hold the caller inputs.
//
// Before any generator runs, every dependency is checked to be either
// populated in w or produced by a generator; otherwise Resolve fails with
// ErrDependencyUnresolved and no external call is made. Generators of one
// level run concurrently. The first failure aborts the pass; outputs already
// committed by other generators stay in w, which must then be discarded.
func (c *Circuit) Resolve(ctx context.Context, w *Witness, opts ...ResolveOption) error {
	cfg := resolveConfig{
		parallelism: runtime.NumCPU(),
		log:         logger.Logger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.log.With().Str("field", c.Field.String()).Logger()

	if w.NbSlots() != c.NbSlots {
		return fmt.Errorf("%w: witness has %d slots, circuit has %d", ErrInvalidCircuitState, w.NbSlots(), c.NbSlots)
	}
	if err := c.plan(w); err != nil {
		log.Error().Err(err).Msg("resolution plan failed")
		return err
	}

	start := time.Now()
	ran := make([]atomic.Bool, len(c.Generators))
	for level, indices := range c.levels {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.parallelism)
		for _, idx := range indices {
			idx := idx
			g.Go(func() error {
				if !ran[idx].CompareAndSwap(false, true) {
					panic(fmt.Sprintf("circuit: generator %d scheduled twice", idx))
				}
				return c.runGenerator(gCtx, idx, w, &cfg, log)
			})
		}
		if err := g.Wait(); err != nil {
			log.Error().Err(err).Int("level", level).Msg("resolution aborted")
			return err
		}
	}

	if s, ok := w.FirstUnset(); ok {
		err := fmt.Errorf("%w: slot %d has no input and no producer", ErrWitnessIncomplete, s)
		log.Error().Err(err).Msg("resolution incomplete")
		return err
	}

	log.Info().
		Int("nbGenerators", len(c.Generators)).
		Int("nbLevels", len(c.levels)).
		Dur("took", time.Since(start)).
		Msg("witness resolved")
	return nil
}

// plan rejects a pass that could never complete before anything runs.
func (c *Circuit) plan(w *Witness) error {
	for i, g := range c.Generators {
		for _, s := range g.Outputs() {
			if w.IsSet(s) {
				return fmt.Errorf("%w: slot %d is produced by generator %d (%s) but was supplied as input",
					ErrSlotAlreadySet, s, i, g.ID())
			}
		}
		for _, s := range g.Dependencies() {
			if w.IsSet(s) {
				continue
			}
			if _, ok := c.Producer(s); !ok {
				return WrapDependencyUnresolved(g.ID(), s)
			}
		}
	}
	return nil
}

func (c *Circuit) runGenerator(ctx context.Context, idx int, w *Witness, cfg *resolveConfig, log zerolog.Logger) error {
	gen := c.Generators[idx]
	start := time.Now()
	err := RunGenerator(ctx, gen, w)
	took := time.Since(start)

	if cfg.observer != nil {
		cfg.observer.GeneratorFinished(gen.ID(), took, err)
	}
	if err != nil {
		return fmt.Errorf("generator %d (%s): %w", idx, gen.ID(), err)
	}
	log.Debug().Str("generator", gen.ID()).Int("index", idx).Dur("took", took).Msg("generator ran")
	return nil
}
