package torchsyn

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/qiuchuy/torchsyn/internal/graphgen"
	"github.com/qiuchuy/torchsyn/internal/output"
	"github.com/qiuchuy/torchsyn/internal/parallel"
)

// BatchConfig drives GenerateBatch. Each of the Count instances is an
// independent random graph, compiled and stored as <BaseName>_<i>.c.
type BatchConfig struct {
	Count    int
	BaseName string // defaults to "model"
	Seed     int64  // instance i uses Seed+i
	Workers  int    // concurrent compilations; <1 means one per CPU

	Compile Options          // per-program compilation options
	Gen     graphgen.Config  // generation bounds; Seed is overridden per instance

	// WithNonInline additionally stores an inline-free twin of every
	// program, <BaseName>_<i>_noinline.c, compiled from the same graph.
	// The twin pairs with an inlined primary for differential comparison.
	WithNonInline bool

	Sink output.Sink
}

// BatchResult summarizes a batch: exactly Count instances were attempted,
// Stored of them produced programs, Partial of those carry fallbacks.
type BatchResult struct {
	Stored   int
	Partial  int
	Warnings error
}

// GenerateBatch generates, compiles, and stores cfg.Count independent
// programs. Instances are isolated: one failing compilation or store never
// blocks the others, and every failure is reported in the combined error,
// ordered by instance.
func GenerateBatch(ctx context.Context, cfg BatchConfig) (*BatchResult, error) {
	log := klog.FromContext(ctx)
	if cfg.Sink == nil {
		return nil, fmt.Errorf("generate batch: no output sink configured")
	}
	base := cfg.BaseName
	if base == "" {
		base = "model"
	}

	type outcome struct {
		stored  bool
		partial bool
		warns   error
	}
	outcomes := make([]outcome, cfg.Count)

	pcfg := parallel.Config{Workers: cfg.Workers}
	if cfg.Workers < 1 {
		pcfg = parallel.DefaultConfig()
	}
	err := parallel.ForEach(ctx, cfg.Count, pcfg, func(i int) error {
		name := fmt.Sprintf("%s_%d", base, i)
		gcfg := cfg.Gen
		gcfg.Seed = cfg.Seed + int64(i)

		prog, err := Compile(graphgen.Generate(name, gcfg), cfg.Compile)
		if err != nil {
			return err
		}
		if err := cfg.Sink.Store(ctx, name+".c", []byte(prog.Source)); err != nil {
			return err
		}
		outcomes[i] = outcome{stored: true, partial: prog.Partial, warns: prog.Warnings}

		if cfg.WithNonInline && cfg.Compile.InlineRate > 0 {
			opts := cfg.Compile
			opts.InlineRate = 0
			opts.Variants = false
			twin, err := Compile(graphgen.Generate(name, gcfg), opts)
			if err != nil {
				return err
			}
			if err := cfg.Sink.Store(ctx, name+"_noinline.c", []byte(twin.Source)); err != nil {
				return err
			}
		}
		return nil
	})

	res := &BatchResult{}
	for _, o := range outcomes {
		if o.stored {
			res.Stored++
		}
		if o.partial {
			res.Partial++
		}
		res.Warnings = multierr.Append(res.Warnings, o.warns)
	}
	log.Info("batch complete", "requested", cfg.Count, "stored", res.Stored, "partial", res.Partial)
	return res, err
}
