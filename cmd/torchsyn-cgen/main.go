// Command torchsyn-cgen generates a batch of random operator graphs,
// compiles each into a standalone C program, and stores the sources in a
// directory or a GCS bucket. The programs build with any C99 compiler:
//
//	gcc -O2 -Wall -std=c99 model_0.c -o model_0 -lm
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/qiuchuy/torchsyn"
	"github.com/qiuchuy/torchsyn/internal/graphgen"
	"github.com/qiuchuy/torchsyn/internal/output"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	count := flag.Int("n", 1, "number of programs to generate")
	baseName := flag.String("name", "model", "base name for generated programs")
	outDir := flag.String("out", "out", "output directory for generated .c files")
	gcsBucket := flag.String("gcs-bucket", "", "upload programs to this GCS bucket instead of -out")
	gcsPrefix := flag.String("gcs-prefix", "", "object key prefix for GCS uploads")
	seed := flag.Int64("seed", 0, "base random seed; instance i uses seed+i")
	workers := flag.Int("workers", 0, "concurrent compilations (0 = one per CPU)")
	inlineRate := flag.Float64("inline-rate", 1.0, "fraction of kernel calls to inline, in [0,1]")
	variants := flag.Bool("variants", false, "allow alternative loop forms in inlined code")
	withNonInline := flag.Bool("with-noinline", false, "also store an inline-free twin per program")
	maxNodes := flag.Int("max-nodes", 0, "reject graphs with more nodes (0 = no limit)")
	genMin := flag.Int("gen-min-nodes", 4, "minimum generated nodes per graph")
	genMax := flag.Int("gen-max-nodes", 12, "maximum generated nodes per graph")
	genMaxDim := flag.Int("gen-max-dim", 6, "largest generated dimension extent")
	allowUnmapped := flag.Bool("allow-unmapped", false, "generate operators with no kernel to exercise fallbacks")

	klog.InitFlags(nil)
	flag.Parse()

	log := klog.FromContext(ctx)

	var sink output.Sink
	if *gcsBucket != "" {
		sink = &output.GCSSink{Bucket: *gcsBucket, Prefix: *gcsPrefix}
	} else {
		sink = &output.DirSink{Dir: *outDir}
	}

	res, err := torchsyn.GenerateBatch(ctx, torchsyn.BatchConfig{
		Count:    *count,
		BaseName: *baseName,
		Seed:     *seed,
		Workers:  *workers,
		Compile: torchsyn.Options{
			InlineRate: *inlineRate,
			Variants:   *variants,
			MaxNodes:   *maxNodes,
		},
		Gen: graphgen.Config{
			MinNodes:      *genMin,
			MaxNodes:      *genMax,
			MaxDim:        *genMaxDim,
			AllowUnmapped: *allowUnmapped,
		},
		WithNonInline: *withNonInline,
		Sink:          sink,
	})
	if err != nil {
		return fmt.Errorf("generating batch: %w", err)
	}

	if res.Warnings != nil {
		log.Info("some programs carry fallback operators", "partial", res.Partial)
	}
	log.Info("done", "stored", res.Stored,
		"hint", fmt.Sprintf("gcc -O2 -Wall -std=c99 %s/%s_0.c -o %s_0 -lm", *outDir, *baseName, *baseName))
	return nil
}
