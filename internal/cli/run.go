package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/coral-mesh/dwarfcat/internal/catalog"
	"github.com/coral-mesh/dwarfcat/internal/config"
	"github.com/coral-mesh/dwarfcat/internal/dw"
	errs "github.com/coral-mesh/dwarfcat/internal/errors"
	"github.com/coral-mesh/dwarfcat/internal/jsonenc"
)

// runPipeline executes the export end to end: open the image, build
// the catalog, render it, write the output file. With iterations > 1
// (the --test flag) the whole pipeline repeats against the same input
// and every repetition must render byte-identical output; the first
// iteration's document is the one written to disk.
func runPipeline(input string, cfg *config.Config, iterations int, log zerolog.Logger) error {
	if iterations <= 0 {
		iterations = 1
	}

	start := time.Now()
	var firstDigest uint64
	var units, records int

	for i := 0; i < iterations; i++ {
		iterStart := time.Now()

		rendered, u, r, err := runOnce(input, cfg, log)
		if err != nil {
			return err
		}
		units, records = u, r

		digest := xxh3.Hash(rendered)
		log.Info().
			Int("iteration", i+1).
			Str("digest", fmt.Sprintf("%016x", digest)).
			Dur("elapsed", time.Since(iterStart)).
			Msg("pipeline finished")

		if i == 0 {
			firstDigest = digest
			if err := os.WriteFile(cfg.Output, rendered, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
			}
		} else if digest != firstDigest {
			return fmt.Errorf("non-deterministic output: iteration %d digest %016x, first %016x",
				i+1, digest, firstDigest)
		}
	}

	log.Info().
		Int("units", units).
		Int("records", records).
		Str("output", cfg.Output).
		Str("digest", fmt.Sprintf("%016x", firstDigest)).
		Dur("elapsed", time.Since(start)).
		Msg("catalog written")
	return nil
}

// runOnce performs a single open-build-render round and returns the
// rendered document.
func runOnce(input string, cfg *config.Config, log zerolog.Logger) ([]byte, int, int, error) {
	f, err := dw.Open(input)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer errs.DeferClose(log, f, "failed to close input file")

	builder := catalog.NewBuilder(f, catalog.Config{
		Filter:   cfg.Filter,
		Demangle: cfg.Demangle,
	}, log)
	doc := builder.Build()

	var buf bytes.Buffer
	if err := jsonenc.Encode(&buf, doc); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to render catalog: %w", err)
	}

	units, records := builder.Stats()
	return buf.Bytes(), units, records, nil
}
