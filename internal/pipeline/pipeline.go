// Package pipeline drives windowed sharpening over whole rasters and
// batches of rasters. Each native tile is read with a filter-sized
// context margin, filtered, cropped back to its exact extent and
// written to the output raster, so memory stays bounded by one buffered
// window and no filter edge effect crosses a tile seam.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/rastertools/sharpen/internal/batch"
	"github.com/rastertools/sharpen/internal/raster"
	"github.com/rastertools/sharpen/internal/sharpen"
	"github.com/rastertools/sharpen/internal/window"
)

// Pipeline sharpens rasters according to a validated Config.
type Pipeline struct {
	cfg    Config
	filter sharpen.Filter
}

// New validates cfg and builds the pipeline. All configuration errors
// surface here, before any raster is opened.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strength, err := sharpen.ParseStrength(cfg.Strength)
	if err != nil {
		return nil, err
	}
	filter, err := sharpen.New(cfg.Method, strength)
	if err != nil {
		return nil, err
	}
	return &Pipeline{cfg: cfg, filter: filter}, nil
}

// Filter exposes the configured filter variant.
func (p *Pipeline) Filter() sharpen.Filter { return p.filter }

// Run processes every feature of the input batch descriptor. A failing
// feature is logged and marks the run as failed but does not stop the
// remaining features. The output descriptor contains one feature per
// successfully sharpened raster and is written even when some features
// failed.
func (p *Pipeline) Run(ctx context.Context) (*geojson.FeatureCollection, error) {
	for _, dir := range []string{p.cfg.InputRoot, p.cfg.OutputRoot, p.cfg.WorkRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	fc, err := batch.Load(p.cfg.InputRoot)
	if err != nil {
		return nil, err
	}
	log.Printf("sharpening %d feature(s) with %s strength %s", len(fc.Features), p.filter.Name(), p.cfg.Strength)

	results := geojson.NewFeatureCollection()
	var failures []error
	for _, feature := range fc.Features {
		relPath, err := batch.DataPath(feature)
		if err != nil {
			log.Printf("skipping feature: %v", err)
			failures = append(failures, err)
			continue
		}
		inPath := filepath.Join(p.cfg.InputRoot, relPath)
		outPath := filepath.Join(p.cfg.OutputRoot, relPath)
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			failures = append(failures, fmt.Errorf("feature %s: %w", relPath, err))
			continue
		}
		if err := p.ProcessRaster(ctx, inPath, outPath); err != nil {
			log.Printf("feature %s failed: %v", relPath, err)
			failures = append(failures, fmt.Errorf("feature %s: %w", relPath, err))
			continue
		}
		results.Append(batch.OutputFeature(feature, relPath))
		log.Printf("feature %s sharpened", relPath)
	}

	if err := batch.Save(p.cfg.OutputRoot, results); err != nil {
		return results, err
	}
	return results, errors.Join(failures...)
}

// ProcessRaster sharpens a single raster. The output is staged under
// the work root and renamed into place only after every tile has been
// written and the dataset flushed, so a failure never leaves a partial
// file at outPath.
func (p *Pipeline) ProcessRaster(ctx context.Context, inPath, outPath string) error {
	src, err := raster.Open(inPath)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(p.cfg.WorkRoot, 0o755); err != nil {
		return fmt.Errorf("create work root: %w", err)
	}
	staging, err := os.MkdirTemp(p.cfg.WorkRoot, "sharpen-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)
	stagePath := filepath.Join(staging, filepath.Base(outPath))

	dst, err := raster.CreateLike(stagePath, src)
	if err != nil {
		return err
	}
	defer dst.Close()

	if p.filter.Windowed() {
		err = p.processWindowed(ctx, src, dst)
	} else {
		err = p.processWhole(ctx, src, dst)
	}
	if err != nil {
		return err
	}

	if err := dst.Close(); err != nil {
		return err
	}
	if err := os.Rename(stagePath, outPath); err != nil {
		return fmt.Errorf("publish output raster: %w", err)
	}
	return nil
}

// processWindowed runs the tiled read -> filter -> crop -> write loop.
// Tiles are independent: with Workers > 1 the filtering runs
// concurrently while reads and writes on the shared GDAL handles stay
// serialized, and the number of in-flight buffered arrays is bounded by
// the worker limit.
func (p *Pipeline) processWindowed(ctx context.Context, src, dst *raster.Dataset) error {
	blocks := src.Blocks(p.filter.Margin())

	if p.cfg.Workers < 2 {
		for {
			tile, buffered, ok := blocks.Next()
			if !ok {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.processTile(src, dst, tile, buffered, nil, nil); err != nil {
				return err
			}
		}
	}

	var srcMu, dstMu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for {
		tile, buffered, ok := blocks.Next()
		if !ok {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.processTile(src, dst, tile, buffered, &srcMu, &dstMu)
		})
	}
	return g.Wait()
}

func (p *Pipeline) processTile(src, dst *raster.Dataset, tile, buffered window.Window, srcMu, dstMu *sync.Mutex) error {
	if srcMu != nil {
		srcMu.Lock()
	}
	arr, err := src.ReadWindow(buffered)
	if srcMu != nil {
		srcMu.Unlock()
	}
	if err != nil {
		return err
	}

	out, err := p.filter.Apply(arr)
	if err != nil {
		return fmt.Errorf("filter tile %+v: %w", tile, err)
	}

	local, err := window.Crop(tile, buffered, src.Transform())
	if err != nil {
		return err
	}
	view := out.Slice(local)

	if dstMu != nil {
		dstMu.Lock()
		defer dstMu.Unlock()
	}
	return dst.WriteWindow(tile, view)
}

// processWhole reads and writes the raster in a single pass, for
// filters without bounded spatial support.
func (p *Pipeline) processWhole(ctx context.Context, src, dst *raster.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := src.Full()
	arr, err := src.ReadWindow(full)
	if err != nil {
		return err
	}
	out, err := p.filter.Apply(arr)
	if err != nil {
		return fmt.Errorf("filter full raster: %w", err)
	}
	return dst.WriteWindow(full, out)
}
