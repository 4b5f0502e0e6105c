package trace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/elasticpathing/traceprep/internal/spatial"
	"github.com/elasticpathing/traceprep/internal/walk"
)

// RawSuffix is the extension of raw trace logs.
const RawSuffix = ".txt"

// ConvertResult summarizes one converted raw file.
type ConvertResult struct {
	Stores    []string    // stores written, in ordinal order
	Fixes     int         // data lines parsed
	Samples   int         // samples kept in the stores
	Discarded int         // short fragments overwritten by the next segment
	Extent    spatial.Box // bounding box of all fixes
}

// Converter turns raw trace logs into trace stores.
type Converter struct {
	opts SegmenterOptions
	log  *zap.Logger
}

// NewConverter creates a converter
func NewConverter(opts SegmenterOptions, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{opts: opts, log: logger.Named("converter")}
}

// Convert reads a raw trace log and writes its segments through stores. The
// first line is a header. Malformed data lines abort the conversion with an
// error wrapping ErrMalformedFix.
func (c *Converter) Convert(ctx context.Context, r io.Reader, stores StoreFactory) (*ConvertResult, error) {
	seg := NewSegmenter(c.opts)
	result := &ConvertResult{}

	ordinal := 1
	cur, err := stores.Open(ctx, ordinal)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cur != nil {
			cur.Close()
		}
	}()
	result.Stores = append(result.Stores, cur.Name())
	storeSamples := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fix, err := ParseFix(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if result.Fixes == 0 {
			result.Extent = spatial.BoxAround(fix.Lat, fix.Lon, 0)
		} else {
			result.Extent = result.Extent.Extend(fix.Lat, fix.Lon)
		}
		result.Fixes++

		lines := seg.Lines()
		step := seg.Push(fix)
		switch step.Decision {
		case StartNew, Reuse:
			if err := cur.Close(); err != nil {
				cur = nil
				return nil, fmt.Errorf("failed to close %s: %w", result.Stores[len(result.Stores)-1], err)
			}
			cur = nil

			if step.Decision == StartNew {
				ordinal++
			} else {
				result.Discarded++
				result.Samples -= storeSamples
			}
			c.log.Debug("gap detected",
				zap.Int("line", lineNo),
				zap.Int("store_lines", lines),
				zap.Stringer("decision", step.Decision),
				zap.Int("ordinal", ordinal))

			if cur, err = stores.Open(ctx, ordinal); err != nil {
				return nil, err
			}
			if step.Decision == StartNew {
				result.Stores = append(result.Stores, cur.Name())
			}
			storeSamples = 0
		case Continue:
			if err := cur.WriteSamples(ctx, step.Samples); err != nil {
				return nil, fmt.Errorf("failed to write samples to %s: %w", cur.Name(), err)
			}
			storeSamples += len(step.Samples)
			result.Samples += len(step.Samples)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	err = cur.Close()
	cur = nil
	if err != nil {
		return nil, fmt.Errorf("failed to close store: %w", err)
	}

	return result, nil
}

// ConvertFile converts the raw log at path into stores named after base.
func (c *Converter) ConvertFile(ctx context.Context, path string, stores FileStores) (*ConvertResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	result, err := c.Convert(ctx, f, stores)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.log.Info("converted trace",
		zap.String("input", path),
		zap.Int("fixes", result.Fixes),
		zap.Int("samples", result.Samples),
		zap.Int("stores", len(result.Stores)),
		zap.Int("discarded", result.Discarded),
		zap.Float64s("extent", []float64{
			result.Extent.MinLat, result.Extent.MinLon,
			result.Extent.MaxLat, result.Extent.MaxLon,
		}))
	return result, nil
}

// DirResult summarizes a directory conversion.
type DirResult struct {
	Converted map[string]*ConvertResult
	Failed    map[string]error
}

// ConvertDir converts every raw log under dir. Stores for input X.txt are
// named <prefix>_X_<n>. A malformed file is recorded in Failed and the
// remaining files are still converted; any other error stops the run.
func (c *Converter) ConvertDir(ctx context.Context, dir, outDir, prefix, suffix string) (*DirResult, error) {
	paths, err := walk.Files(dir, RawSuffix)
	if err != nil {
		return nil, err
	}

	res := &DirResult{
		Converted: make(map[string]*ConvertResult),
		Failed:    make(map[string]error),
	}
	for _, p := range paths {
		base := strings.TrimSuffix(filepath.Base(p), RawSuffix)
		if prefix != "" {
			base = prefix + "_" + base
		}

		r, err := c.ConvertFile(ctx, p, FileStores{Dir: outDir, Base: base, Suffix: suffix})
		if errors.Is(err, ErrMalformedFix) {
			c.log.Warn("skipping malformed trace", zap.String("input", p), zap.Error(err))
			res.Failed[p] = err
			continue
		}
		if err != nil {
			return res, err
		}
		res.Converted[p] = r
	}

	return res, nil
}
