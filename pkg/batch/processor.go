// Package batch runs the outline pipeline over a set of image files in
// parallel and writes one boundary image per input.
//
// A failing image never aborts the batch: its error is logged and reported in
// its Result while the remaining images continue.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"outlineart/internal/models"
	"outlineart/pkg/export"
	"outlineart/pkg/pipeline"
	"outlineart/pkg/visualization"
)

// SupportedExtensions are the input file types picked up from directories.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

// Params holds the batch configuration.
type Params struct {
	// Inputs are image files or directories; directories are scanned
	// (non-recursively) for SupportedExtensions.
	Inputs []string

	// OutputDir receives the boundary images.
	OutputDir string

	// Format and Resolution control how each result is written.
	Format     export.Format
	Resolution float64

	// Options is applied to every image.
	Options pipeline.Options

	// NumCores bounds how many images are processed at once.
	NumCores int

	// SaveIntermediaryResults writes every stage under IntermediaryDir/<basename>.
	SaveIntermediaryResults bool
	IntermediaryDir         string
}

// Result reports the outcome for one input file.
type Result struct {
	Input    string
	Output   string
	Stats    pipeline.Stats
	Duration time.Duration
	Err      error
}

// Processor runs a batch.
type Processor struct {
	params   *Params
	pipeline *pipeline.Pipeline
	logger   *log.Logger
}

// NewProcessor creates a processor. A nil logger discards all output.
func NewProcessor(params *Params, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Processor{
		params:   params,
		pipeline: pipeline.New(logger),
		logger:   logger,
	}
}

// Process runs every input and returns one Result per file in input order.
// The returned error is non-nil only when the batch cannot start at all.
func (p *Processor) Process(ctx context.Context) ([]Result, error) {
	files, err := CollectFiles(p.params.Inputs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported images found in %s", strings.Join(p.params.Inputs, ", "))
	}
	if err := os.MkdirAll(p.params.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if p.params.SaveIntermediaryResults {
		if err := os.MkdirAll(p.params.IntermediaryDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create intermediary directory: %w", err)
		}
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if p.params.NumCores > 0 {
		g.SetLimit(p.params.NumCores)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Input: file, Err: err}
				return nil
			}
			p.logger.Info(fmt.Sprintf("Starting %s (%d / %d)", filepath.Base(file), i+1, len(files)))
			results[i] = p.processFile(file)
			if results[i].Err != nil {
				p.logger.Error("image failed", "file", file, "err", results[i].Err)
			}
			return nil
		})
	}
	// Workers never return errors; failures live in the results.
	_ = g.Wait()

	return results, nil
}

func (p *Processor) processFile(path string) Result {
	start := time.Now()
	res := Result{Input: path}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		res.Err = fmt.Errorf("failed to load image %s: %w", path, err)
		return res
	}

	trace, err := p.pipeline.Trace(models.FromImage(img), p.params.Options)
	if err != nil {
		res.Err = err
		return res
	}
	res.Stats = trace.Stats

	if p.params.SaveIntermediaryResults {
		dir := filepath.Join(p.params.IntermediaryDir, baseName(path))
		if err := visualization.NewViewer(trace).SaveSequence(dir); err != nil {
			p.logger.Warn("failed to save intermediary results", "file", path, "err", err)
		}
	}

	out := filepath.Join(p.params.OutputDir,
		OutputName(path, p.params.Options.Classes, p.params.Options.Size.IsSet(), p.params.Format))
	if err := export.Save(trace.Final, out, p.params.Format, p.params.Resolution); err != nil {
		res.Err = err
		return res
	}
	res.Output = out
	res.Duration = time.Since(start)

	p.logger.Info(fmt.Sprintf("Boundary image saved to %s with dpi=%g", out, p.params.Resolution))
	p.logger.Debug("stats", "file", filepath.Base(path), "thresholds", trace.Stats.Thresholds,
		"mean", trace.Stats.MeanIntensity, "boundary_pixels", trace.Stats.BoundaryPixels,
		"elapsed", res.Duration)
	return res
}

// OutputName builds <basename>_boundary_mclass_<N>[__resized].<ext>.
func OutputName(input string, classes int, resized bool, format export.Format) string {
	name := fmt.Sprintf("%s_boundary_mclass_%d", baseName(input), classes)
	if resized {
		name += "__resized"
	}
	return name + format.Extension()
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CollectFiles expands directories, keeps explicitly named files as given and
// orders directory entries by their embedded number, then by name.
func CollectFiles(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("failed to access input %s: %w", in, err)
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read input directory %s: %w", in, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && isSupported(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Slice(names, func(i, j int) bool {
			ni, nj := extractNumber(names[i]), extractNumber(names[j])
			if ni != nj {
				return ni < nj
			}
			return names[i] < names[j]
		})
		for _, n := range names {
			files = append(files, filepath.Join(in, n))
		}
	}
	return files, nil
}

func isSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}
