// Package pipeline sequences the outline stages for a single image:
// grayscale normalization, optional exposure correction, multi-class
// thresholding, boundary extraction, optional post filtering and compositing.
//
// A Pipeline holds only its logger. Every run is a pure function of the source
// pixels and Options, so identical inputs produce bit-identical rasters and a
// single Pipeline may be shared by concurrent goroutines.
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/stat"

	"outlineart/internal/models"
	"outlineart/pkg/boundary"
	"outlineart/pkg/compositor"
	perr "outlineart/pkg/errors"
	"outlineart/pkg/exposure"
	"outlineart/pkg/grayscale"
	"outlineart/pkg/postfilter"
	"outlineart/pkg/threshold"
)

// Options is the immutable per-run configuration.
type Options struct {
	// Classes is the number of intensity classes N (>= 2).
	Classes int

	// PhotoCorrection gates the exposure stage; Correction is ignored when false.
	PhotoCorrection bool
	Correction      exposure.Method

	// PostFilter gates removal of components smaller than MinComponentSize.
	PostFilter       bool
	MinComponentSize int

	// Size is the optional resize target.
	Size models.Size

	Invert      bool
	Transparent bool
}

// DefaultOptions mirrors the defaults of the command-line form.
func DefaultOptions() Options {
	return Options{
		Classes:          2,
		Correction:       exposure.DefaultSigmoid(),
		MinComponentSize: postfilter.DefaultMinComponentSize,
		Size:             models.NoResize(),
		Invert:           true,
	}
}

// Stats summarizes one run for logging and reporting.
type Stats struct {
	Thresholds        []float64
	ClassCounts       []int
	MeanIntensity     float64
	BoundaryPixels    int
	RemovedComponents int
}

// Trace holds every intermediate product of a successful run.
type Trace struct {
	Gray      models.Intensity
	Corrected models.Intensity
	Labels    models.LabelMap
	Boundary  models.Mask
	Filtered  models.Mask
	Final     models.Raster
	Stats     Stats
}

// Pipeline runs the outline stages with an explicit logger.
type Pipeline struct {
	logger *log.Logger
}

// New creates a Pipeline. A nil logger discards all output.
func New(logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{logger: logger}
}

// Run converts src into the final boundary raster.
func (p *Pipeline) Run(src models.PixelArray, opts Options) (models.Raster, error) {
	tr, err := p.Trace(src, opts)
	if err != nil {
		return models.Raster{}, err
	}
	return tr.Final, nil
}

// Trace runs the pipeline and returns all intermediates. Errors carry the
// kind and the stage that raised them; no partial trace is returned.
func (p *Pipeline) Trace(src models.PixelArray, opts Options) (*Trace, error) {
	if opts.Classes < 2 {
		return nil, perr.WithStage(perr.New(perr.KindInvalidParameter, "classes",
			"class count must be at least 2, got %d", opts.Classes), perr.StageThreshold)
	}

	gray, err := grayscale.Normalize(src)
	if err != nil {
		return nil, perr.WithStage(err, perr.StageGrayscale)
	}
	p.logger.Debug("grayscale", "width", gray.Width, "height", gray.Height, "channels", src.Channels)

	corrected := gray
	if opts.PhotoCorrection {
		if corrected, err = exposure.Correct(gray, opts.Correction); err != nil {
			return nil, perr.WithStage(err, perr.StageExposure)
		}
		p.logger.Debug("exposure", "method", opts.Correction)
	}

	labels, res, err := threshold.Segment(corrected, opts.Classes)
	if err != nil {
		return nil, perr.WithStage(err, perr.StageThreshold)
	}
	p.logger.Debug("threshold", "classes", opts.Classes, "thresholds", res.Thresholds, "variance", res.Variance)

	mask, err := boundary.Extract(labels)
	if err != nil {
		return nil, perr.WithStage(err, perr.StageBoundary)
	}

	filtered, removed := mask, 0
	if opts.PostFilter {
		if filtered, removed, err = postfilter.RemoveSmall(mask, opts.MinComponentSize); err != nil {
			return nil, perr.WithStage(err, perr.StagePostFilter)
		}
		p.logger.Debug("postfilter", "min_size", opts.MinComponentSize, "removed", removed)
	}

	final, err := compositor.Composite(filtered, compositor.Options{
		Size:        opts.Size,
		Invert:      opts.Invert,
		Transparent: opts.Transparent,
	})
	if err != nil {
		return nil, perr.WithStage(err, perr.StageCompositor)
	}

	stats := Stats{
		Thresholds:        res.Thresholds,
		ClassCounts:       threshold.ClassCounts(labels),
		MeanIntensity:     stat.Mean(corrected.Pix, nil),
		BoundaryPixels:    filtered.Count(),
		RemovedComponents: removed,
	}
	p.logger.Debug("composite", "width", final.Width, "height", final.Height,
		"channels", final.Channels(), "boundary_pixels", stats.BoundaryPixels)

	return &Trace{
		Gray:      gray,
		Corrected: corrected,
		Labels:    labels,
		Boundary:  mask,
		Filtered:  filtered,
		Final:     final,
		Stats:     stats,
	}, nil
}
