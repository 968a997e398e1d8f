package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"outlineart/pkg/batch"
	"outlineart/pkg/config"
	perr "outlineart/pkg/errors"
)

const (
	minClasses = 2
	maxClasses = 6
)

// flags mirrors the input form. Values only override the config file when
// the flag was set explicitly.
type flags struct {
	configPath       string
	outputDir        string
	isPhoto          bool
	exposureAlgo     string
	classes          int
	filetype         string
	transparent      bool
	invert           bool
	postFilter       bool
	width            float64
	height           float64
	resolution       float64
	cores            int
	saveIntermediary bool
	intermediaryDir  string
	verbose          bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, perr.UserMessage(err))
		os.Exit(1)
	}
}

func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func newRootCommand() *cobra.Command {
	var f flags
	defaults := config.DefaultConfig()

	root := &cobra.Command{
		Use:          "outlineart [files or directories...]",
		Short:        "Convert images into boundary line art",
		Long:         `outlineart segments each image into intensity classes with multi-level Otsu thresholding and writes the class boundaries as a clean line drawing.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &f)
		},
	}

	fl := root.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for the boundary images")
	fl.BoolVar(&f.isPhoto, "is-photo", defaults.Input.IsPhoto, "apply exposure correction before thresholding")
	fl.StringVar(&f.exposureAlgo, "exposure-algo", defaults.Input.ExposureAlgo,
		`exposure correction: "Gamma", "Sigmoid", "CLAHE", "Histogram Equalization" or "Contrast Stretching"`)
	fl.IntVarP(&f.classes, "classes", "n", defaults.Output.Classes, "number of intensity classes (2-6)")
	fl.StringVarP(&f.filetype, "filetype", "t", defaults.Output.Filetype, "output filetype: PNG, JPG or PDF")
	fl.BoolVar(&f.transparent, "transparent", defaults.Output.TransparentBackground, "make the background transparent")
	fl.BoolVar(&f.invert, "invert", defaults.Output.Invert, "dark lines on a light background")
	fl.BoolVar(&f.postFilter, "post-filter", defaults.Output.PostFilter, "remove small boundary fragments")
	fl.Float64Var(&f.width, "width", defaults.Output.Width, "output width in inches (0 keeps the source size)")
	fl.Float64Var(&f.height, "height", defaults.Output.Height, "output height in inches (0 keeps the source size)")
	fl.Float64Var(&f.resolution, "resolution", defaults.Output.Resolution, "output resolution in ppi")
	fl.IntVar(&f.cores, "cores", defaults.Processing.NumCores, "number of images processed in parallel")
	fl.BoolVar(&f.saveIntermediary, "save-intermediary", defaults.Output.SaveIntermediaryResults, "save every stage as an image")
	fl.StringVar(&f.intermediaryDir, "intermediary-dir", defaults.Output.IntermediaryDir, "directory for intermediary results")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose logging")
	_ = root.MarkFlagRequired("output-dir")

	root.AddCommand(newConfigCommand())
	return root
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration to path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfigFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", args[0])
			return nil
		},
	})
	return cmd
}

// loadConfig reads the config file (if any) and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(f.configPath); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("output-dir") {
		cfg.Output.Directory = f.outputDir
	}
	if changed("is-photo") {
		cfg.Input.IsPhoto = f.isPhoto
	}
	if changed("exposure-algo") {
		cfg.Input.ExposureAlgo = f.exposureAlgo
	}
	if changed("classes") {
		cfg.Output.Classes = f.classes
	}
	if changed("filetype") {
		cfg.Output.Filetype = f.filetype
	}
	if changed("transparent") {
		cfg.Output.TransparentBackground = f.transparent
	}
	if changed("invert") {
		cfg.Output.Invert = f.invert
	}
	if changed("post-filter") {
		cfg.Output.PostFilter = f.postFilter
	}
	if changed("width") {
		cfg.Output.Width = f.width
	}
	if changed("height") {
		cfg.Output.Height = f.height
	}
	if changed("resolution") {
		cfg.Output.Resolution = f.resolution
	}
	if changed("cores") {
		cfg.Processing.NumCores = f.cores
	}
	if changed("save-intermediary") {
		cfg.Output.SaveIntermediaryResults = f.saveIntermediary
	}
	if changed("intermediary-dir") {
		cfg.Output.IntermediaryDir = f.intermediaryDir
	}
	if changed("verbose") {
		cfg.Output.Verbose = f.verbose
	}

	if cfg.Output.Classes < minClasses || cfg.Output.Classes > maxClasses {
		return nil, fmt.Errorf("classes must be between %d and %d, got %d", minClasses, maxClasses, cfg.Output.Classes)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Output.Verbose)

	format, err := cfg.Format()
	if err != nil {
		return err
	}
	opts, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}

	params := &batch.Params{
		Inputs:                  args,
		OutputDir:               cfg.Output.Directory,
		Format:                  format,
		Resolution:              cfg.Resolution(),
		Options:                 opts,
		NumCores:                cfg.Processing.NumCores,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
	}

	logger.Debug("configuration", "classes", opts.Classes, "photo", opts.PhotoCorrection,
		"exposure", opts.Correction, "format", format, "resolution", params.Resolution, "cores", params.NumCores)

	start := time.Now()
	results, err := batch.NewProcessor(params, logger).Process(cmd.Context())
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Infof("Processed %d images, %d failed (%s)", len(results), failed,
		time.Since(start).Round(time.Millisecond))

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(results))
	}
	return nil
}
