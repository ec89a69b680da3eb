package main

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-subject/config"
	"github.com/nvr-ai/go-subject/images"
	"github.com/nvr-ai/go-subject/sink"
)

// options holds the command line. Only flags that were set override the configuration.
type options struct {
	image        string
	configPath   string
	model        string
	names        string
	library      string
	confidence   float64
	iou          float64
	filter       string
	outputFormat string
	annotate     string
	workers      int
	logLevel     string
	debug        bool
	classAware   bool
	paths        []string

	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	def := config.Default()
	o := &options{set: map[string]bool{}}

	fs := flag.NewFlagSet("find-subject", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.image, "image", "", "Path to the input image")
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&o.model, "model", def.Model.Path, "Path to the ONNX model file")
	fs.StringVar(&o.names, "names", def.Model.NamesPath, "Path to a class names file, one name per line")
	fs.StringVar(&o.library, "onnxruntime", def.Model.LibraryPath, "Path to the ONNX Runtime shared library")
	fs.Float64Var(&o.confidence, "confidence", float64(def.Detection.ConfidenceThreshold), "Minimum confidence threshold")
	fs.Float64Var(&o.iou, "iou", float64(def.Detection.IoUThreshold), "IoU threshold for non-maximum suppression")
	fs.StringVar(&o.filter, "filter", strings.Join(def.Detection.ClassFilter, ","), "Comma-separated class names to keep, empty keeps all")
	fs.StringVar(&o.outputFormat, "output-format", def.Output.Format, "Output format: text or json")
	fs.StringVar(&o.annotate, "annotate", "", "Write an annotated copy of each image to this file or directory")
	fs.IntVar(&o.workers, "workers", def.Batch.Workers, "Images processed concurrently")
	fs.StringVar(&o.logLevel, "log-level", def.Log.Level, "Log level: debug, info, warn, error")
	fs.BoolVar(&o.debug, "debug", false, "Report every candidate and its outcome")
	fs.BoolVar(&o.classAware, "class-aware", false, "Only suppress overlapping boxes of the same class")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	if o.image != "" {
		o.paths = append(o.paths, o.image)
	}
	o.paths = append(o.paths, fs.Args()...)
	return o, nil
}

// splitFilter parses a comma separated class list, dropping blanks.
func splitFilter(s string) []string {
	names := []string{}
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// apply overlays the flags that were set on cfg.
func (o *options) apply(cfg *config.Config) {
	if o.set["model"] {
		cfg.Model.Path = o.model
	}
	if o.set["names"] {
		cfg.Model.NamesPath = o.names
	}
	if o.set["onnxruntime"] {
		cfg.Model.LibraryPath = o.library
	}
	if o.set["confidence"] {
		cfg.Detection.ConfidenceThreshold = float32(o.confidence)
	}
	if o.set["iou"] {
		cfg.Detection.IoUThreshold = float32(o.iou)
	}
	if o.set["filter"] {
		cfg.Detection.ClassFilter = splitFilter(o.filter)
	}
	if o.set["output-format"] {
		cfg.Output.Format = o.outputFormat
	}
	if o.set["annotate"] {
		cfg.Output.AnnotatePath = o.annotate
	}
	if o.set["workers"] {
		cfg.Batch.Workers = o.workers
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	if o.set["debug"] {
		cfg.Detection.Debug = o.debug
	}
	if o.set["class-aware"] {
		cfg.Detection.ClassAware = o.classAware
	}
}

// loadConfig reads the configuration file, if any, and applies the flags.
func (o *options) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	o.apply(cfg)
	return cfg, nil
}

// fallbackSink renders errors raised before a configuration is available, following
// -output-format when it was given.
func (o *options) fallbackSink(stdout io.Writer) sink.Sink {
	if o.set["output-format"] && o.outputFormat == config.FormatJSON {
		return sink.NewJSONSink(stdout, config.Default().Output.Indent)
	}
	return sink.NewTextSink(stdout, false)
}

// inputs expands directories into the images they contain.
func (o *options) inputs() ([]string, error) {
	if len(o.paths) == 0 {
		return nil, errors.New("no input image given, use -image or pass paths as arguments")
	}

	var paths []string
	for _, p := range o.paths {
		if !isDir(p) {
			paths = append(paths, p)
			continue
		}
		found, err := images.ListDirectory(p)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no supported images found in %s", strings.Join(o.paths, ", "))
	}
	return paths, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
