// Command find-subject locates the subject of an image: it runs an ONNX object
// detector, keeps the detections of the requested classes and prints the box
// enclosing them, its center and the center's offset from the image center.
//
// Usage:
//
//	find-subject -image photo.jpg -model yolo11n.onnx [-filter person,dog] [-output-format json]
//	find-subject -config find-subject.yaml photos/ other.jpg
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-subject/config"
	"github.com/nvr-ai/go-subject/detector"
	"github.com/nvr-ai/go-subject/inference"
	"github.com/nvr-ai/go-subject/logger"
	"github.com/nvr-ai/go-subject/profiler"
	"github.com/nvr-ai/go-subject/sink"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp().run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app wires the pipeline. Its constructors are replaced in tests.
type app struct {
	logger func(cfg logger.LogConfig) (*logger.Logger, error)
	engine func(cfg *config.Config, log *logger.Logger) (inference.Engine, func(), error)
}

func newApp() *app {
	return &app{logger: logger.New, engine: onnxEngine}
}

func onnxEngine(cfg *config.Config, log *logger.Logger) (inference.Engine, func(), error) {
	engine, err := inference.NewONNXEngine(cfg.Model.ONNX(cfg.Detection.ModelInputSize), log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := engine.Close(); err != nil {
			log.Warn("failed to close engine", "error", err)
		}
		if err := inference.DestroyEnvironment(); err != nil {
			log.Warn("failed to destroy onnxruntime environment", "error", err)
		}
	}
	return engine, cleanup, nil
}

// run executes one invocation and returns the process exit code: 0 when every image
// was processed, including images without a match, and 1 otherwise.
func (a *app) run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return fail(opts.fallbackSink(stdout), err)
	}
	out := outputSink(cfg, stdout)

	if err := cfg.Validate(); err != nil {
		return fail(out, err)
	}
	paths, err := opts.inputs()
	if err != nil {
		return fail(out, err)
	}
	if cfg.Output.AnnotatePath != "" {
		if err := sink.CheckTarget(cfg.Output.AnnotatePath, len(paths)); err != nil {
			return fail(out, err)
		}
	}

	log, err := a.logger(cfg.Log)
	if err != nil {
		return fail(out, err)
	}
	defer log.Sync()

	catalog, err := cfg.Model.LoadCatalog()
	if err != nil {
		return fail(out, err)
	}

	prof := profiler.New(profiler.DefaultMaxSamples)
	det, err := detector.New(cfg.Detection, catalog,
		detector.WithLogger(log),
		detector.WithProfiler(prof),
		detector.WithTensorLayout(cfg.Model.TensorLayout),
	)
	if err != nil {
		return fail(out, err)
	}

	engine, cleanup, err := a.engine(cfg, log)
	if err != nil {
		return fail(out, err)
	}
	defer cleanup()

	log.Info("processing images",
		"count", len(paths),
		"confidence_threshold", cfg.Detection.ConfidenceThreshold,
		"iou_threshold", cfg.Detection.IoUThreshold,
		"class_filter", cfg.Detection.ClassFilter,
		"catalog_size", catalog.Len())

	sinks := sink.Multi{out}
	if cfg.Output.AnnotatePath != "" {
		sinks = append(sinks, sink.NewImageSink(cfg.Output.AnnotatePath))
	}

	code := 0
	for _, r := range det.RunBatch(ctx, engine, paths, cfg.Batch.Workers) {
		if r.Err != nil {
			code = 1
			if err := sinks.WriteError(r.Path, r.Err); err != nil {
				log.Error("failed to write error", "image", r.Path, "error", err)
			}
			continue
		}
		if err := sinks.Write(sink.NewReport(r.Path, r.Result, cfg.Detection.ClassFilter)); err != nil {
			code = 1
			log.Error("failed to write result", "image", r.Path, "error", err)
		}
	}

	prof.Log(log)
	return code
}

func outputSink(cfg *config.Config, stdout io.Writer) sink.Sink {
	if cfg.Output.Format == config.FormatJSON {
		return sink.NewJSONSink(stdout, cfg.Output.Indent)
	}
	return sink.NewTextSink(stdout, cfg.Detection.Debug)
}

func fail(out sink.Sink, err error) int {
	_ = out.WriteError("", err)
	return 1
}
