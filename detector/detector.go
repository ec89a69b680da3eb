// Package detector - Locates the subject of an image from raw detection tensors:
// confidence filtering, suppression, rescaling, class filtering and summarization.
package detector

import (
	"context"
	"image"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-subject/config"
	"github.com/nvr-ai/go-subject/images"
	"github.com/nvr-ai/go-subject/inference"
	"github.com/nvr-ai/go-subject/logger"
	"github.com/nvr-ai/go-subject/models/postprocess"
	"github.com/nvr-ai/go-subject/profiler"
)

// Catalog maps class indices to names and knows its size.
type Catalog interface {
	postprocess.Catalog
	Len() int
}

// Detector runs the post-processing pipeline. It holds no per-invocation state and is
// safe for concurrent use.
type Detector struct {
	cfg      config.Detection
	nms      postprocess.NMSConfig
	filter   postprocess.ClassFilter
	catalog  Catalog
	layout   inference.TensorLayout
	log      *logger.Logger
	profiler *profiler.Profiler
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(d *Detector) { d.log = log }
}

// WithProfiler records stage timings and counts into p.
func WithProfiler(p *profiler.Profiler) Option {
	return func(d *Detector) { d.profiler = p }
}

// WithTensorLayout sets how engine outputs are arranged. The default is channels first.
func WithTensorLayout(layout inference.TensorLayout) Option {
	return func(d *Detector) { d.layout = layout }
}

// New creates a detector.
//
// Arguments:
//   - cfg: The post-processing parameters. They are validated here, before any tensor
//     is looked at.
//   - catalog: The class catalog of the model.
//   - opts: Optional settings.
//
// Returns:
//   - *Detector: The detector.
//   - error: A *config.ConfigurationError when cfg is invalid, or an error for a
//     missing catalog.
func New(cfg config.Detection, catalog Catalog, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, errors.New("class catalog is empty")
	}

	d := &Detector{
		cfg:     cfg,
		nms:     cfg.NMS(),
		filter:  cfg.Filter(),
		catalog: catalog,
		layout:  inference.ChannelsFirst,
		log:     logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if !d.layout.Valid() {
		return nil, errors.Errorf("unknown tensor layout %q", d.layout)
	}
	return d, nil
}

// Config returns the post-processing parameters.
func (d *Detector) Config() config.Detection { return d.cfg }

// Result is the outcome of one invocation.
type Result struct {
	// ID identifies the invocation in logs.
	ID uuid.UUID `json:"id"`
	// Layout is the row layout resolved from the tensor width.
	Layout postprocess.Layout `json:"-"`
	// Candidates is the number of rows that passed the confidence filter.
	Candidates int `json:"candidates"`
	// Summary is the aggregate result.
	Summary postprocess.Summary `json:"summary"`
	// Diagnostics lists every candidate and its outcome. Only set in debug mode.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Locate runs the pipeline over a raw tensor for an image of size frame.
//
// Order of operations:
//  1. Layout: single-class or multi-class, from the tensor width and catalog size.
//  2. Filter: candidates strictly above the confidence threshold.
//  3. Suppress: greedy NMS in model space.
//  4. Rescale: kept boxes into pixel space.
//  5. Classify: catalog lookup and class filter.
//  6. Summarize: union box, center and offset.
//
// Arguments:
//   - raw: The detection tensor.
//   - frame: The original image size.
//
// Returns:
//   - *Result: The result. No matches is a result with Summary.NoMatch set.
//   - error: An *postprocess.InputShapeError for an unusable tensor width, or an error
//     for an invalid frame.
func (d *Detector) Locate(raw postprocess.RawTensor, frame images.Frame) (*Result, error) {
	id := uuid.New()
	log := d.log.WithFields("invocation_id", id.String())

	if err := frame.Validate(); err != nil {
		return nil, err
	}

	done := d.startOperation("postprocess")
	defer done()

	// A tensor without rows carries no width to check and yields no candidates.
	var layout postprocess.Layout
	var candidates []postprocess.Detection
	if raw.Rows() > 0 {
		var err error
		layout, err = postprocess.ResolveLayout(raw.Cols(), d.catalog.Len())
		if err != nil {
			log.Debug("rejecting tensor", "rows", raw.Rows(), "cols", raw.Cols(), "error", err)
			return nil, err
		}
		candidates = postprocess.Filter(raw, layout, d.cfg.ConfidenceThreshold)
	}
	kept := postprocess.Suppress(candidates, d.nms)

	keptDetections := make([]postprocess.Detection, len(kept))
	for i, idx := range kept {
		keptDetections[i] = candidates[idx]
	}
	rects := postprocess.Rescale(keptDetections, postprocess.NewScale(frame, d.cfg.ModelInputSize))

	var dropped map[int]postprocess.DropReason
	if d.cfg.Debug {
		dropped = make(map[int]postprocess.DropReason)
	}
	final := postprocess.Classify(keptDetections, rects, d.catalog, d.filter,
		func(det postprocess.Detection, reason postprocess.DropReason) {
			if !d.cfg.Debug {
				return
			}
			dropped[det.Row] = reason
			if reason == postprocess.DropCatalogMismatch {
				log.Warn("class index outside catalog",
					"row", det.Row,
					"class_id", det.ClassID,
					"catalog_size", d.catalog.Len(),
				)
			}
		})

	summary := postprocess.Summarize(frame, final)

	result := &Result{
		ID:         id,
		Layout:     layout,
		Candidates: len(candidates),
		Summary:    summary,
	}
	if d.cfg.Debug {
		result.Diagnostics = diagnose(candidates, kept, dropped, d.catalog)
	}

	d.recordMetric("candidates", float64(len(candidates)))
	d.recordMetric("detections", float64(summary.TotalDetections))
	log.Debug("located subject",
		"layout", layout.String(),
		"rows", raw.Rows(),
		"candidates", len(candidates),
		"kept", len(kept),
		"detections", summary.TotalDetections,
		"no_match", summary.NoMatch,
	)

	return result, nil
}

// Detect runs engine on img and locates the subject in its output.
//
// Arguments:
//   - ctx: Passed to the engine.
//   - engine: The inference engine.
//   - img: The decoded image.
//
// Returns:
//   - *Result: The result.
//   - error: An error if inference fails or the output cannot be used.
func (d *Detector) Detect(ctx context.Context, engine inference.Engine, img image.Image) (*Result, error) {
	done := d.startOperation("infer")
	out, err := engine.Infer(ctx, img)
	done()
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	raw, err := inference.DecodeOutput(out, d.layout)
	if err != nil {
		return nil, errors.Wrap(err, "decoding engine output")
	}
	return d.Locate(raw, images.FrameOf(img))
}

func (d *Detector) startOperation(name string) func() {
	if d.profiler == nil {
		return func() {}
	}
	return d.profiler.StartOperation(name)
}

func (d *Detector) recordMetric(name string, value float64) {
	if d.profiler != nil {
		d.profiler.RecordMetric(name, value)
	}
}
