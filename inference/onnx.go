package inference

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-subject/logger"
)

// ONNXConfig configures an ONNXEngine.
type ONNXConfig struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"path" yaml:"path"`
	// LibraryPath is the onnxruntime shared library. Empty uses SharedLibPath.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// InputName and OutputName are the graph node names.
	InputName  string `json:"input_name" yaml:"input_name"`
	OutputName string `json:"output_name" yaml:"output_name"`
	// InputSize is the side of the square model input.
	InputSize int `json:"input_size" yaml:"input_size"`
	// OutputChannels is 4 + K for a multi-class head, or 5 for single-class.
	OutputChannels int `json:"output_channels" yaml:"output_channels"`
	// OutputAnchors is the number of candidate rows.
	OutputAnchors int          `json:"output_anchors" yaml:"output_anchors"`
	Layout        TensorLayout `json:"tensor_layout" yaml:"tensor_layout"`

	Provider       Provider        `json:"provider" yaml:"provider"`
	CoreML         CoreMLOptions   `json:"coreml" yaml:"coreml"`
	OpenVINO       OpenVINOOptions `json:"openvino" yaml:"openvino"`
	IntraOpThreads int             `json:"intra_op_threads" yaml:"intra_op_threads"`
	InterOpThreads int             `json:"inter_op_threads" yaml:"inter_op_threads"`
}

// DefaultONNXConfig returns the configuration for a YOLO export with 80 classes.
func DefaultONNXConfig() ONNXConfig {
	return ONNXConfig{
		InputName:      "images",
		OutputName:     "output0",
		InputSize:      640,
		OutputChannels: 84,
		OutputAnchors:  8400,
		Layout:         ChannelsFirst,
		Provider:       ProviderCPU,
		IntraOpThreads: 4,
		InterOpThreads: 2,
	}
}

// Validate checks the configuration without touching the runtime.
func (c ONNXConfig) Validate() error {
	switch {
	case c.ModelPath == "":
		return errors.New("model path is required")
	case c.InputName == "" || c.OutputName == "":
		return errors.New("input and output node names are required")
	case c.InputSize <= 0:
		return errors.Errorf("input size must be positive, got %d", c.InputSize)
	case c.OutputChannels < 5:
		return errors.Errorf("output channels must be at least 5, got %d", c.OutputChannels)
	case c.OutputAnchors <= 0:
		return errors.Errorf("output anchors must be positive, got %d", c.OutputAnchors)
	case !c.Layout.Valid():
		return errors.Errorf("unknown tensor layout %q", c.Layout)
	case !c.Provider.Valid():
		return errors.Errorf("unsupported execution provider %q", c.Provider)
	case !c.OpenVINO.Precision.Valid():
		return errors.Errorf("unknown OpenVINO precision %q", c.OpenVINO.Precision)
	}
	return nil
}

// OutputShape returns the output tensor shape implied by Layout.
func (c ONNXConfig) OutputShape() []int64 {
	if c.Layout == ChannelsLast {
		return []int64{1, int64(c.OutputAnchors), int64(c.OutputChannels)}
	}
	return []int64{1, int64(c.OutputChannels), int64(c.OutputAnchors)}
}

// ONNXEngine runs a detection model through onnxruntime.
//
// The session binds one input and one output tensor, so calls to Infer are serialized.
type ONNXEngine struct {
	cfg     ONNXConfig
	log     *logger.Logger
	mu      sync.Mutex
	session *Session
}

// NewONNXEngine initializes the runtime environment if needed and loads the model.
//
// Arguments:
//   - cfg: The engine configuration.
//   - log: The logger.
//
// Returns:
//   - *ONNXEngine: The engine. The caller must Close it.
//   - error: An error if the configuration is invalid, the library is missing, or the
//     model cannot be loaded.
func NewONNXEngine(cfg ONNXConfig, log *logger.Logger) (*ONNXEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine configuration")
	}

	libPath, err := SharedLibPath(cfg.LibraryPath)
	if err != nil {
		return nil, err
	}
	if err := InitEnvironment(libPath); err != nil {
		return nil, err
	}

	session, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("onnx engine ready",
		"model", cfg.ModelPath,
		"provider", string(cfg.Provider),
		"input_size", cfg.InputSize,
		"output_shape", cfg.OutputShape(),
	)

	return &ONNXEngine{cfg: cfg, log: log, session: session}, nil
}

// Config returns the engine configuration.
func (e *ONNXEngine) Config() ONNXConfig { return e.cfg }

// Infer runs the model on img and returns a copy of the raw output tensor.
//
// Arguments:
//   - ctx: Checked before the run starts; a run in progress is not interrupted.
//   - img: The image to run inference on.
//
// Returns:
//   - tensor.Tensor: A float32 Dense tensor shaped as OutputShape.
//   - error: An error if the engine is closed or the run fails.
func (e *ONNXEngine) Infer(ctx context.Context, img image.Image) (tensor.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, errors.New("engine is closed")
	}

	if err := PrepareInput(img, e.session.Input.GetData(), e.cfg.InputSize); err != nil {
		return nil, errors.Wrap(err, "failed to prepare input")
	}
	if err := e.session.Session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}

	raw := e.session.Output.GetData()
	out := make([]float32, len(raw))
	copy(out, raw)

	shape := e.cfg.OutputShape()
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	return tensor.New(tensor.WithShape(dims...), tensor.WithBacking(out)), nil
}

// Close releases the session. It is safe to call more than once.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}
