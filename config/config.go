// Package config - Configuration for the subject locator, loaded from YAML and
// overridden by command line flags.
package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-subject/inference"
	"github.com/nvr-ai/go-subject/logger"
	"github.com/nvr-ai/go-subject/models"
	"github.com/nvr-ai/go-subject/models/postprocess"
)

// Config is the full locator configuration.
type Config struct {
	Detection Detection        `json:"detection" yaml:"detection"`
	Model     Model            `json:"model" yaml:"model"`
	Output    Output           `json:"output" yaml:"output"`
	Batch     Batch            `json:"batch" yaml:"batch"`
	Log       logger.LogConfig `json:"log" yaml:"log"`
}

// Detection holds the post-processing parameters.
type Detection struct {
	// ConfidenceThreshold keeps candidates whose score is strictly greater.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// IoUThreshold suppresses candidates overlapping a kept box at or above it.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ClassFilter lists the class names to keep. Empty keeps every class.
	ClassFilter []string `json:"class_filter" yaml:"class_filter"`
	// Debug records per-candidate diagnostics.
	Debug bool `json:"debug" yaml:"debug"`
	// ModelInputSize is the side of the square model input.
	ModelInputSize int `json:"model_input_size" yaml:"model_input_size"`
	// ClassAware restricts suppression to boxes of the same class.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
}

// Model describes the ONNX model and its class catalog.
type Model struct {
	Path string `json:"path" yaml:"path"`
	// NamesPath is a names file, one class per line. Empty uses the Catalog built-in.
	NamesPath string `json:"names_path" yaml:"names_path"`
	// Catalog selects a built-in class set when NamesPath is empty.
	Catalog        models.ModelFamily        `json:"catalog" yaml:"catalog"`
	LibraryPath    string                    `json:"library_path" yaml:"library_path"`
	InputName      string                    `json:"input_name" yaml:"input_name"`
	OutputName     string                    `json:"output_name" yaml:"output_name"`
	OutputChannels int                       `json:"output_channels" yaml:"output_channels"`
	OutputAnchors  int                       `json:"output_anchors" yaml:"output_anchors"`
	TensorLayout   inference.TensorLayout    `json:"tensor_layout" yaml:"tensor_layout"`
	Provider       inference.Provider        `json:"provider" yaml:"provider"`
	CoreML         inference.CoreMLOptions   `json:"coreml" yaml:"coreml"`
	OpenVINO       inference.OpenVINOOptions `json:"openvino" yaml:"openvino"`
	IntraOpThreads int                       `json:"intra_op_threads" yaml:"intra_op_threads"`
	InterOpThreads int                       `json:"inter_op_threads" yaml:"inter_op_threads"`
}

// Output controls how results are rendered.
type Output struct {
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
	// Indent pretty-prints JSON output.
	Indent bool `json:"indent" yaml:"indent"`
	// AnnotatePath writes an annotated copy of the image when set.
	AnnotatePath string `json:"annotate_path" yaml:"annotate_path"`
}

// Batch controls multi-image runs.
type Batch struct {
	// Workers is the number of images processed concurrently.
	Workers int `json:"workers" yaml:"workers"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	onnx := inference.DefaultONNXConfig()
	return &Config{
		Detection: Detection{
			ConfidenceThreshold: 0.6,
			IoUThreshold:        0.55,
			ClassFilter:         []string{"person"},
			ModelInputSize:      postprocess.DefaultModelInputSize,
		},
		Model: Model{
			Catalog:        models.ModelFamilyYOLO,
			InputName:      onnx.InputName,
			OutputName:     onnx.OutputName,
			OutputChannels: onnx.OutputChannels,
			OutputAnchors:  onnx.OutputAnchors,
			TensorLayout:   onnx.Layout,
			Provider:       onnx.Provider,
			IntraOpThreads: onnx.IntraOpThreads,
			InterOpThreads: onnx.InterOpThreads,
		},
		Output: Output{
			Format: FormatText,
			Indent: true,
		},
		Batch: Batch{Workers: 4},
		Log: logger.LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Load reads the YAML file at path over the defaults. The result is not validated;
// call Validate once command line overrides are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "configuration file %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Keys missing from data keep their default
// values; unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	return cfg, nil
}

// NMS returns the suppression parameters.
func (d Detection) NMS() postprocess.NMSConfig {
	return postprocess.NMSConfig{IoUThreshold: d.IoUThreshold, ClassAware: d.ClassAware}
}

// Filter returns the class filter. An empty list allows every class.
func (d Detection) Filter() postprocess.ClassFilter {
	return postprocess.NewClassFilter(d.ClassFilter...)
}

// ONNX returns the engine configuration for a square input of side inputSize.
func (m Model) ONNX(inputSize int) inference.ONNXConfig {
	return inference.ONNXConfig{
		ModelPath:      m.Path,
		LibraryPath:    m.LibraryPath,
		InputName:      m.InputName,
		OutputName:     m.OutputName,
		InputSize:      inputSize,
		OutputChannels: m.OutputChannels,
		OutputAnchors:  m.OutputAnchors,
		Layout:         m.TensorLayout,
		Provider:       m.Provider,
		CoreML:         m.CoreML,
		OpenVINO:       m.OpenVINO,
		IntraOpThreads: m.IntraOpThreads,
		InterOpThreads: m.InterOpThreads,
	}
}

// LoadCatalog returns the class catalog: the names file when set, otherwise the
// built-in set named by Catalog.
func (m Model) LoadCatalog() (*models.OutputClassSet, error) {
	if m.NamesPath != "" {
		return models.LoadNamesFile(m.NamesPath)
	}
	family := m.Catalog
	if family == "" {
		family = models.ModelFamilyYOLO
	}
	return models.Builtin(family)
}
