package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"github.com/nvr-ai/go-subject/inference"
	"github.com/nvr-ai/go-subject/logger"
	"github.com/nvr-ai/go-subject/models"
)

// ConfigurationError lists every problem found by Validate.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate validates the configuration with detailed error messages.
//
// Returns:
//   - error: A *ConfigurationError listing all problems, or nil.
func (c *Config) Validate() error {
	problems := c.Detection.problems()
	problems = append(problems, c.Model.problems()...)

	if c.Output.Format != FormatText && c.Output.Format != FormatJSON {
		problems = append(problems, fmt.Sprintf("invalid output.format: %q (must be: text or json)", c.Output.Format))
	}
	if c.Batch.Workers < 1 {
		problems = append(problems, fmt.Sprintf("batch.workers must be >= 1, got: %d", c.Batch.Workers))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid log.level: %q (must be: debug, info, warn, error)", c.Log.Level))
	}
	if !contains(logger.Formats, c.Log.Format) {
		problems = append(problems, fmt.Sprintf("invalid log.format: %q (must be: %s)", c.Log.Format, strings.Join(logger.Formats, " or ")))
	}

	return asError(problems)
}

// Validate checks only the post-processing parameters.
func (d Detection) Validate() error {
	return asError(d.problems())
}

func (d Detection) problems() []string {
	var problems []string

	// Negated comparisons also reject NaN.
	if !(d.ConfidenceThreshold >= 0 && d.ConfidenceThreshold <= 1) {
		problems = append(problems, fmt.Sprintf("detection.confidence_threshold must be between 0 and 1, got: %v", d.ConfidenceThreshold))
	}
	if !(d.IoUThreshold > 0 && d.IoUThreshold <= 1) {
		problems = append(problems, fmt.Sprintf("detection.iou_threshold must be > 0 and <= 1, got: %v", d.IoUThreshold))
	}
	if d.ModelInputSize <= 0 {
		problems = append(problems, fmt.Sprintf("detection.model_input_size must be > 0, got: %d", d.ModelInputSize))
	}
	for i, name := range d.ClassFilter {
		if strings.TrimSpace(name) == "" {
			problems = append(problems, fmt.Sprintf("detection.class_filter[%d] is empty", i))
		}
	}
	return problems
}

func (m Model) problems() []string {
	var problems []string

	if m.NamesPath == "" {
		switch m.Catalog {
		case "", models.ModelFamilyYOLO, models.ModelFamilyCOCO, models.ModelFamilyVOC:
		default:
			problems = append(problems, fmt.Sprintf("invalid model.catalog: %q (must be: yolo, coco or voc)", m.Catalog))
		}
	}
	if !m.TensorLayout.Valid() {
		problems = append(problems, fmt.Sprintf("invalid model.tensor_layout: %q (must be: %s or %s)",
			m.TensorLayout, inference.ChannelsFirst, inference.ChannelsLast))
	}
	if !m.Provider.Valid() {
		problems = append(problems, fmt.Sprintf("invalid model.provider: %q", m.Provider))
	}
	if !m.OpenVINO.Precision.Valid() {
		problems = append(problems, fmt.Sprintf("invalid model.openvino.precision: %q", m.OpenVINO.Precision))
	}
	if m.OutputChannels < 5 {
		problems = append(problems, fmt.Sprintf("model.output_channels must be >= 5, got: %d", m.OutputChannels))
	}
	if m.OutputAnchors <= 0 {
		problems = append(problems, fmt.Sprintf("model.output_anchors must be > 0, got: %d", m.OutputAnchors))
	}
	if m.IntraOpThreads < 0 || m.InterOpThreads < 0 {
		problems = append(problems, "model thread counts must be >= 0")
	}
	return problems
}

func asError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.WithStack(&ConfigurationError{Problems: problems})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
