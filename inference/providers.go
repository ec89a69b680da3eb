// Package inference - Execution providers for the ONNX runtime session.
package inference

import (
	"fmt"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Provider names an ONNX Runtime execution provider.
type Provider string

const (
	// ProviderCPU uses the default CPU execution provider.
	ProviderCPU Provider = "cpu"
	// ProviderCoreML uses Apple CoreML for macOS/iOS acceleration.
	ProviderCoreML Provider = "coreml"
	// ProviderOpenVINO uses Intel OpenVINO for inference optimization.
	ProviderOpenVINO Provider = "openvino"
)

// Providers is a list of all supported providers.
var Providers = []Provider{ProviderCPU, ProviderCoreML, ProviderOpenVINO}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// Flags is the COREML_FLAG bit set passed to the provider. 0 enables every compute unit.
	Flags uint32 `json:"flags" yaml:"flags"`
}

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type, e.g. CPU, GPU or NPU.
	DeviceType string `json:"device_type" yaml:"device_type"`
	// Precision for the selected device. Empty keeps the device default.
	Precision Precision `json:"precision" yaml:"precision"`
	// Overrides the accelerator default number of threads. 0 keeps the default.
	NumOfThreads int `json:"num_of_threads" yaml:"num_of_threads"`
}

// ToProviderOptions converts the options to the string map the runtime expects.
func (o OpenVINOOptions) ToProviderOptions() map[string]string {
	opts := map[string]string{}
	if o.DeviceType != "" {
		opts["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		opts["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		opts["num_of_threads"] = fmt.Sprintf("%d", o.NumOfThreads)
	}
	return opts
}

// appendProvider enables the configured execution provider on options. The CPU provider
// is always present and needs no setup.
func appendProvider(options *ort.SessionOptions, cfg ONNXConfig) error {
	switch cfg.Provider {
	case ProviderCPU, "":
		return nil
	case ProviderCoreML:
		if err := options.AppendExecutionProviderCoreML(cfg.CoreML.Flags); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case ProviderOpenVINO:
		if err := options.AppendExecutionProviderOpenVINO(cfg.OpenVINO.ToProviderOptions()); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	default:
		return errors.Errorf("unsupported execution provider %q", cfg.Provider)
	}
	return nil
}
