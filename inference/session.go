// Package inference - Inference sessions.
package inference

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Session represents a model session from the onnxruntime with its bound tensors.
type Session struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

// newSession creates an ONNX Runtime session with preallocated input and output tensors.
//
// Order of operations:
//  1. Tensor allocation: fixed-shape buffers for input and output data.
//  2. Session options: threading, graph optimization and the execution provider.
//  3. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - cfg: The engine configuration. The environment must already be initialized.
//
// Returns:
//   - *Session: The session with its tensors. The caller must Close it.
//   - error: An error if any step fails. Partially created resources are released.
func newSession(cfg ONNXConfig) (*Session, error) {
	size := int64(cfg.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape()...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	s := &Session{Input: input, Output: output}

	options, err := ort.NewSessionOptions()
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	// A thread count of 0 lets the runtime choose.
	options.SetIntraOpNumThreads(cfg.IntraOpThreads)
	options.SetInterOpNumThreads(cfg.InterOpThreads)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	if err := appendProvider(options, cfg); err != nil {
		s.Close()
		return nil, err
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "error creating ORT session for %s", cfg.ModelPath)
	}
	s.Session = session

	return s, nil
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.Session != nil {
		keep(errors.Wrap(s.Session.Destroy(), "error destroying ORT session"))
		s.Session = nil
	}
	if s.Input != nil {
		keep(s.Input.Destroy())
		s.Input = nil
	}
	if s.Output != nil {
		keep(s.Output.Destroy())
		s.Output = nil
	}
	return firstErr
}
