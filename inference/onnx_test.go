package inference

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-subject/logger"
)

// modelPathEnv points the integration test at a YOLO ONNX export.
const modelPathEnv = "SUBJECT_TEST_MODEL"

func TestONNXConfigValidate(t *testing.T) {
	valid := DefaultONNXConfig()
	valid.ModelPath = "model.onnx"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *ONNXConfig)
	}{
		{"missing model", func(c *ONNXConfig) { c.ModelPath = "" }},
		{"missing input name", func(c *ONNXConfig) { c.InputName = "" }},
		{"zero input size", func(c *ONNXConfig) { c.InputSize = 0 }},
		{"too few channels", func(c *ONNXConfig) { c.OutputChannels = 4 }},
		{"zero anchors", func(c *ONNXConfig) { c.OutputAnchors = 0 }},
		{"bad layout", func(c *ONNXConfig) { c.Layout = "nchw" }},
		{"bad provider", func(c *ONNXConfig) { c.Provider = "tpu" }},
		{"bad precision", func(c *ONNXConfig) { c.OpenVINO.Precision = "INT4" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestONNXConfigOutputShape(t *testing.T) {
	cfg := DefaultONNXConfig()
	assert.Equal(t, []int64{1, 84, 8400}, cfg.OutputShape())

	cfg.Layout = ChannelsLast
	assert.Equal(t, []int64{1, 8400, 84}, cfg.OutputShape())
}

func TestSharedLibPath(t *testing.T) {
	path, err := SharedLibPath("/opt/ort/libonnxruntime.so")
	require.NoError(t, err)
	assert.Equal(t, "/opt/ort/libonnxruntime.so", path)

	t.Setenv(LibraryPathEnv, "/env/libonnxruntime.so")
	path, err = SharedLibPath("")
	require.NoError(t, err)
	assert.Equal(t, "/env/libonnxruntime.so", path)
}

func TestOpenVINOProviderOptions(t *testing.T) {
	assert.Empty(t, OpenVINOOptions{}.ToProviderOptions())
	assert.Equal(t, map[string]string{
		"device_type":    "GPU",
		"precision":      "FP16",
		"num_of_threads": "8",
	}, OpenVINOOptions{DeviceType: "GPU", Precision: PrecisionFP16, NumOfThreads: 8}.ToProviderOptions())
}

func TestNewONNXEngineMissingLibrary(t *testing.T) {
	if ort.IsInitialized() {
		t.Skip("onnxruntime already initialized in this process")
	}

	cfg := DefaultONNXConfig()
	cfg.ModelPath = "model.onnx"
	cfg.LibraryPath = filepath.Join(t.TempDir(), "missing.so")

	_, err := NewONNXEngine(cfg, logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)), "got %v", err)
}

// TestONNXEngineInfer runs a real model when both the runtime library and a model are
// available.
//
// @example
// ONNXRUNTIME_SHARED_LIBRARY_PATH=/usr/lib/libonnxruntime.so SUBJECT_TEST_MODEL=yolo11n.onnx \
// go test -v -run TestONNXEngineInfer
func TestONNXEngineInfer(t *testing.T) {
	modelPath := os.Getenv(modelPathEnv)
	if modelPath == "" || os.Getenv(LibraryPathEnv) == "" {
		t.Skipf("set %s and %s to run", LibraryPathEnv, modelPathEnv)
	}

	cfg := DefaultONNXConfig()
	cfg.ModelPath = modelPath
	engine, err := NewONNXEngine(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	defer engine.Close()

	out, err := engine.Infer(context.Background(), image.NewRGBA(image.Rect(0, 0, 320, 240)))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 84, 8400}, []int(out.Shape()))

	raw, err := DecodeOutput(out, cfg.Layout)
	require.NoError(t, err)
	assert.Equal(t, 8400, raw.Rows())

	require.NoError(t, engine.Close())
	_, err = engine.Infer(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Error(t, err)
}
