package detector

import (
	"context"
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-subject/config"
	"github.com/nvr-ai/go-subject/images"
	"github.com/nvr-ai/go-subject/inference"
	"github.com/nvr-ai/go-subject/logger"
	"github.com/nvr-ai/go-subject/models"
	"github.com/nvr-ai/go-subject/models/postprocess"
	"github.com/nvr-ai/go-subject/profiler"
)

var testCatalog = func() *models.OutputClassSet {
	set, err := models.NewOutputClassSet(models.ModelFamilyCustom, "person", "car", "dog")
	if err != nil {
		panic(err)
	}
	return set
}()

// row builds a multi-class row for testCatalog with a single non-zero class score.
func row(cx, cy, w, h float32, classID int, score float32) []float32 {
	r := []float32{cx, cy, w, h, 0, 0, 0}
	r[4+classID] = score
	return r
}

func sceneRows() [][]float32 {
	return [][]float32{
		row(100, 100, 40, 40, 0, 0.9),  // person, kept
		row(102, 102, 40, 40, 0, 0.8),  // person, suppressed by row 0
		row(400, 400, 20, 20, 1, 0.95), // car, removed by the class filter
		row(500, 300, 60, 80, 0, 0.7),  // person, kept
		row(50, 600, 10, 10, 2, 0.3),   // dog, below the confidence threshold
	}
}

func mustRows(t *testing.T, rows [][]float32) postprocess.RawTensor {
	t.Helper()
	raw, err := postprocess.FromRows(rows)
	require.NoError(t, err)
	return raw
}

func newDetector(t *testing.T, debug bool, opts ...Option) *Detector {
	t.Helper()
	cfg := config.Default().Detection
	cfg.Debug = debug
	d, err := New(cfg, testCatalog, opts...)
	require.NoError(t, err)
	return d
}

// TestLocate runs the whole pipeline over a hand-checked scene.
//
// @example
// go test -v -run TestLocate
func TestLocate(t *testing.T) {
	d := newDetector(t, false)
	frame := images.Frame{Width: 1280, Height: 960}

	result, err := d.Locate(mustRows(t, sceneRows()), frame)
	require.NoError(t, err)

	assert.Equal(t, postprocess.LayoutMultiClass, result.Layout)
	assert.Equal(t, 4, result.Candidates)
	assert.Nil(t, result.Diagnostics)

	s := result.Summary
	assert.False(t, s.NoMatch)
	require.Equal(t, 2, s.TotalDetections)
	assert.Equal(t, postprocess.FinalDetection{
		Box:        images.Rect{X1: 160, Y1: 120, X2: 240, Y2: 180},
		Confidence: 0.9,
		ClassName:  "person",
		ClassID:    0,
	}, s.Detections[0])
	assert.Equal(t, images.Rect{X1: 940, Y1: 390, X2: 1060, Y2: 510}, s.Detections[1].Box)
	assert.Equal(t, float32(0.7), s.Detections[1].Confidence)

	assert.Equal(t, images.Rect{X1: 160, Y1: 120, X2: 1060, Y2: 510}, s.Box)
	assert.Equal(t, image.Point{X: 610, Y: 315}, s.Center)
	assert.Equal(t, image.Point{X: -30, Y: -165}, s.Offset)
	assert.Equal(t, float32(0.9), s.MaxConfidence)
}

func TestLocateDebugDiagnostics(t *testing.T) {
	frame := images.Frame{Width: 1280, Height: 960}
	core, logs := observer.New(zapcore.DebugLevel)
	d := newDetector(t, true, WithLogger(logger.Wrap(zap.New(core))))

	result, err := d.Locate(mustRows(t, sceneRows()), frame)
	require.NoError(t, err)

	outcomes := make([]Outcome, len(result.Diagnostics))
	for i, diag := range result.Diagnostics {
		outcomes[i] = diag.Outcome
	}
	assert.Equal(t, []Outcome{OutcomeKept, OutcomeSuppressed, OutcomeClassFiltered, OutcomeKept}, outcomes)
	assert.Equal(t, "car", result.Diagnostics[2].ClassName)
	assert.Equal(t, 2, result.Diagnostics[2].Row)

	// Debug mode only adds diagnostics; the summary is unchanged.
	plain, err := newDetector(t, false).Locate(mustRows(t, sceneRows()), frame)
	require.NoError(t, err)
	assert.Equal(t, plain.Summary, result.Summary)

	located := logs.FilterMessage("located subject").All()
	require.Len(t, located, 1)
	assert.Equal(t, result.ID.String(), located[0].ContextMap()["invocation_id"])
}

func TestLocateNoMatch(t *testing.T) {
	d := newDetector(t, false)
	frame := images.Frame{Width: 800, Height: 600}

	tests := []struct {
		name string
		raw  postprocess.RawTensor
	}{
		{"zero rows without width", postprocess.RawTensor{}},
		{"zero rows with width", func() postprocess.RawTensor {
			raw, err := postprocess.NewRawTensor(nil, 0, 7)
			require.NoError(t, err)
			return raw
		}()},
		{"nothing above threshold", mustRows(t, [][]float32{row(10, 10, 5, 5, 0, 0.2)})},
		{"only filtered classes", mustRows(t, [][]float32{row(10, 10, 5, 5, 2, 0.99)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := d.Locate(tt.raw, frame)
			require.NoError(t, err)
			s := result.Summary
			assert.True(t, s.NoMatch)
			assert.Zero(t, s.TotalDetections)
			assert.Equal(t, images.Rect{X1: 0, Y1: 0, X2: 800, Y2: 600}, s.Box)
			assert.Equal(t, image.Point{X: 400, Y: 300}, s.Center)
			assert.Equal(t, image.Point{}, s.Offset)
		})
	}
}

func TestLocateSingleClassTensor(t *testing.T) {
	d := newDetector(t, false)
	raw := mustRows(t, [][]float32{{320, 320, 64, 64, 0.9}})

	result, err := d.Locate(raw, images.Frame{Width: 800, Height: 480})
	require.NoError(t, err)
	assert.Equal(t, postprocess.LayoutSingleClass, result.Layout)
	require.Len(t, result.Summary.Detections, 1)
	assert.Equal(t, images.Rect{X1: 360, Y1: 216, X2: 440, Y2: 264}, result.Summary.Box)
	assert.Equal(t, "person", result.Summary.Detections[0].ClassName)
}

func TestLocateErrors(t *testing.T) {
	d := newDetector(t, false)

	_, err := d.Locate(mustRows(t, [][]float32{{1, 2, 3, 4, 5, 6}}), images.Frame{Width: 10, Height: 10})
	var shapeErr *postprocess.InputShapeError
	require.True(t, errors.As(err, &shapeErr), "got %v", err)
	assert.Equal(t, 6, shapeErr.Cols)
	assert.Equal(t, 3, shapeErr.CatalogSize)

	_, err = d.Locate(mustRows(t, sceneRows()), images.Frame{Width: 0, Height: 10})
	assert.Error(t, err)
}

func TestNewValidatesFirst(t *testing.T) {
	cfg := config.Default().Detection
	cfg.IoUThreshold = 0

	_, err := New(cfg, testCatalog)
	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	_, err = New(config.Default().Detection, nil)
	assert.Error(t, err)

	_, err = New(config.Default().Detection, testCatalog, WithTensorLayout("nhwc"))
	assert.Error(t, err)
}

func TestDiagnoseCatalogMismatch(t *testing.T) {
	candidates := []postprocess.Detection{
		{ClassID: 7, Confidence: 0.9, Row: 3},
		{ClassID: 0, Confidence: 0.8, Row: 5},
	}
	dropped := map[int]postprocess.DropReason{3: postprocess.DropCatalogMismatch}

	got := diagnose(candidates, []int{0}, dropped, testCatalog)
	require.Len(t, got, 2)
	assert.Equal(t, OutcomeCatalogMismatch, got[0].Outcome)
	assert.Empty(t, got[0].ClassName)
	assert.Equal(t, OutcomeSuppressed, got[1].Outcome)
	assert.Equal(t, "person", got[1].ClassName)
}

// sceneEngine returns the scene rows as a channels-first [1, 7, N] tensor.
func sceneEngine() inference.Engine {
	return inference.EngineFunc(func(ctx context.Context, img image.Image) (tensor.Tensor, error) {
		rows := sceneRows()
		channels, anchors := len(rows[0]), len(rows)
		data := make([]float32, channels*anchors)
		for a, r := range rows {
			for c, v := range r {
				data[c*anchors+a] = v
			}
		}
		return tensor.New(tensor.WithShape(1, channels, anchors), tensor.WithBacking(data)), nil
	})
}

func TestDetect(t *testing.T) {
	p := profiler.New(10)
	d := newDetector(t, false, WithProfiler(p))

	result, err := d.Detect(context.Background(), sceneEngine(), image.NewRGBA(image.Rect(0, 0, 1280, 960)))
	require.NoError(t, err)
	assert.Equal(t, images.Rect{X1: 160, Y1: 120, X2: 1060, Y2: 510}, result.Summary.Box)

	snap := p.Snapshot()
	assert.Equal(t, int64(1), snap.Operations["infer"].Count)
	assert.Equal(t, int64(1), snap.Operations["postprocess"].Count)
	assert.Equal(t, float64(2), snap.Metrics["detections"].Max)
}

func TestDetectEngineFailure(t *testing.T) {
	d := newDetector(t, false)
	boom := errors.New("session lost")
	engine := inference.EngineFunc(func(context.Context, image.Image) (tensor.Tensor, error) {
		return nil, boom
	})

	_, err := d.Detect(context.Background(), engine, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	require.Error(t, err)
	assert.Equal(t, boom, errors.Cause(err))
	assert.Contains(t, err.Error(), "inference failed")
}

func TestDetectConcurrent(t *testing.T) {
	d := newDetector(t, true)
	img := image.NewRGBA(image.Rect(0, 0, 1280, 960))
	engine := sceneEngine()

	done := make(chan *Result, 16)
	for i := 0; i < cap(done); i++ {
		go func() {
			r, err := d.Detect(context.Background(), engine, img)
			assert.NoError(t, err)
			done <- r
		}()
	}
	for i := 0; i < cap(done); i++ {
		r := <-done
		require.NotNil(t, r)
		assert.Equal(t, 2, r.Summary.TotalDetections)
	}
}
