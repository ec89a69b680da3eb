package detector

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-subject/images"
	"github.com/nvr-ai/go-subject/inference"
)

// BatchResult is the outcome for one image of a batch.
type BatchResult struct {
	// Path is the image path as given.
	Path string
	// Frame is the decoded image size, zero if decoding failed.
	Frame images.Frame
	// Result is set when Err is nil.
	Result *Result
	// Err is the failure for this image only.
	Err error
}

// RunBatch locates the subject in every image of paths, with at most workers images in
// flight.
//
// A failing image is reported in its own BatchResult and does not stop the others.
// Cancelling ctx stops images that have not started; they report ctx.Err().
//
// Arguments:
//   - ctx: The batch context.
//   - engine: The inference engine, shared by all workers.
//   - paths: Image files.
//   - workers: Maximum concurrency; values below one run serially.
//
// Returns:
//   - []BatchResult: One entry per path, in input order.
func (d *Detector) RunBatch(ctx context.Context, engine inference.Engine, paths []string, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = d.runOne(gctx, engine, path)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	d.log.Info("batch finished", "images", len(paths), "failed", failed, "workers", workers)

	return results
}

func (d *Detector) runOne(ctx context.Context, engine inference.Engine, path string) BatchResult {
	if err := ctx.Err(); err != nil {
		return BatchResult{Path: path, Err: err}
	}

	done := d.startOperation("decode")
	img, frame, err := images.Load(path)
	done()
	if err != nil {
		d.log.Warn("skipping image", "path", path, "error", err)
		return BatchResult{Path: path, Err: errors.Wrapf(err, "image %s", path)}
	}

	result, err := d.Detect(ctx, engine, img)
	if err != nil {
		d.log.Warn("detection failed", "path", path, "error", err)
		return BatchResult{Path: path, Frame: frame, Err: errors.Wrapf(err, "image %s", path)}
	}
	return BatchResult{Path: path, Frame: frame, Result: result}
}
