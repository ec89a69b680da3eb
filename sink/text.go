package sink

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// TextSink writes one "key: value" line per field.
type TextSink struct {
	W io.Writer
	// Debug adds one line per candidate when diagnostics are present.
	Debug bool
}

// NewTextSink creates a text sink writing to w.
func NewTextSink(w io.Writer, debug bool) *TextSink {
	return &TextSink{W: w, Debug: debug}
}

// Write implements Sink.
//
// Output:
//
//	imagesize: W,H
//	box: x1,y1,x2,y2
//	center: cx,cy
//	offset: dx,dy
//
// A no-match result prints a message line before the sentinel box.
func (s *TextSink) Write(r Report) error {
	w := bufio.NewWriter(s.W)
	sum := r.Summary

	fmt.Fprintf(w, "imagesize: %d,%d\n", sum.Frame.Width, sum.Frame.Height)

	if s.Debug {
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "candidate: row=%d class=%s confidence=%.4f outcome=%s\n",
				d.Row, className(d.ClassName, d.ClassID), d.Confidence, d.Outcome)
		}
		for _, d := range sum.Detections {
			fmt.Fprintf(w, "detection: %s %.2f %d,%d,%d,%d\n",
				d.ClassName, d.Confidence, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
		}
	}

	if sum.NoMatch {
		fmt.Fprintln(w, NoMatchMessage(r.ClassFilter))
	}
	fmt.Fprintf(w, "box: %d,%d,%d,%d\n", sum.Box.X1, sum.Box.Y1, sum.Box.X2, sum.Box.Y2)
	fmt.Fprintf(w, "center: %d,%d\n", sum.Center.X, sum.Center.Y)
	fmt.Fprintf(w, "offset: %d,%d\n", sum.Offset.X, sum.Offset.Y)

	return errors.Wrap(w.Flush(), "failed to write text result")
}

// WriteError implements Sink.
func (s *TextSink) WriteError(image string, err error) error {
	_, werr := fmt.Fprintf(s.W, "Error: %v\n", err)
	return errors.Wrap(werr, "failed to write text error")
}

func className(name string, id int) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}
