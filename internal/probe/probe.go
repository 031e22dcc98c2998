// Package probe samples a placement CSV and reports what a run over it would
// see: which generation its header belongs to, how many lines normalize, the
// shape mix and how much of the canvas the sample touches.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"placeetl/internal/bitmap"
	"placeetl/internal/config"
	csvparser "placeetl/internal/parser/csv"
	"placeetl/internal/placement"
)

// Canvas bounds large enough for both generations.
const (
	CanvasWidth  = 2000
	CanvasHeight = 2000
)

// maxErrors caps Report.Errors.
const maxErrors = 10

// Generations reported for a header.
const (
	Gen2017    = "2017"
	Gen2022    = "2022"
	GenMixed   = "mixed"
	GenUnknown = "unknown"
)

// Options control the sampling.
type Options struct {
	// Location names the input in the report.
	Location string
	// Sample is the maximum number of data lines read; 0 reads everything.
	Sample int
	// Parser holds CSV options as in config.Parser.
	Parser config.Options
}

// Report summarizes one sampled input.
type Report struct {
	Location       string   `json:"location" yaml:"location"`
	Headers        []string `json:"headers" yaml:"headers"`
	Generation     string   `json:"generation" yaml:"generation"`
	Lines          int64    `json:"lines" yaml:"lines"`
	Normalized     int64    `json:"normalized" yaml:"normalized"`
	Rejected       int64    `json:"rejected" yaml:"rejected"`
	Tiles          int64    `json:"tiles" yaml:"tiles"`
	Rectangles     int64    `json:"rectangles" yaml:"rectangles"`
	DistinctPixels int      `json:"distinct_pixels" yaml:"distinct_pixels"`
	FirstTimestamp int64    `json:"first_timestamp,omitempty" yaml:"first_timestamp,omitempty"`
	LastTimestamp  int64    `json:"last_timestamp,omitempty" yaml:"last_timestamp,omitempty"`
	Errors         []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Probe reads up to opt.Sample data lines from r and normalizes each of them.
// Malformed lines are counted, not fatal; only an unreadable header is.
func Probe(ctx context.Context, r io.Reader, opt Options) (Report, error) {
	rep := Report{Location: opt.Location, Generation: GenUnknown}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	lines := make(chan csvparser.Line, 256)
	done := make(chan error, 1)
	go func() {
		defer close(lines)
		done <- csvparser.StreamRecords(ctx, r, opt.Parser, lines, func(line int, err error) {
			mu.Lock()
			rep.addError(line, err)
			mu.Unlock()
		})
	}()

	pixels := bitmap.ForCanvas(CanvasWidth, CanvasHeight)
	sampled := false
	for l := range lines {
		if rep.Lines == 0 {
			rep.Headers = headerNames(l.Fields)
			rep.Generation = Generation(rep.Headers)
		}
		rec, err := placement.Normalize(l.Fields)
		mu.Lock()
		rep.Lines++
		if err != nil {
			rep.addError(l.Num, err)
		} else {
			rep.observe(rec, pixels)
		}
		mu.Unlock()

		if opt.Sample > 0 && rep.Lines >= int64(opt.Sample) {
			sampled = true
			cancel()
			break
		}
	}
	for range lines {
	}

	err := <-done
	rep.DistinctPixels = pixels.Count()
	if err != nil && !(sampled && errors.Is(err, context.Canceled)) {
		return rep, err
	}
	return rep, nil
}

// addError is called with Probe's mutex held.
func (r *Report) addError(line int, err error) {
	r.Rejected++
	if len(r.Errors) < maxErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
	}
}

func (r *Report) observe(rec placement.Record, pixels *bitmap.Bitmap) {
	r.Normalized++
	switch s := rec.Shape.(type) {
	case placement.Rectangle:
		r.Rectangles++
	case placement.Tile:
		r.Tiles++
		if s.X < CanvasWidth && s.Y < CanvasHeight {
			pixels.Add(bitmap.CanvasID(int(s.X), int(s.Y), CanvasWidth))
		}
	}
	if rec.Timestamp == placement.NoTimestamp {
		return
	}
	if r.FirstTimestamp == 0 || rec.Timestamp < r.FirstTimestamp {
		r.FirstTimestamp = rec.Timestamp
	}
	if rec.Timestamp > r.LastTimestamp {
		r.LastTimestamp = rec.Timestamp
	}
}

func headerNames(fields []placement.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// Generation classifies a header by the generation-specific field names it
// carries.
func Generation(headers []string) string {
	var has2017, has2022 bool
	for _, h := range headers {
		switch h {
		case "color", "x_coordinate", "y_coordinate":
			has2017 = true
		case "pixel_color", "coordinate":
			has2022 = true
		}
	}
	switch {
	case has2017 && has2022:
		return GenMixed
	case has2017:
		return Gen2017
	case has2022:
		return Gen2022
	default:
		return GenUnknown
	}
}

// SuggestConfig returns a pipeline over the probed inputs. Inputs whose
// sample had rejects get a reject log; inputs of unknown generation are left
// out since every record would fail at write time.
func SuggestConfig(reports []Report, parser config.Options) config.Pipeline {
	p := config.DefaultPipeline()
	if parser != nil {
		p.Parser.Options = parser
	}
	for _, r := range reports {
		if r.Generation == GenUnknown {
			continue
		}
		p.Inputs = append(p.Inputs, r.Location)
		if r.Rejected > 0 {
			p.RejectLog = "rejects.csv"
		}
	}
	return p
}
