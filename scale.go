package tekscope

import (
	"iter"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Point is one scaled sample: X in seconds, Y in the waveform's Y units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale returns the samples as points, left to right across the capture:
//
//	x_i = XZero + i*XIncrement
//	y_i = (sample_i - YOffset)*YScale + YZero
//
// Points are computed as the sequence is ranged over; slices.Collect
// materializes them.
func Scale(samples []uint16, p *WaveformPreamble) (iter.Seq[Point], error) {
	xzero, err := parseScaleField("xzero", p.XZero)
	if err != nil {
		return nil, err
	}
	dx, err := parseScaleField("x_incr", p.XIncrement)
	if err != nil {
		return nil, err
	}
	ym, err := parseScaleField("y_scale", p.YScale)
	if err != nil {
		return nil, err
	}
	yzero, err := parseScaleField("y_zero", p.YZero)
	if err != nil {
		return nil, err
	}
	yoff, err := parseScaleField("y_offset", p.YOffset)
	if err != nil {
		return nil, err
	}

	return func(yield func(Point) bool) {
		for i, s := range samples {
			pt := Point{
				X: xzero + float64(i)*dx,
				Y: (float64(s)-yoff)*ym + yzero,
			}
			if !yield(pt) {
				return
			}
		}
	}, nil
}

func parseScaleField(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrProtocolFormat, "%s %q is not numeric", name, v)
	}
	return f, nil
}
