// Package feed turns sparse banshee samples into the dense per-step series
// the metric browser plots, and drives chart rebuilds.
package feed

import (
	"fmt"

	"github.com/nicolastakashi/banshee-console/internal/banshee"
)

// Mode selects which sample field a feed plots. It is fixed per feed.
type Mode string

const (
	ModeValue Mode = "v"
	ModeScore Mode = "m"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeValue, ModeScore:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) field(s banshee.Sample) float64 {
	if m == ModeScore {
		return s.Score
	}
	return s.Value
}

// Fill maps samples onto a fixed step grid covering [start, stop). start
// and stop are epoch milliseconds and step is in milliseconds; all three are
// truncated to whole seconds. Samples must be ascending by stamp.
//
// Walking the grid, every step that falls before the next sample emits 0,
// except the step that jumps past the sample's stamp, which emits the
// sample's field. The sample itself is then emitted and the grid advances
// one step. Filling stops once the grid reaches stop or the samples run out,
// so the result can be shorter than the window.
func Fill(samples []banshee.Sample, start, stop, step int64, mode Mode) ([]float64, error) {
	start /= 1000
	stop /= 1000
	step /= 1000
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be at least one second", ErrInvalidWindow)
	}

	values := make([]float64, 0, len(samples))
	for i := 0; start < stop && i < len(samples); i++ {
		stamp := int64(samples[i].Stamp)
		v := mode.field(samples[i])
		for start < stamp {
			start += step
			if start > stamp {
				values = append(values, v)
			} else {
				values = append(values, 0)
			}
		}
		values = append(values, v)
		start += step
	}
	return values, nil
}
