// Package export renders a project's edit decisions as NLE interchange
// documents: an FCPXML timeline and a Premiere-style xmeml timeline, both
// built from the same gap-fill segmentation.
package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timebase encodes a frame rate as the exact rational the interchange
// formats require. NTSC rates use 1001-based fractions so repeated edits
// never drift; other rates keep an exact millihertz rational so fractional
// frame rates do not round away.
type Timebase struct {
	FPS float64
	// One frame lasts Num/Den seconds.
	Num int64
	Den int64
}

// NewTimebase classifies fps into its rational form. A non-positive fps falls
// back to 30.
func NewTimebase(fps float64) Timebase {
	if fps <= 0 {
		fps = 30
	}
	const eps = 0.01
	switch {
	case math.Abs(fps-23.976) < eps:
		return Timebase{FPS: fps, Num: 1001, Den: 24000}
	case math.Abs(fps-29.97) < eps:
		return Timebase{FPS: fps, Num: 1001, Den: 30000}
	case math.Abs(fps-59.94) < eps:
		return Timebase{FPS: fps, Num: 1001, Den: 60000}
	}
	if rounded := math.Round(fps); math.Abs(fps-rounded) < eps {
		return Timebase{FPS: fps, Num: 1, Den: int64(rounded)}
	}
	num := int64(1000)
	den := int64(math.Round(fps * 1000))
	g := gcd(num, den)
	return Timebase{FPS: fps, Num: num / g, Den: den / g}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// IsNTSC reports whether the rate uses 1001-based frame durations.
func (t Timebase) IsNTSC() bool { return t.Num == 1001 }

// FrameDuration renders the per-frame rational ("1001/24000s", "1/30s").
func (t Timebase) FrameDuration() string {
	return fmt.Sprintf("%d/%ds", t.Num, t.Den)
}

// Frames converts milliseconds to a whole frame count at this rate.
func (t Timebase) Frames(ms int64) int64 {
	return int64(math.Round(float64(ms) * t.effectiveFPS() / 1000))
}

// Time renders a millisecond position as the exact rational seconds string.
func (t Timebase) Time(ms int64) string {
	frames := t.Frames(ms)
	if frames == 0 {
		return "0s"
	}
	return fmt.Sprintf("%d/%ds", frames*t.Num, t.Den)
}

// RateCode is the frame-rate token used in FCPXML format names: 2398, 2997,
// and 5994 for the NTSC rates, the integer rate otherwise.
func (t Timebase) RateCode() string {
	if t.IsNTSC() {
		switch t.Den {
		case 24000:
			return "2398"
		case 30000:
			return "2997"
		case 60000:
			return "5994"
		}
	}
	return fmt.Sprintf("%d", int64(math.Round(t.FPS)))
}

// TimebaseInt is the whole-number editing rate for Premiere timebases.
func (t Timebase) TimebaseInt() int64 {
	if t.IsNTSC() {
		return t.Den / 1000
	}
	return int64(math.Round(t.FPS))
}

func (t Timebase) effectiveFPS() float64 {
	return float64(t.Den) / float64(t.Num)
}

// ParseRationalMS decodes a rational seconds attribute ("0s", "72072/24000s",
// "5s") back to milliseconds.
func ParseRationalMS(value string) (int64, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), "s")
	if trimmed == "" {
		return 0, fmt.Errorf("empty time value")
	}
	num, den, ok := strings.Cut(trimmed, "/")
	if !ok {
		seconds, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("time value %q: %w", value, err)
		}
		return int64(math.Round(seconds * 1000)), nil
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("time value %q: %w", value, err)
	}
	d, err := strconv.ParseInt(den, 10, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("time value %q: bad denominator", value)
	}
	return int64(math.Round(float64(n) / float64(d) * 1000)), nil
}
