package audio

import (
	"math"
	"math/bits"

	"github.com/linuxmatters/spektra/internal/media"
)

// IntervalPlan partitions a stream's total frame count across N equal
// analysis intervals in exact integer arithmetic. Stream time bases are
// frequently non-terminating fractions of the sample rate, so dividing in
// floating point and summing per interval drifts the timeline visibly;
// the plan instead carries the floor frame count plus a Bresenham-style
// error term, and a Walker distributes the leftover frames one at a time
// with no accumulated error.
type IntervalPlan struct {
	FramesPerInterval int64 // floor of frames per interval
	ErrorPerInterval  int64 // remainder, in units of intervals x time base den
	ErrorBase         int64 // intervals x time base den
}

// Plan computes the interval plan for a stream of the given duration
// (seconds), sample rate (Hz) and time base, split into intervals parts.
// It is a pure function; intervals must be >= 1.
func Plan(duration float64, sampleRate int, timeBase media.Rational, intervals int) IntervalPlan {
	rate := int64(sampleRate) * int64(timeBase.Num)
	ticks := int64(math.Round(duration * float64(timeBase.Den) / float64(timeBase.Num)))
	if ticks < 0 {
		ticks = 0
	}
	base := int64(intervals) * int64(timeBase.Den)

	frames, rem := mulDiv(ticks, rate, base)
	return IntervalPlan{
		FramesPerInterval: frames,
		ErrorPerInterval:  rem,
		ErrorBase:         base,
	}
}

// mulDiv returns (a*b)/c and (a*b)%c without overflowing the 128-bit
// intermediate product. All arguments must be non-negative and c > 0;
// the quotient must fit in an int64.
func mulDiv(a, b, c int64) (quo, rem int64) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	q, r := bits.Div64(hi, lo, uint64(c))
	return int64(q), int64(r)
}

// TotalFrames returns the exact number of frames the plan distributes
// over the given interval count, equal to what a Walker hands out.
func (p IntervalPlan) TotalFrames(intervals int) int64 {
	n := int64(intervals)
	return n*p.FramesPerInterval + n*p.ErrorPerInterval/p.ErrorBase
}

// Walker reproduces the Bresenham distribution: each interval consumes
// FramesPerInterval frames, plus one extra whenever the running error
// accumulator reaches ErrorBase.
type Walker struct {
	plan IntervalPlan
	acc  int64
}

// Walk returns a fresh Walker over the plan.
func (p IntervalPlan) Walk() *Walker {
	return &Walker{plan: p}
}

// Next returns the frame count of the next interval.
func (w *Walker) Next() int64 {
	frames := w.plan.FramesPerInterval
	w.acc += w.plan.ErrorPerInterval
	if w.acc >= w.plan.ErrorBase {
		w.acc -= w.plan.ErrorBase
		frames++
	}
	return frames
}
