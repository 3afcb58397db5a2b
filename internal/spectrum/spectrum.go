// Package spectrum turns the audio core's per-interval sample stream into
// banded FFT magnitudes for display.
package spectrum

import (
	"fmt"
	"math"

	"github.com/argusdusty/gofft"

	"github.com/linuxmatters/spektra/internal/audio"
	"github.com/linuxmatters/spektra/internal/config"
)

// Source is the slice of the audio session the analyser needs: Read
// produces the next frame's normalised samples in Buffer.
type Source interface {
	Read() int
	Buffer() []float32
}

// Result holds the per-interval analysis of one channel.
type Result struct {
	Bands      [][]float64 // banded FFT magnitudes, one row per interval
	RMS        []float64   // RMS level per interval
	FramesRead int64       // exact frames consumed across all intervals
}

// ProgressFunc receives each interval's bands as they are computed.
type ProgressFunc func(interval, total int, bands []float64, rms float64)

// maxBands is the highest usable band count: one bin per band over the
// analysed lower 3/4 of the positive spectrum.
const maxBands = (config.FFTSize / 2 * 3) / 4

// Analyze consumes exactly the planned frame count per interval from src
// and computes banded magnitudes. A stream that ends early just yields
// fewer intervals; a source in a terminal error state is reported.
func Analyze(src Source, plan audio.IntervalPlan, intervals, bands int, progress ProgressFunc) (*Result, error) {
	if intervals < 1 {
		return nil, fmt.Errorf("interval count must be >= 1, got %d", intervals)
	}
	if bands < 1 || bands > maxBands {
		return nil, fmt.Errorf("band count out of range: %d", bands)
	}

	res := &Result{}
	walk := plan.Walk()
	var pending []float32 // tail of the last frame not yet assigned to an interval

	for i := 0; i < intervals; i++ {
		need := walk.Next()
		window := make([]float64, 0, config.FFTSize)
		var sumSquares float64
		var got int64

		for got < need {
			if len(pending) == 0 {
				n := src.Read()
				if n < 0 {
					return nil, fmt.Errorf("audio source in error state")
				}
				if n == 0 {
					break
				}
				pending = src.Buffer()[:n]
			}

			take := int64(len(pending))
			if take > need-got {
				take = need - got
			}
			for _, s := range pending[:take] {
				v := float64(s)
				sumSquares += v * v
				if len(window) < cap(window) {
					window = append(window, v)
				}
			}
			pending = pending[take:]
			got += take
		}

		if got == 0 {
			break
		}
		res.FramesRead += got

		magnitudes, err := bandMagnitudes(window, bands)
		if err != nil {
			return nil, err
		}
		rms := math.Sqrt(sumSquares / float64(got))
		res.Bands = append(res.Bands, magnitudes)
		res.RMS = append(res.RMS, rms)

		if progress != nil {
			progress(i, intervals, magnitudes, rms)
		}
		if got < need {
			break
		}
	}
	return res, nil
}

// bandMagnitudes windows the interval's leading samples, transforms them
// and averages bin magnitudes into bands. Only the lower 3/4 of the
// positive spectrum is used; the top end carries little audible content.
func bandMagnitudes(samples []float64, bands int) ([]float64, error) {
	windowed := make([]float64, config.FFTSize)
	copy(windowed, samples)
	applyHanning(windowed[:len(samples)])

	data := gofft.Float64ToComplex128Array(windowed)
	if err := gofft.FFT(data); err != nil {
		return nil, fmt.Errorf("fft: %w", err)
	}

	halfSize := len(data) / 2
	maxFreqBin := (halfSize * 3) / 4
	binsPerBand := maxFreqBin / bands

	magnitudes := make([]float64, bands)
	for band := 0; band < bands; band++ {
		start := band * binsPerBand
		end := start + binsPerBand
		if end > maxFreqBin {
			end = maxFreqBin
		}

		var sum float64
		for i := start; i < end; i++ {
			sum += math.Hypot(real(data[i]), imag(data[i]))
		}
		magnitudes[band] = sum / float64(binsPerBand)
	}
	return magnitudes, nil
}

func applyHanning(data []float64) []float64 {
	n := len(data)
	if n < 2 {
		return data
	}
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		data[i] *= window
	}
	return data
}
