package audio

import (
	"encoding/binary"
	"math"

	"github.com/linuxmatters/spektra/internal/media"
)

// fill copies one channel of a decoded frame into the session buffer as
// normalised float32 samples. The buffer grows when a frame exceeds it
// and is reused otherwise, never shrinking.
func (f *File) fill(frame *media.Frame) int {
	if frame.Samples > len(f.buf) {
		f.buf = make([]float32, frame.Samples)
	}

	planar := frame.Format.Planar()
	for sample := 0; sample < frame.Samples; sample++ {
		var plane []byte
		var offset int
		if planar {
			plane = frame.Planes[f.channel]
			offset = sample
		} else {
			plane = frame.Planes[0]
			offset = sample*frame.Channels + f.channel
		}
		f.buf[sample] = normalize(frame.Format, plane, offset)
	}
	return frame.Samples
}

// normalize maps the sample at index offset of a raw little-endian plane
// to a float in roughly [-1, 1]. The format switch is closed over the
// eight recognised layouts; anything else was rejected at resolution and
// maps to silence here.
func normalize(format media.SampleFormat, plane []byte, offset int) float32 {
	switch format {
	case media.FormatS16, media.FormatS16P:
		v := int16(binary.LittleEndian.Uint16(plane[offset*2:]))
		return float32(v) / math.MaxInt16
	case media.FormatS32, media.FormatS32P:
		v := int32(binary.LittleEndian.Uint32(plane[offset*4:]))
		return float32(v) / math.MaxInt32
	case media.FormatF32, media.FormatF32P:
		return math.Float32frombits(binary.LittleEndian.Uint32(plane[offset*4:]))
	case media.FormatF64, media.FormatF64P:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(plane[offset*8:])))
	default:
		return 0
	}
}
