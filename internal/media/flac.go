package media

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
)

// flacContainer maps mewkiz/flac's native frames onto packets: one FLAC
// frame per packet, samples widened to full-scale 32-bit planar PCM.
type flacContainer struct {
	stream *flac.Stream
	desc   StreamDesc
}

func openFLAC(path string) (Container, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("create FLAC decoder: %w", err)
	}

	info := stream.Info
	c := &flacContainer{
		stream: stream,
		desc: StreamDesc{
			IsAudio:       true,
			CodecTag:      "flac",
			SampleRate:    int(info.SampleRate),
			BitsPerSample: int(info.BitsPerSample),
			Channels:      int(info.NChannels),
			TimeBase:      Rational{Num: 1, Den: int(info.SampleRate)},
		},
	}
	if info.NSamples > 0 {
		c.desc.Duration = float64(info.NSamples) / float64(info.SampleRate)
		c.desc.HasDuration = true
	}
	return c, nil
}

func (c *flacContainer) Streams() []StreamDesc {
	return []StreamDesc{c.desc}
}

func (c *flacContainer) Duration() (float64, bool) {
	return c.desc.Duration, c.desc.HasDuration
}

func (c *flacContainer) FindDecoder(stream int) (Decoder, error) {
	return &planarDecoder{
		name:     "FLAC (Free Lossless Audio Codec)",
		tag:      "flac",
		format:   FormatS32P,
		channels: c.desc.Channels,
	}, nil
}

func (c *flacContainer) ReadPacket() (*Packet, error) {
	frame, err := c.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("parse FLAC frame: %w", err)
	}

	// Serialise subframes as consecutive channel planes, each sample
	// shifted up to 32-bit scale so the normaliser's divisor applies
	// regardless of the source bit depth.
	shift := uint(32 - frame.BitsPerSample)
	samples := len(frame.Subframes[0].Samples)
	data := make([]byte, len(frame.Subframes)*samples*4)
	for ch, sub := range frame.Subframes {
		plane := data[ch*samples*4:]
		for i, v := range sub.Samples {
			binary.LittleEndian.PutUint32(plane[i*4:], uint32(v<<shift))
		}
	}
	return NewPacket(0, data, nil), nil
}

func (c *flacContainer) Close() error {
	return c.stream.Close()
}

// planarDecoder splits a packet of consecutive channel planes into a
// planar frame.
type planarDecoder struct {
	name     string
	tag      string
	format   SampleFormat
	channels int
}

func (d *planarDecoder) Name() string               { return d.name }
func (d *planarDecoder) Tag() string                { return d.tag }
func (d *planarDecoder) Open() error                { return nil }
func (d *planarDecoder) SampleFormat() SampleFormat { return d.format }
func (d *planarDecoder) Drain() (*Frame, error)     { return nil, nil }
func (d *planarDecoder) Close() error               { return nil }

func (d *planarDecoder) Decode(data []byte) (int, *Frame, error) {
	width := d.format.BytesPerSample()
	samples := len(data) / (width * d.channels)
	if samples == 0 {
		return len(data), nil, nil
	}

	fr := &Frame{
		Format:   d.format,
		Channels: d.channels,
		Samples:  samples,
	}
	planeBytes := samples * width
	for ch := 0; ch < d.channels; ch++ {
		fr.Planes = append(fr.Planes, data[ch*planeBytes:(ch+1)*planeBytes])
	}
	return len(data), fr, nil
}
