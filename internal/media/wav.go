package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames is how many sample frames one packet carries.
const wavChunkFrames = 4096

// wavContainer reads RIFF/WAVE files with go-audio. Packets are slices of
// raw little-endian PCM and the paired decoder is a passthrough.
type wavContainer struct {
	file *os.File
	dec  *wav.Decoder
	desc StreamDesc

	format SampleFormat
	shift  uint // left shift to bring 24-bit samples to full 32-bit scale
}

func openWAV(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek to PCM data: %w", err)
	}

	c := &wavContainer{file: f, dec: dec}
	switch dec.BitDepth {
	case 8, 16:
		c.format = FormatS16
	case 24, 32:
		c.format = FormatS32
		c.shift = uint(32 - dec.BitDepth)
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported WAV bit depth %d", dec.BitDepth)
	}

	bytesPerFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	frames := dec.PCMLen() / bytesPerFrame

	c.desc = StreamDesc{
		IsAudio:       true,
		CodecTag:      fmt.Sprintf("pcm_s%dle", dec.BitDepth),
		BitRate:       int(dec.SampleRate) * int(dec.NumChans) * int(dec.BitDepth),
		SampleRate:    int(dec.SampleRate),
		BitsPerSample: int(dec.BitDepth),
		Channels:      int(dec.NumChans),
		Duration:      float64(frames) / float64(dec.SampleRate),
		HasDuration:   true,
		TimeBase:      Rational{Num: 1, Den: int(dec.SampleRate)},
	}
	if dec.BitDepth == 8 {
		c.desc.CodecTag = "pcm_u8"
	}
	return c, nil
}

func (c *wavContainer) Streams() []StreamDesc {
	return []StreamDesc{c.desc}
}

func (c *wavContainer) Duration() (float64, bool) {
	return c.desc.Duration, true
}

func (c *wavContainer) FindDecoder(stream int) (Decoder, error) {
	name := fmt.Sprintf("PCM signed %d-bit little-endian", c.dec.BitDepth)
	if c.dec.BitDepth == 8 {
		name = "PCM unsigned 8-bit"
	}
	return &rawDecoder{
		name:     name,
		tag:      c.desc.CodecTag,
		format:   c.format,
		channels: c.desc.Channels,
	}, nil
}

func (c *wavContainer) ReadPacket() (*Packet, error) {
	buf := &audio.IntBuffer{
		Data: make([]int, wavChunkFrames*c.desc.Channels),
		Format: &audio.Format{
			NumChannels: c.desc.Channels,
			SampleRate:  c.desc.SampleRate,
		},
	}

	n, err := c.dec.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read PCM buffer: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	width := c.format.BytesPerSample()
	data := make([]byte, n*width)
	for i := 0; i < n; i++ {
		v := buf.Data[i]
		switch c.format {
		case FormatS16:
			if c.dec.BitDepth == 8 {
				v = (v - 128) << 8
			}
			binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(v)))
		case FormatS32:
			binary.LittleEndian.PutUint32(data[i*4:], uint32(int32(v)<<c.shift))
		}
	}
	return NewPacket(0, data, nil), nil
}

func (c *wavContainer) Close() error {
	return c.file.Close()
}

// rawDecoder passes already-raw PCM packets through as frames. Shared by
// the WAV and MP3 backends whose libraries hand us decoded samples.
type rawDecoder struct {
	name     string
	tag      string
	format   SampleFormat
	channels int
}

func (d *rawDecoder) Name() string               { return d.name }
func (d *rawDecoder) Tag() string                { return d.tag }
func (d *rawDecoder) Open() error                { return nil }
func (d *rawDecoder) SampleFormat() SampleFormat { return d.format }
func (d *rawDecoder) Drain() (*Frame, error)     { return nil, nil }
func (d *rawDecoder) Close() error               { return nil }

func (d *rawDecoder) Decode(data []byte) (int, *Frame, error) {
	frameBytes := d.format.BytesPerSample() * d.channels
	samples := len(data) / frameBytes
	if samples == 0 {
		return len(data), nil, nil
	}
	return len(data), &Frame{
		Format:   d.format,
		Channels: d.channels,
		Samples:  samples,
		Planes:   [][]byte{data[:samples*frameBytes]},
	}, nil
}
