package media

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// vorbisChunkValues is one packet's worth of decoded float32 values
// (samples across all channels).
const vorbisChunkValues = 8192

type vorbisContainer struct {
	file *os.File
	dec  *oggvorbis.Reader
	desc StreamDesc
	buf  []float32
}

func openVorbis(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create Vorbis decoder: %w", err)
	}

	c := &vorbisContainer{
		file: f,
		dec:  dec,
		buf:  make([]float32, vorbisChunkValues),
		desc: StreamDesc{
			IsAudio:    true,
			CodecTag:   "vorbis",
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
			TimeBase:   Rational{Num: 1, Den: dec.SampleRate()},
		},
	}
	if n := dec.Length(); n > 0 {
		c.desc.Duration = float64(n) / float64(dec.SampleRate())
		c.desc.HasDuration = true
		if st, err := f.Stat(); err == nil {
			c.desc.BitRate = int(float64(st.Size()*8) / c.desc.Duration)
		}
	}
	return c, nil
}

func (c *vorbisContainer) Streams() []StreamDesc {
	return []StreamDesc{c.desc}
}

func (c *vorbisContainer) Duration() (float64, bool) {
	return c.desc.Duration, c.desc.HasDuration
}

func (c *vorbisContainer) FindDecoder(stream int) (Decoder, error) {
	return &rawDecoder{
		name:     "Vorbis",
		tag:      "vorbis",
		format:   FormatF32,
		channels: c.desc.Channels,
	}, nil
}

func (c *vorbisContainer) ReadPacket() (*Packet, error) {
	// Read returns interleaved float32 values; trim the request to whole
	// sample frames.
	want := len(c.buf) - len(c.buf)%c.desc.Channels
	n, err := c.dec.Read(c.buf[:want])
	if n == 0 {
		if err == nil || err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read Vorbis data: %w", err)
	}

	n -= n % c.desc.Channels
	data := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(c.buf[i]))
	}
	return NewPacket(0, data, nil), nil
}

func (c *vorbisContainer) Close() error {
	return c.file.Close()
}
