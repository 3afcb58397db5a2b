package media

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// mp3ChunkBytes is one packet's worth of decoded PCM: 4096 stereo frames
// at 4 bytes each (go-mp3 always outputs 16-bit interleaved stereo).
const mp3ChunkBytes = 4096 * 4

type mp3Container struct {
	file *os.File
	dec  *mp3.Decoder
	desc StreamDesc
}

func openMP3(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create MP3 decoder: %w", err)
	}

	c := &mp3Container{
		file: f,
		dec:  dec,
		desc: StreamDesc{
			IsAudio:    true,
			CodecTag:   "mp3",
			SampleRate: dec.SampleRate(),
			Channels:   2,
			TimeBase:   Rational{Num: 1, Den: dec.SampleRate()},
		},
	}

	// Length is the decoded stream size in bytes, -1 when unseekable.
	if n := dec.Length(); n > 0 {
		frames := n / 4
		c.desc.Duration = float64(frames) / float64(dec.SampleRate())
		c.desc.HasDuration = true
		if st, err := f.Stat(); err == nil && c.desc.Duration > 0 {
			c.desc.BitRate = int(float64(st.Size()*8) / c.desc.Duration)
		}
	}
	return c, nil
}

func (c *mp3Container) Streams() []StreamDesc {
	return []StreamDesc{c.desc}
}

func (c *mp3Container) Duration() (float64, bool) {
	return c.desc.Duration, c.desc.HasDuration
}

func (c *mp3Container) FindDecoder(stream int) (Decoder, error) {
	return &rawDecoder{
		name:     "MP3 (MPEG audio layer 3)",
		tag:      "mp3",
		format:   FormatS16,
		channels: 2,
	}, nil
}

func (c *mp3Container) ReadPacket() (*Packet, error) {
	buf := make([]byte, mp3ChunkBytes)
	n, err := io.ReadFull(c.dec, buf)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read MP3 data: %w", err)
	}
	// Trim to whole stereo frames.
	n -= n % 4
	return NewPacket(0, buf[:n], nil), nil
}

func (c *mp3Container) Close() error {
	return c.file.Close()
}
