package audio

import (
	"encoding/binary"
	"io"

	"github.com/linuxmatters/spektra/internal/media"
)

// fakeContainer scripts the media contract for resolver and reader tests.
type fakeContainer struct {
	streams     []media.StreamDesc
	duration    float64
	hasDuration bool
	decoder     media.Decoder
	findErr     error

	packets  []*media.Packet
	next     int
	reads    int
	released int
	closed   bool
}

func (c *fakeContainer) Streams() []media.StreamDesc {
	return c.streams
}

func (c *fakeContainer) Duration() (float64, bool) {
	return c.duration, c.hasDuration
}

func (c *fakeContainer) FindDecoder(stream int) (media.Decoder, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.decoder, nil
}

func (c *fakeContainer) ReadPacket() (*media.Packet, error) {
	c.reads++
	if c.next >= len(c.packets) {
		return nil, io.EOF
	}
	pkt := c.packets[c.next]
	c.next++
	return pkt, nil
}

func (c *fakeContainer) Close() error {
	c.closed = true
	return nil
}

func (c *fakeContainer) addPacket(stream int, data []byte) {
	c.packets = append(c.packets, media.NewPacket(stream, data, func() {
		c.released++
	}))
}

// fakeDecoder defaults to a packed passthrough of its format; tests
// override decode for scripted behaviour.
type fakeDecoder struct {
	name    string
	tag     string
	format  media.SampleFormat
	openErr error
	opened  bool
	closed  bool

	channels int
	decode   func(data []byte) (int, *media.Frame, error)
	drain    func() (*media.Frame, error)
}

func (d *fakeDecoder) Name() string { return d.name }
func (d *fakeDecoder) Tag() string  { return d.tag }

func (d *fakeDecoder) Open() error {
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = true
	return nil
}

func (d *fakeDecoder) SampleFormat() media.SampleFormat {
	return d.format
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDecoder) Drain() (*media.Frame, error) {
	if d.drain != nil {
		return d.drain()
	}
	return nil, nil
}

func (d *fakeDecoder) Decode(data []byte) (int, *media.Frame, error) {
	if d.decode != nil {
		return d.decode(data)
	}
	width := d.format.BytesPerSample() * d.channels
	samples := len(data) / width
	if samples == 0 {
		return len(data), nil, nil
	}
	return len(data), &media.Frame{
		Format:   d.format,
		Channels: d.channels,
		Samples:  samples,
		Planes:   [][]byte{data[:samples*width]},
	}, nil
}

// audioDesc is a healthy stereo 44.1 kHz stream description.
func audioDesc() media.StreamDesc {
	return media.StreamDesc{
		IsAudio:       true,
		CodecTag:      "flac",
		BitRate:       0,
		SampleRate:    44100,
		BitsPerSample: 16,
		Channels:      2,
		Duration:      2.0,
		HasDuration:   true,
		TimeBase:      media.Rational{Num: 1, Den: 44100},
	}
}

func s16Decoder(channels int) *fakeDecoder {
	return &fakeDecoder{
		name:     "FLAC (Free Lossless Audio Codec)",
		tag:      "flac",
		format:   media.FormatS16,
		channels: channels,
	}
}

// s16Bytes packs int16 values as little-endian bytes.
func s16Bytes(values ...int16) []byte {
	data := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return data
}
