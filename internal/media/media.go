// Package media abstracts the container/codec libraries spektra decodes
// with. The audio core only ever talks to the Container and Decoder
// interfaces defined here; concrete backends (FFmpeg, WAV, MP3, FLAC,
// Vorbis) live in this package and are selected through the registry.
package media

import "errors"

var (
	// ErrNoDevice is returned by Open when the requested capture backend
	// is not available on this system.
	ErrNoDevice = errors.New("media: capture device backend not found")

	// ErrNoStreams is returned by Open when stream probing failed and the
	// container reported no streams at all. Probing failures that still
	// yield stream info are tolerated by backends.
	ErrNoStreams = errors.New("media: no streams in container")

	// ErrNoDecoder is returned by FindDecoder when no decoder exists for
	// the stream's codec.
	ErrNoDecoder = errors.New("media: no decoder for codec")
)

// SampleFormat identifies how raw samples are stored in a decoded frame.
// The set is closed: these eight layouts are the only ones the audio core
// accepts, anything else fails resolution.
type SampleFormat int

const (
	FormatInvalid SampleFormat = iota
	FormatS16                  // signed 16-bit, packed
	FormatS32                  // signed 32-bit, packed
	FormatF32                  // 32-bit float, packed
	FormatF64                  // 64-bit float, packed
	FormatS16P                 // signed 16-bit, planar
	FormatS32P                 // signed 32-bit, planar
	FormatF32P                 // 32-bit float, planar
	FormatF64P                 // 64-bit float, planar
)

// Valid reports whether f is one of the eight recognised storage formats.
func (f SampleFormat) Valid() bool {
	return f >= FormatS16 && f <= FormatF64P
}

// Planar reports whether each channel occupies its own plane. Packed
// formats interleave channels sample-by-sample in a single plane.
func (f SampleFormat) Planar() bool {
	return f >= FormatS16P && f <= FormatF64P
}

// BytesPerSample returns the storage width of one sample.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatS16, FormatS16P:
		return 2
	case FormatS32, FormatS32P, FormatF32, FormatF32P:
		return 4
	case FormatF64, FormatF64P:
		return 8
	}
	return 0
}

func (f SampleFormat) String() string {
	switch f {
	case FormatS16:
		return "s16"
	case FormatS32:
		return "s32"
	case FormatF32:
		return "f32"
	case FormatF64:
		return "f64"
	case FormatS16P:
		return "s16p"
	case FormatS32P:
		return "s32p"
	case FormatF32P:
		return "f32p"
	case FormatF64P:
		return "f64p"
	}
	return "invalid"
}

// Rational is a stream time base: one timestamp tick lasts Num/Den seconds.
type Rational struct {
	Num int
	Den int
}

// StreamDesc describes one stream of an open container, in container order.
type StreamDesc struct {
	IsAudio       bool
	CodecTag      string // short codec identifier, e.g. "aac", "flac"
	BitRate       int
	SampleRate    int
	BitsPerSample int // raw bits per sample, falling back to coded; 0 if unknown
	Channels      int
	Duration      float64 // stream-level duration in seconds
	HasDuration   bool
	TimeBase      Rational
}

// Packet is one demultiplexed compressed packet. Data is valid until
// Release is called; Release is idempotent and must be called exactly
// when the caller is done with the packet, however much of it was
// consumed.
type Packet struct {
	Stream  int
	Data    []byte
	release func()
}

// NewPacket wraps raw packet bytes. release may be nil for backends whose
// packet memory is garbage collected.
func NewPacket(stream int, data []byte, release func()) *Packet {
	return &Packet{Stream: stream, Data: data, release: release}
}

// Release frees the packet's underlying buffer.
func (p *Packet) Release() {
	if p.release != nil {
		p.release()
		p.release = nil
	}
	p.Data = nil
}

// Frame is one decoder-produced batch of samples. For packed formats all
// channels are interleaved in Planes[0]; for planar formats Planes holds
// one slice per channel. Plane contents are only valid until the next
// Decode call on the producing decoder.
type Frame struct {
	Format   SampleFormat
	Channels int
	Samples  int // samples per channel
	Planes   [][]byte
}

// Container is an open media source: a demuxed file or capture device.
type Container interface {
	// Streams lists the container's streams in stored order.
	Streams() []StreamDesc

	// Duration returns the container-level duration in seconds, if known.
	Duration() (float64, bool)

	// FindDecoder locates (but does not open) a decoder for the given
	// stream index. Returns ErrNoDecoder if the codec has no decoder.
	FindDecoder(stream int) (Decoder, error)

	// ReadPacket returns the next packet in stored order, for any stream.
	// io.EOF signals a clean end of stream; any other error means no more
	// usable data.
	ReadPacket() (*Packet, error)

	// Close releases the container. Decoders obtained from it must be
	// closed first.
	Close() error
}

// Decoder turns compressed packet bytes into raw frames.
type Decoder interface {
	// Name is the codec's display name, Tag its short identifier.
	Name() string
	Tag() string

	// Open prepares the decoder. SampleFormat is only meaningful after a
	// successful Open.
	Open() error
	SampleFormat() SampleFormat

	// Decode consumes bytes from the front of data and returns how many
	// were consumed plus at most one complete frame. It may legitimately
	// consume bytes without producing a frame (incremental decode), or
	// produce a buffered frame without consuming bytes, but never both
	// zero. A non-nil error means the rest of data is undecodable and
	// should be discarded.
	Decode(data []byte) (consumed int, frame *Frame, err error)

	// Drain returns a frame the decoder still buffers after the last
	// packet, nil when nothing remains. Called repeatedly at end of
	// stream; Decode must not be called afterwards.
	Drain() (*Frame, error)

	Close() error
}
