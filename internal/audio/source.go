// Package audio exposes one audio stream of a media file or capture
// device as per-channel normalised float32 samples, plus the exact
// integer partitioning of the stream into analysis intervals that the
// spectrum stage consumes.
package audio

import (
	"errors"

	"github.com/linuxmatters/spektra/internal/media"
)

// deviceDuration is the assumed timeline, in seconds, for live capture
// sources that cannot report one.
const deviceDuration = 60

// dualRateCodecs report both bits per sample and bitrate; bits per sample
// is meaningless for them and gets suppressed.
var dualRateCodecs = map[string]bool{
	"aac":   true,
	"mpc8":  true,
	"wmav1": true,
	"wmav2": true,
}

// StreamInfo describes the resolved stream. It is immutable after Open;
// on failed resolution it holds whatever was determined before the
// failure, so callers can still display metadata next to the error.
type StreamInfo struct {
	CodecName     string
	BitRate       int // 0 when bits per sample is authoritative
	SampleRate    int
	BitsPerSample int // 0 when bitrate is authoritative
	Streams       int // count of audio streams in the container
	Channels      int
	Duration      float64 // seconds
}

// File is an open decode session over one audio stream. It is not safe
// for concurrent use; reads block on the underlying I/O.
type File struct {
	err       Error
	container media.Container
	decoder   media.Decoder
	stream    int // stream index within the container
	info      StreamInfo
	timeBase  media.Rational

	channel int
	pkt     *media.Packet
	offset  int // bytes of pkt already consumed
	buf     []float32
	plan    IntervalPlan
}

// Open resolves an audio source. When device is non-empty the named
// capture device is opened instead of path. stream selects the Nth audio
// stream (0-based) in container order.
//
// Open never fails outright: the returned File carries an Error code and
// whatever StreamInfo had been populated when resolution stopped.
// media.Init must have been called first.
func Open(path, device string, stream int) *File {
	locator, isDevice := path, false
	if device != "" {
		locator, isDevice = device, true
	}

	c, err := media.Open(locator, isDevice)
	if err != nil {
		return &File{err: openError(err, isDevice), channel: -1}
	}
	return resolve(c, stream, isDevice)
}

func openError(err error, isDevice bool) Error {
	switch {
	case errors.Is(err, media.ErrNoDevice):
		return ErrCannotOpenDevice
	case errors.Is(err, media.ErrNoStreams):
		return ErrNoStreams
	default:
		return ErrCannotOpenFile
	}
}

// resolve runs the validation pipeline over an open container. Each
// failure short-circuits the remaining steps but keeps the metadata
// populated so far; the container stays attached for teardown either way.
func resolve(c media.Container, stream int, isDevice bool) *File {
	f := &File{container: c, stream: -1, channel: -1}

	// Select the Nth audio stream in container order.
	for i, desc := range c.Streams() {
		if !desc.IsAudio {
			continue
		}
		if f.info.Streams == stream {
			f.stream = i
		}
		f.info.Streams++
	}
	if f.stream < 0 {
		f.err = ErrNoAudio
		return f
	}
	desc := c.Streams()[f.stream]

	dec, err := c.FindDecoder(f.stream)
	if err != nil {
		f.err = ErrNoDecoder
		return f
	}
	f.decoder = dec

	// Fill in the stream info even if the decoder won't open later.
	f.info.CodecName = dec.Name()
	f.info.BitRate = desc.BitRate
	f.info.SampleRate = desc.SampleRate
	f.info.BitsPerSample = desc.BitsPerSample
	if dualRateCodecs[dec.Tag()] {
		f.info.BitsPerSample = 0
	}
	if f.info.BitsPerSample != 0 {
		f.info.BitRate = 0
	}
	f.info.Channels = desc.Channels
	f.timeBase = desc.TimeBase

	switch containerDur, ok := c.Duration(); {
	case desc.HasDuration:
		f.info.Duration = desc.Duration
	case ok:
		f.info.Duration = containerDur
	case isDevice:
		f.info.Duration = deviceDuration
	default:
		f.err = ErrNoDuration
		return f
	}

	if f.info.Channels <= 0 {
		f.err = ErrNoChannels
		return f
	}

	if err := dec.Open(); err != nil {
		f.err = ErrCannotOpenDecoder
		return f
	}

	if !dec.SampleFormat().Valid() {
		f.err = ErrBadSampleFormat
		return f
	}
	return f
}

// Err returns the session's terminal error code, OK if none.
func (f *File) Err() Error {
	return f.err
}

// Info returns the resolved stream metadata.
func (f *File) Info() StreamInfo {
	return f.info
}

// Close releases the session. The decoder always closes before the
// container; Close is safe on partially resolved sessions and idempotent.
func (f *File) Close() error {
	if f.pkt != nil {
		f.pkt.Release()
		f.pkt = nil
	}
	f.buf = nil
	if f.decoder != nil {
		f.decoder.Close()
		f.decoder = nil
	}
	if f.container != nil {
		err := f.container.Close()
		f.container = nil
		return err
	}
	return nil
}
