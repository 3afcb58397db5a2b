package audio

// Error identifies why a source failed to resolve or why reads stopped.
// Errors are terminal: once set on a File every Read returns -1. The
// zero value OK means the source is usable.
type Error int

const (
	OK Error = iota
	ErrCannotOpenDevice
	ErrCannotOpenFile
	ErrNoStreams
	ErrNoAudio
	ErrNoDecoder
	ErrNoDuration
	ErrNoChannels
	ErrCannotOpenDecoder
	ErrBadSampleFormat
)

func (e Error) String() string {
	switch e {
	case OK:
		return "ok"
	case ErrCannotOpenDevice:
		return "cannot open capture device"
	case ErrCannotOpenFile:
		return "cannot open file"
	case ErrNoStreams:
		return "no streams in container"
	case ErrNoAudio:
		return "no audio stream at requested index"
	case ErrNoDecoder:
		return "no decoder for codec"
	case ErrNoDuration:
		return "cannot determine duration"
	case ErrNoChannels:
		return "invalid channel count"
	case ErrCannotOpenDecoder:
		return "cannot open decoder"
	case ErrBadSampleFormat:
		return "unsupported sample storage format"
	}
	return "unknown error"
}
