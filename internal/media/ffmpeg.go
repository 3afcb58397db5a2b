package media

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"unsafe"

	ffmpeg "github.com/csnewman/ffmpeg-go"
)

// deviceOnce guards avdevice registration, which libavdevice requires
// exactly once per process before any capture input can be found.
var deviceOnce sync.Once

// ffContainer implements Container on top of FFmpeg's libavformat. It is
// the fallback for any file extension and the only backend that can open
// live capture devices.
type ffContainer struct {
	ctx     *ffmpeg.AVFormatContext
	streams []StreamDesc
}

// openFFmpeg opens a regular file through libavformat.
func openFFmpeg(path string) (Container, error) {
	return openFFInput(path, nil)
}

// openFFmpegDevice opens a named ALSA capture device, e.g. "default".
func openFFmpegDevice(name string) (Container, error) {
	deviceOnce.Do(func() {
		ffmpeg.AVDeviceRegisterAll()
	})

	backend := ffmpeg.ToCStr("alsa")
	defer backend.Free()

	ifmt := ffmpeg.AVFindInputFormat(backend)
	if ifmt == nil {
		return nil, ErrNoDevice
	}
	return openFFInput(name, ifmt)
}

func openFFInput(locator string, ifmt *ffmpeg.AVInputFormat) (Container, error) {
	loc := ffmpeg.ToCStr(locator)
	defer loc.Free()

	var ctx *ffmpeg.AVFormatContext
	ret, err := ffmpeg.AVFormatOpenInput(&ctx, loc, ifmt, nil)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if ret < 0 {
		return nil, fmt.Errorf("open input: error code %d", ret)
	}

	// Probing can fail on containers that still parse fine (24-bit APE is
	// the classic case), so only bail out when there is truly nothing.
	ret, err = ffmpeg.AVFormatFindStreamInfo(ctx, nil)
	if (err != nil || ret < 0) && ctx.NbStreams() == 0 {
		ffmpeg.AVFormatCloseInput(&ctx)
		return nil, ErrNoStreams
	}

	c := &ffContainer{ctx: ctx}
	streams := ctx.Streams()
	for i := uintptr(0); i < uintptr(ctx.NbStreams()); i++ {
		c.streams = append(c.streams, describeStream(streams.Get(i)))
	}
	return c, nil
}

func describeStream(stream *ffmpeg.AVStream) StreamDesc {
	par := stream.Codecpar()

	desc := StreamDesc{
		IsAudio:    par.CodecType() == ffmpeg.AVMediaTypeAudio,
		BitRate:    int(par.BitRate()),
		SampleRate: par.SampleRate(),
		Channels:   par.ChLayout().NbChannels(),
		TimeBase: Rational{
			Num: stream.TimeBase().Num(),
			Den: stream.TimeBase().Den(),
		},
	}

	if name := ffmpeg.AVCodecGetName(par.CodecId()); name != nil {
		desc.CodecTag = name.String()
	}

	// APE reports bits per coded sample, FLAC bits per raw sample.
	desc.BitsPerSample = par.BitsPerRawSample()
	if desc.BitsPerSample == 0 {
		desc.BitsPerSample = par.BitsPerCodedSample()
	}

	if dur := stream.Duration(); dur != ffmpeg.AVNoptsValue {
		desc.Duration = float64(dur) * float64(desc.TimeBase.Num) / float64(desc.TimeBase.Den)
		desc.HasDuration = true
	}
	return desc
}

func (c *ffContainer) Streams() []StreamDesc {
	return c.streams
}

func (c *ffContainer) Duration() (float64, bool) {
	dur := c.ctx.Duration()
	if dur == ffmpeg.AVNoptsValue {
		return 0, false
	}
	return float64(dur) / float64(ffmpeg.AVTimeBase), true
}

func (c *ffContainer) FindDecoder(stream int) (Decoder, error) {
	par := c.ctx.Streams().Get(uintptr(stream)).Codecpar()
	codec := ffmpeg.AVCodecFindDecoder(par.CodecId())
	if codec == nil {
		return nil, ErrNoDecoder
	}
	return &ffDecoder{codec: codec, par: par}, nil
}

func (c *ffContainer) ReadPacket() (*Packet, error) {
	pkt := ffmpeg.AVPacketAlloc()
	if pkt == nil {
		return nil, fmt.Errorf("allocate packet")
	}

	ret, err := ffmpeg.AVReadFrame(c.ctx, pkt)
	if err != nil || ret < 0 {
		ffmpeg.AVPacketFree(&pkt)
		if err != nil && errors.Is(err, ffmpeg.AVErrorEOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read packet: %w", err)
		}
		return nil, fmt.Errorf("read packet: error code %d", ret)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(pkt.Data())), pkt.Size())
	return NewPacket(pkt.StreamIndex(), data, func() {
		ffmpeg.AVPacketFree(&pkt)
	}), nil
}

func (c *ffContainer) Close() error {
	if c.ctx != nil {
		ffmpeg.AVFormatCloseInput(&c.ctx)
		c.ctx = nil
	}
	return nil
}

// ffDecoder adapts libavcodec's send/receive decode API to the
// (consumed, frame) contract: a Decode call first drains any frame the
// codec has buffered (consuming nothing), and only then feeds it the
// packet bytes (consuming all of them).
type ffDecoder struct {
	codec *ffmpeg.AVCodec
	par   *ffmpeg.AVCodecParameters

	ctx      *ffmpeg.AVCodecContext
	frame    *ffmpeg.AVFrame
	pkt      *ffmpeg.AVPacket
	draining bool
}

func (d *ffDecoder) Name() string {
	return d.codec.LongName().String()
}

func (d *ffDecoder) Tag() string {
	return d.codec.Name().String()
}

func (d *ffDecoder) Open() error {
	d.ctx = ffmpeg.AVCodecAllocContext3(d.codec)
	if d.ctx == nil {
		return fmt.Errorf("allocate codec context")
	}

	ret, err := ffmpeg.AVCodecParametersToContext(d.ctx, d.par)
	if err != nil {
		return fmt.Errorf("copy codec parameters: %w", err)
	}
	if ret < 0 {
		return fmt.Errorf("copy codec parameters: error code %d", ret)
	}

	ret, err = ffmpeg.AVCodecOpen2(d.ctx, d.codec, nil)
	if err != nil {
		return fmt.Errorf("open codec: %w", err)
	}
	if ret < 0 {
		return fmt.Errorf("open codec: error code %d", ret)
	}

	d.frame = ffmpeg.AVFrameAlloc()
	d.pkt = ffmpeg.AVPacketAlloc()
	if d.frame == nil || d.pkt == nil {
		return fmt.Errorf("allocate frame")
	}
	return nil
}

func (d *ffDecoder) SampleFormat() SampleFormat {
	if d.ctx == nil {
		return FormatInvalid
	}
	switch d.ctx.SampleFmt() {
	case ffmpeg.AVSampleFmtS16:
		return FormatS16
	case ffmpeg.AVSampleFmtS32:
		return FormatS32
	case ffmpeg.AVSampleFmtFlt:
		return FormatF32
	case ffmpeg.AVSampleFmtDbl:
		return FormatF64
	case ffmpeg.AVSampleFmtS16P:
		return FormatS16P
	case ffmpeg.AVSampleFmtS32P:
		return FormatS32P
	case ffmpeg.AVSampleFmtFltp:
		return FormatF32P
	case ffmpeg.AVSampleFmtDblp:
		return FormatF64P
	}
	return FormatInvalid
}

func (d *ffDecoder) Decode(data []byte) (int, *Frame, error) {
	ffmpeg.AVFrameUnref(d.frame)

	_, err := ffmpeg.AVCodecReceiveFrame(d.ctx, d.frame)
	if err == nil {
		return 0, d.wrapFrame(), nil
	}
	if !errors.Is(err, ffmpeg.EAgain) && !errors.Is(err, ffmpeg.AVErrorEOF) {
		return 0, nil, fmt.Errorf("receive frame: %w", err)
	}

	// Codec wants input; hand it the whole packet.
	ret, err := ffmpeg.AVNewPacket(d.pkt, len(data))
	if err != nil {
		return 0, nil, fmt.Errorf("allocate packet buffer: %w", err)
	}
	if ret < 0 {
		return 0, nil, fmt.Errorf("allocate packet buffer: error code %d", ret)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(d.pkt.Data())), len(data)), data)

	_, err = ffmpeg.AVCodecSendPacket(d.ctx, d.pkt)
	ffmpeg.AVPacketUnref(d.pkt)
	if err != nil {
		return 0, nil, fmt.Errorf("send packet: %w", err)
	}

	_, err = ffmpeg.AVCodecReceiveFrame(d.ctx, d.frame)
	if err == nil {
		return len(data), d.wrapFrame(), nil
	}
	if errors.Is(err, ffmpeg.EAgain) || errors.Is(err, ffmpeg.AVErrorEOF) {
		// Consumed but nothing complete yet.
		return len(data), nil, nil
	}
	return len(data), nil, fmt.Errorf("receive frame: %w", err)
}

// Drain flushes the codec at end of stream: the first call puts it into
// draining mode with a nil packet, then each call hands back one frame
// libav still buffers until none remain.
func (d *ffDecoder) Drain() (*Frame, error) {
	if !d.draining {
		d.draining = true
		if _, err := ffmpeg.AVCodecSendPacket(d.ctx, nil); err != nil && !errors.Is(err, ffmpeg.AVErrorEOF) {
			return nil, fmt.Errorf("flush decoder: %w", err)
		}
	}

	ffmpeg.AVFrameUnref(d.frame)
	_, err := ffmpeg.AVCodecReceiveFrame(d.ctx, d.frame)
	if err == nil {
		return d.wrapFrame(), nil
	}
	if errors.Is(err, ffmpeg.AVErrorEOF) || errors.Is(err, ffmpeg.EAgain) {
		return nil, nil
	}
	return nil, fmt.Errorf("receive frame: %w", err)
}

// wrapFrame exposes the codec's frame planes without copying. The slices
// stay valid until the next Decode unrefs the frame, which matches the
// Frame contract.
func (d *ffDecoder) wrapFrame() *Frame {
	format := d.SampleFormat()
	samples := d.frame.NbSamples()
	channels := d.frame.ChLayout().NbChannels()

	fr := &Frame{
		Format:   format,
		Channels: channels,
		Samples:  samples,
	}
	if format.Planar() {
		for ch := 0; ch < channels; ch++ {
			plane := d.frame.Data().Get(uintptr(ch))
			size := samples * format.BytesPerSample()
			fr.Planes = append(fr.Planes, unsafe.Slice((*byte)(unsafe.Pointer(plane)), size))
		}
	} else {
		plane := d.frame.Data().Get(0)
		size := samples * channels * format.BytesPerSample()
		fr.Planes = append(fr.Planes, unsafe.Slice((*byte)(unsafe.Pointer(plane)), size))
	}
	return fr
}

func (d *ffDecoder) Close() error {
	if d.frame != nil {
		ffmpeg.AVFrameFree(&d.frame)
	}
	if d.pkt != nil {
		ffmpeg.AVPacketFree(&d.pkt)
	}
	if d.ctx != nil {
		ffmpeg.AVCodecFreeContext(&d.ctx)
	}
	return nil
}
