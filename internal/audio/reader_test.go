package audio

import (
	"fmt"
	"math"
	"testing"

	"github.com/linuxmatters/spektra/internal/media"
)

func resolveFake(t *testing.T, c *fakeContainer, channel int) *File {
	t.Helper()
	f := resolve(c, 0, false)
	if f.Err() != OK {
		t.Fatalf("resolution failed: %v", f.Err())
	}
	f.Start(channel, 10)
	if f.Err() != OK {
		t.Fatalf("start failed: %v", f.Err())
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestStartRejectsOutOfRangeChannel(t *testing.T) {
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: s16Decoder(2),
	}
	c.addPacket(0, s16Bytes(100, 200))

	f := resolve(c, 0, false)
	defer f.Close()
	f.Start(2, 10) // valid channels are 0 and 1

	if f.Err() != ErrNoChannels {
		t.Fatalf("expected ErrNoChannels, got %v", f.Err())
	}
	if got := f.Read(); got != -1 {
		t.Errorf("Read on errored session = %d, want -1", got)
	}
	if c.reads != 0 {
		t.Errorf("errored session must not touch the container, saw %d reads", c.reads)
	}
}

func TestReadProducesSelectedChannel(t *testing.T) {
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: s16Decoder(2),
	}
	// Two interleaved stereo frames: L0 R0 L1 R1.
	c.addPacket(0, s16Bytes(1000, -2000, 3000, -32768))

	f := resolveFake(t, c, 1)
	n := f.Read()
	if n != 2 {
		t.Fatalf("Read = %d, want 2 samples", n)
	}

	want := []float32{-2000.0 / 32767, -32768.0 / 32767}
	for i, w := range want {
		if got := f.Buffer()[i]; got != w {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestReadPlanarChannelAddressing(t *testing.T) {
	dec := s16Decoder(2)
	dec.format = media.FormatS16P
	dec.decode = func(data []byte) (int, *media.Frame, error) {
		// Packet carries the left plane then the right plane.
		half := len(data) / 2
		return len(data), &media.Frame{
			Format:   media.FormatS16P,
			Channels: 2,
			Samples:  half / 2,
			Planes:   [][]byte{data[:half], data[half:]},
		}, nil
	}
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: dec,
	}
	c.addPacket(0, s16Bytes(11, 22, 33, 44)) // left: 11 22, right: 33 44

	f := resolveFake(t, c, 1)
	if n := f.Read(); n != 2 {
		t.Fatalf("Read = %d, want 2", n)
	}
	want := []float32{33.0 / 32767, 44.0 / 32767}
	for i, w := range want {
		if got := f.Buffer()[i]; got != w {
			t.Errorf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestReadSkipsForeignStreamPackets(t *testing.T) {
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc(), {IsAudio: false}},
		decoder: s16Decoder(2),
	}
	c.addPacket(1, []byte{0xde, 0xad})
	c.addPacket(1, []byte{0xbe, 0xef})
	c.addPacket(0, s16Bytes(1, 2))

	f := resolveFake(t, c, 0)
	if n := f.Read(); n != 1 {
		t.Fatalf("Read = %d, want 1", n)
	}
	if c.released < 2 {
		t.Errorf("skipped packets must be released, got %d releases", c.released)
	}
}

func TestReadSkipsCorruptPacketWithoutFailing(t *testing.T) {
	dec := s16Decoder(2)
	passthrough := dec.decode
	dec.decode = func(data []byte) (int, *media.Frame, error) {
		if data[0] == 0xbb {
			return 0, nil, fmt.Errorf("corrupt packet")
		}
		if passthrough != nil {
			return passthrough(data)
		}
		samples := len(data) / 4
		return len(data), &media.Frame{
			Format:   media.FormatS16,
			Channels: 2,
			Samples:  samples,
			Planes:   [][]byte{data},
		}, nil
	}
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: dec,
	}
	c.addPacket(0, []byte{0xbb, 0x00, 0x00, 0x00})
	c.addPacket(0, s16Bytes(5, 6))

	f := resolveFake(t, c, 0)

	// The same Read call must absorb the bad packet and return the frame
	// from the next good one.
	if n := f.Read(); n != 1 {
		t.Fatalf("Read = %d, want 1 (frame from the packet after the corrupt one)", n)
	}
	if f.Err() != OK {
		t.Errorf("corrupt packets must not poison the session, got %v", f.Err())
	}
}

func TestReadIncrementalDecode(t *testing.T) {
	dec := s16Decoder(1)
	calls := 0
	dec.decode = func(data []byte) (int, *media.Frame, error) {
		calls++
		if calls == 1 {
			// Consume half the packet without producing a frame yet.
			return len(data) / 2, nil, nil
		}
		samples := len(data) / 2
		return len(data), &media.Frame{
			Format:   media.FormatS16,
			Channels: 1,
			Samples:  samples,
			Planes:   [][]byte{data},
		}, nil
	}
	desc := audioDesc()
	desc.Channels = 1
	c := &fakeContainer{
		streams: []media.StreamDesc{desc},
		decoder: dec,
	}
	c.addPacket(0, s16Bytes(1, 2, 3, 4))

	f := resolveFake(t, c, 0)
	if n := f.Read(); n != 2 {
		t.Fatalf("Read = %d, want 2 (the remaining half of the packet)", n)
	}
	if calls != 2 {
		t.Errorf("expected 2 decode calls, got %d", calls)
	}
}

func TestReadDrainsBufferedFramesAtEndOfStream(t *testing.T) {
	dec := s16Decoder(2)
	// The codec holds the packet's frame back until it is flushed.
	held := s16Bytes(7, 8)
	dec.decode = func(data []byte) (int, *media.Frame, error) {
		return len(data), nil, nil
	}
	dec.drain = func() (*media.Frame, error) {
		if held == nil {
			return nil, nil
		}
		data := held
		held = nil
		return &media.Frame{
			Format:   media.FormatS16,
			Channels: 2,
			Samples:  1,
			Planes:   [][]byte{data},
		}, nil
	}
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: dec,
	}
	c.addPacket(0, s16Bytes(7, 8))

	f := resolveFake(t, c, 0)
	if n := f.Read(); n != 1 {
		t.Fatalf("Read = %d, want the flushed frame", n)
	}
	if got := f.Buffer()[0]; got != 7.0/32767 {
		t.Errorf("sample 0 = %v, want %v", got, 7.0/32767)
	}
	if n := f.Read(); n != 0 {
		t.Errorf("Read after the flush = %d, want 0", n)
	}
}

func TestReadEndOfStream(t *testing.T) {
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: s16Decoder(2),
	}
	c.addPacket(0, s16Bytes(1, 2))

	f := resolveFake(t, c, 0)
	if n := f.Read(); n != 1 {
		t.Fatalf("first Read = %d, want 1", n)
	}
	if n := f.Read(); n != 0 {
		t.Errorf("Read past end = %d, want 0", n)
	}
	if n := f.Read(); n != 0 {
		t.Errorf("repeated Read past end = %d, want 0", n)
	}
	if f.Err() != OK {
		t.Errorf("EOF is not an error state, got %v", f.Err())
	}
}

func TestReadBufferGrowsAndNeverShrinks(t *testing.T) {
	c := &fakeContainer{
		streams: []media.StreamDesc{audioDesc()},
		decoder: s16Decoder(2),
	}
	c.addPacket(0, s16Bytes(1, 2, 3, 4, 5, 6, 7, 8)) // 4 frames
	c.addPacket(0, s16Bytes(1, 2))                   // 1 frame
	c.addPacket(0, s16Bytes(make([]int16, 16)...))   // 8 frames

	f := resolveFake(t, c, 0)

	if n := f.Read(); n != 4 {
		t.Fatalf("Read = %d, want 4", n)
	}
	buf := f.Buffer()
	if len(buf) != 4 {
		t.Fatalf("buffer len = %d, want 4", len(buf))
	}

	if n := f.Read(); n != 1 {
		t.Fatalf("Read = %d, want 1", n)
	}
	if len(f.Buffer()) != 4 {
		t.Errorf("buffer should be reused, not shrunk: len = %d, want 4", len(f.Buffer()))
	}

	if n := f.Read(); n != 8 {
		t.Fatalf("Read = %d, want 8", n)
	}
	if len(f.Buffer()) != 8 {
		t.Errorf("buffer should have grown: len = %d, want 8", len(f.Buffer()))
	}
}

func TestReadNormalizesFloatFormats(t *testing.T) {
	dec := s16Decoder(1)
	dec.format = media.FormatF32
	dec.channels = 1
	desc := audioDesc()
	desc.Channels = 1
	c := &fakeContainer{
		streams: []media.StreamDesc{desc},
		decoder: dec,
	}

	data := make([]byte, 8)
	putFloat32LE(data, 0, 0.5)
	putFloat32LE(data, 4, -1.0)
	c.addPacket(0, data)

	f := resolveFake(t, c, 0)
	if n := f.Read(); n != 2 {
		t.Fatalf("Read = %d, want 2", n)
	}
	if got := f.Buffer()[0]; got != 0.5 {
		t.Errorf("sample 0 = %v, want 0.5", got)
	}
	if got := f.Buffer()[1]; got != -1.0 {
		t.Errorf("sample 1 = %v, want -1.0", got)
	}
}

func putFloat32LE(data []byte, offset int, v float32) {
	bits := math.Float32bits(v)
	data[offset] = byte(bits)
	data[offset+1] = byte(bits >> 8)
	data[offset+2] = byte(bits >> 16)
	data[offset+3] = byte(bits >> 24)
}
