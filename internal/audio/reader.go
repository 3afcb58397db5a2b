package audio

// Start selects the channel whose samples Read will produce and computes
// the interval plan for the given interval count. A channel outside
// [0, Channels) marks the session with ErrNoChannels; that is caller
// misuse, not stream content, and is terminal like any other error.
func (f *File) Start(channel, intervals int) {
	f.channel = channel
	if channel < 0 || channel >= f.info.Channels {
		f.err = ErrNoChannels
		return
	}
	f.plan = Plan(f.info.Duration, f.info.SampleRate, f.timeBase, intervals)
}

// Plan returns the interval plan computed by Start.
func (f *File) Plan() IntervalPlan {
	return f.plan
}

// Buffer returns the normalised sample buffer filled by the last Read.
// Only the first n values are meaningful, where n is the last Read's
// return; the buffer is overwritten by the next Read.
func (f *File) Buffer() []float32 {
	return f.buf
}

// Read decodes the next frame and fills the buffer with the selected
// channel's normalised samples. It returns the frame's sample count,
// 0 at end of stream (or on a stream read error; the two are not
// distinguished), or -1 if the session is already in a terminal error.
//
// Packets that fail to decode are discarded wholesale and never retried;
// the reader moves on to the next packet of the selected stream.
func (f *File) Read() int {
	if f.err != OK {
		return -1
	}

	for {
		for f.pkt != nil && f.offset < len(f.pkt.Data) {
			consumed, frame, err := f.decoder.Decode(f.pkt.Data[f.offset:])
			if err != nil {
				// Error, skip the rest of this packet.
				break
			}
			f.offset += consumed
			if frame == nil {
				// No data yet, keep feeding the decoder.
				continue
			}
			return f.fill(frame)
		}

		if f.pkt != nil {
			f.pkt.Release()
			f.pkt = nil
			f.offset = 0
		}

		// Fetch the next packet of our stream, discarding the rest.
		for {
			pkt, err := f.container.ReadPacket()
			if err != nil {
				// End of stream or read error; hand out whatever frames
				// the decoder still buffers before reporting empty.
				frame, derr := f.decoder.Drain()
				if derr != nil || frame == nil {
					return 0
				}
				return f.fill(frame)
			}
			if pkt.Stream == f.stream {
				f.pkt = pkt
				break
			}
			pkt.Release()
		}
	}
}
