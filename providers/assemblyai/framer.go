package assemblyai

import "github.com/agnivade/voicerouter/providers"

const (
	minChunkMs = 50
	maxChunkMs = 1000
)

// audioBuffer re-chunks live audio into the 50ms to 1000ms frames the
// streaming API accepts. A frame is emitted as soon as the minimum duration
// is buffered; anything above the maximum is split.
type audioBuffer struct {
	buf      []byte
	minBytes int
	maxBytes int
}

func newAudioBuffer(opts providers.StreamingOptions) *audioBuffer {
	bytesPerMs := opts.SampleRate * opts.Channels * bytesPerSample(opts) / 1000
	if bytesPerMs <= 0 {
		bytesPerMs = 32
	}
	return &audioBuffer{
		minBytes: minChunkMs * bytesPerMs,
		maxBytes: maxChunkMs * bytesPerMs,
	}
}

func bytesPerSample(opts providers.StreamingOptions) int {
	if opts.Encoding == providers.EncodingMulaw {
		return 1
	}
	return opts.BitDepth / 8
}

func (b *audioBuffer) Push(chunk []byte) [][]byte {
	b.buf = append(b.buf, chunk...)

	var out [][]byte
	for len(b.buf) >= b.maxBytes {
		out = append(out, b.take(b.maxBytes))
	}
	if len(b.buf) >= b.minBytes {
		out = append(out, b.take(len(b.buf)))
	}
	return out
}

// Flush returns whatever is left, even below the minimum. The provider
// accepts a short final frame.
func (b *audioBuffer) Flush() []byte {
	if len(b.buf) == 0 {
		return nil
	}
	return b.take(len(b.buf))
}

func (b *audioBuffer) take(n int) []byte {
	out := make([]byte, n)
	copy(out, b.buf[:n])
	b.buf = b.buf[n:]
	return out
}
