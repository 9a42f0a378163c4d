package main

import (
	"io"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate      = 16000
	framesPerBuffer = 1024
)

// MicrophoneReader captures mono linear16 audio from the default input
// device. Each Read returns one buffer of little-endian samples.
type MicrophoneReader struct {
	stream *portaudio.Stream
	buffer []int16
	frame  []byte
}

// NewMicrophoneReader starts recording. The caller must Close it.
func NewMicrophoneReader(rate, frames int) (*MicrophoneReader, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	buffer := make([]int16, frames)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(rate), len(buffer), buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}

	return &MicrophoneReader{
		stream: stream,
		buffer: buffer,
		frame:  make([]byte, frames*2),
	}, nil
}

// Read blocks for one buffer of audio. p must hold a whole buffer.
func (m *MicrophoneReader) Read(p []byte) (int, error) {
	if len(p) < len(m.frame) {
		return 0, io.ErrShortBuffer
	}
	if err := m.stream.Read(); err != nil {
		return 0, err
	}
	putPCM16(m.frame, m.buffer)
	return copy(p, m.frame), nil
}

func (m *MicrophoneReader) Close() error {
	var err error
	if m.stream != nil {
		if stopErr := m.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := m.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	portaudio.Terminate()
	return err
}

// putPCM16 writes samples into dst as little-endian 16-bit PCM. dst must be
// at least twice as long as samples.
func putPCM16(dst []byte, samples []int16) {
	for i, v := range samples {
		dst[2*i] = byte(v)
		dst[2*i+1] = byte(v >> 8)
	}
}
