package providers

import (
	"fmt"
	"slices"
)

// Encoding is an audio encoding accepted for streaming.
type Encoding string

const (
	EncodingLinear16 Encoding = "linear16"
	EncodingMulaw    Encoding = "mulaw"
	EncodingAlaw     Encoding = "alaw"
	EncodingFLAC     Encoding = "flac"
	EncodingOpus     Encoding = "opus"
	EncodingSpeex    Encoding = "speex"
	EncodingAMRNB    Encoding = "amr-nb"
	EncodingAMRWB    Encoding = "amr-wb"
	EncodingG729     Encoding = "g729"
)

// StandardSampleRates are the rates every adapter is expected to accept.
var StandardSampleRates = []int{8000, 16000, 32000, 44100, 48000}

var validBitDepths = []int{8, 16, 24, 32}

// AudioSupport describes the audio a provider's streaming protocol accepts.
// Wire maps each supported encoding to the provider's own name for it.
type AudioSupport struct {
	Wire        map[Encoding]string
	SampleRates []int
	MaxChannels int
}

// WireName returns the provider name of enc.
func (a AudioSupport) WireName(enc Encoding) (string, bool) {
	name, ok := a.Wire[enc]
	return name, ok
}

// Validate checks the audio parameters of opts, which must already have
// defaults applied.
func (a AudioSupport) Validate(provider Name, opts StreamingOptions) error {
	if _, ok := a.Wire[opts.Encoding]; !ok {
		return NewCapabilityError(provider, fmt.Sprintf("encoding %q is not supported by %s", opts.Encoding, provider))
	}
	rates := a.SampleRates
	if len(rates) == 0 {
		rates = StandardSampleRates
	}
	if !slices.Contains(rates, opts.SampleRate) {
		return NewCapabilityError(provider, fmt.Sprintf("sample rate %d is not supported by %s", opts.SampleRate, provider))
	}
	maxChannels := a.MaxChannels
	if maxChannels == 0 {
		maxChannels = 1
	}
	if opts.Channels < 1 || opts.Channels > maxChannels {
		return NewCapabilityError(provider, fmt.Sprintf("%d channels not supported by %s (max %d)", opts.Channels, provider, maxChannels))
	}
	if !slices.Contains(validBitDepths, opts.BitDepth) {
		return NewInputError(provider, fmt.Sprintf("invalid bit depth %d", opts.BitDepth))
	}
	return nil
}
