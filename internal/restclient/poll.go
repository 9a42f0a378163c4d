package restclient

import (
	"context"
	"fmt"
	"time"

	"github.com/agnivade/voicerouter/providers"
)

const (
	DefaultPollInterval    = time.Second
	DefaultMaxPollAttempts = 120
)

// PollConfig bounds a Poll loop.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

func (p PollConfig) withDefaults() PollConfig {
	if p.Interval <= 0 {
		p.Interval = DefaultPollInterval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxPollAttempts
	}
	return p
}

// Poll calls fetch until it returns a failure or a final status. It gives up
// with POLLING_TIMEOUT when attempts run out or ctx is done. Nothing is
// retried: a failed fetch ends the loop.
func Poll(ctx context.Context, provider providers.Name, cfg PollConfig, fetch func(context.Context) *providers.TranscriptResponse) *providers.TranscriptResponse {
	cfg = cfg.withDefaults()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		resp := fetch(ctx)
		if !resp.Success || resp.Data.Status.IsFinal() {
			return resp
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(cfg.Interval):
		case <-ctx.Done():
			e := providers.NewTimeoutError(provider, providers.CodePollingTimeout, "polling cancelled")
			e.Details = ctx.Err().Error()
			return providers.NewFailure(provider, e.Info(), nil)
		}
	}

	e := providers.NewTimeoutError(provider, providers.CodePollingTimeout,
		fmt.Sprintf("transcription did not complete after %d attempts", cfg.MaxAttempts))
	return providers.NewFailure(provider, e.Info(), nil)
}
