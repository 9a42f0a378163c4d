package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// StreamSettings are the session tunables every streaming adapter accepts
// through ProviderConfig.Options. Zero values fall back to session defaults.
type StreamSettings struct {
	QueueSize      int           `mapstructure:"queue_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CloseTimeout   time.Duration `mapstructure:"close_timeout"`
	UpdateTimeout  time.Duration `mapstructure:"update_timeout"`
}

// PollSettings bound the polling loop of asynchronous batch adapters.
type PollSettings struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
}

// DecodeOptions decodes ProviderConfig.Options into out. Keys match field
// tags ignoring case, underscores and hyphens; durations may be strings
// such as "500ms".
func DecodeOptions(provider Name, input map[string]any, out any) error {
	if len(input) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	})
	if err != nil {
		return NewConfigError(provider, err.Error())
	}
	if err := decoder.Decode(input); err != nil {
		return NewConfigError(provider, fmt.Sprintf("invalid options: %v", err))
	}
	return nil
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	return strings.ReplaceAll(value, "-", "")
}
