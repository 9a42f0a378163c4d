// Package config loads the gateway configuration from an optional YAML file,
// an optional .env file and VOICEROUTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agnivade/voicerouter/internal/logging"
	"github.com/agnivade/voicerouter/providers"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VOICEROUTER"

// Router strategies.
const (
	StrategyExplicit   = "explicit"
	StrategyDefault    = "default"
	StrategyRoundRobin = "round_robin"
)

// Config is the complete gateway configuration.
type Config struct {
	Server    ServerConfig                `mapstructure:"server"`
	Router    RouterConfig                `mapstructure:"router"`
	Providers map[string]ProviderSettings `mapstructure:"providers" validate:"dive,keys,oneof=gladia assemblyai deepgram azure-stt openai-whisper google,endkeys"`
	Logging   logging.Config              `mapstructure:"logging"`
	Metrics   MetricsConfig               `mapstructure:"metrics"`
	Kafka     KafkaConfig                 `mapstructure:"kafka"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RouterConfig struct {
	Strategy string   `mapstructure:"strategy" validate:"oneof=explicit default round_robin"`
	Default  string   `mapstructure:"default"`
	Pool     []string `mapstructure:"pool"`
}

// ProviderSettings configure one adapter. Options are passed through to the
// adapter, which decodes its own keys.
type ProviderSettings struct {
	APIKey  string         `mapstructure:"api_key" validate:"required"`
	BaseURL string         `mapstructure:"base_url" validate:"omitempty,url"`
	Region  string         `mapstructure:"region"`
	Timeout time.Duration  `mapstructure:"timeout"`
	Options map[string]any `mapstructure:"options"`
}

// ProviderConfig converts the settings for Adapter.Initialize.
func (p ProviderSettings) ProviderConfig() providers.ProviderConfig {
	return providers.ProviderConfig{
		APIKey:  p.APIKey,
		BaseURL: p.BaseURL,
		Region:  p.Region,
		Timeout: p.Timeout,
		Options: p.Options,
	}
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// KafkaConfig enables transcript publishing when Brokers is set.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required_with=Brokers"`
}

// Order is the registration order of adapters.
var Order = []providers.Name{
	providers.Deepgram,
	providers.AssemblyAI,
	providers.Gladia,
	providers.Google,
	providers.AzureSTT,
	providers.OpenAIWhisper,
}

// vendorEnv are the conventional key variables of each provider, consulted
// after the VOICEROUTER_PROVIDERS_* form.
var vendorEnv = map[providers.Name]map[string]string{
	providers.Deepgram:      {"api_key": "DEEPGRAM_API_KEY"},
	providers.AssemblyAI:    {"api_key": "ASSEMBLYAI_API_KEY"},
	providers.Gladia:        {"api_key": "GLADIA_API_KEY"},
	providers.Google:        {"api_key": "GOOGLE_API_KEY"},
	providers.AzureSTT:      {"api_key": "AZURE_SPEECH_KEY", "region": "AZURE_SPEECH_REGION"},
	providers.OpenAIWhisper: {"api_key": "OPENAI_API_KEY"},
}

// Enabled returns the configured providers in registration order.
func (c *Config) Enabled() []providers.Name {
	var out []providers.Name
	for _, name := range Order {
		if _, ok := c.Providers[string(name)]; ok {
			out = append(out, name)
		}
	}
	return out
}

type loader struct {
	configFile string
	envFile    string
}

// Option configures Load.
type Option func(*loader)

// WithConfigFile reads YAML from path. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile loads variables from path. A missing file is an error.
// Without this option ./.env is loaded when it exists.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8081")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("router.strategy", StrategyDefault)
	v.SetDefault("router.default", "")
	v.SetDefault("router.pool", []string{})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "voicerouter.transcripts")
}

// Load builds the configuration. Environment variables win over the YAML
// file, and variables already set in the process win over the .env file.
func Load(opts ...Option) (*Config, error) {
	var l loader
	for _, opt := range opts {
		opt(&l)
	}

	switch {
	case l.envFile != "":
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", l.envFile, err)
		}
	default:
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindProviderEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindProviderEnv registers the provider keys, which AutomaticEnv cannot
// discover because the providers map has no defaults.
func bindProviderEnv(v *viper.Viper) error {
	for _, name := range Order {
		envName := strings.ToUpper(strings.ReplaceAll(string(name), "-", "_"))
		for _, field := range []string{"api_key", "base_url", "region", "timeout"} {
			key := "providers." + string(name) + "." + field
			envs := []string{EnvPrefix + "_PROVIDERS_" + envName + "_" + strings.ToUpper(field)}
			if vendor, ok := vendorEnv[name][field]; ok {
				envs = append(envs, vendor)
			}
			if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
				return fmt.Errorf("bind %s: %w", key, err)
			}
		}
	}
	return nil
}

// Validate checks cfg against its validate tags and the router settings.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if d := cfg.Router.Default; d != "" {
		if _, ok := cfg.Providers[d]; !ok {
			return fmt.Errorf("invalid config: router default %q is not configured", d)
		}
	}
	for _, name := range cfg.Router.Pool {
		if _, ok := cfg.Providers[name]; !ok {
			return fmt.Errorf("invalid config: router pool member %q is not configured", name)
		}
	}
	return nil
}
