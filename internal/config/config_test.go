package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agnivade/voicerouter/providers"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleYAML = `
server:
  addr: ":9090"
  read_timeout: 5s
router:
  strategy: round_robin
  pool: [deepgram, gladia]
providers:
  deepgram:
    api_key: dg-key
    options:
      model: nova-2
      queue_size: 32
  gladia:
    api_key: gl-key
    timeout: 30s
    options:
      region: eu-west
  azure-stt:
    api_key: az-key
    region: westus
logging:
  level: debug
  format: console
kafka:
  brokers: ["localhost:9092"]
`

func TestLoadFile(t *testing.T) {
	cfg, err := Load(WithConfigFile(writeFile(t, "config.yml", sampleYAML)))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, StrategyRoundRobin, cfg.Router.Strategy)
	assert.Equal(t, []string{"deepgram", "gladia"}, cfg.Router.Pool)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "voicerouter.transcripts", cfg.Kafka.Topic)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	dg := cfg.Providers["deepgram"]
	assert.Equal(t, "dg-key", dg.APIKey)
	assert.Equal(t, "nova-2", dg.Options["model"])

	gl := cfg.Providers["gladia"].ProviderConfig()
	assert.Equal(t, 30*time.Second, gl.Timeout)
	assert.Equal(t, "eu-west", gl.Options["region"])
	assert.Equal(t, "westus", cfg.Providers["azure-stt"].Region)

	assert.Equal(t, []providers.Name{providers.Deepgram, providers.Gladia, providers.AzureSTT}, cfg.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VOICEROUTER_SERVER_ADDR", ":7070")
	t.Setenv("VOICEROUTER_ROUTER_STRATEGY", "explicit")
	t.Setenv("DEEPGRAM_API_KEY", "from-vendor-env")
	t.Setenv("VOICEROUTER_PROVIDERS_OPENAI_WHISPER_API_KEY", "sk-test")
	t.Setenv("VOICEROUTER_PROVIDERS_AZURE_STT_API_KEY", "az")
	t.Setenv("AZURE_SPEECH_REGION", "eastus")

	cfg, err := Load(WithEnvFile(writeFile(t, ".env", "")))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, StrategyExplicit, cfg.Router.Strategy)
	assert.Equal(t, "from-vendor-env", cfg.Providers["deepgram"].APIKey)
	assert.Equal(t, "sk-test", cfg.Providers["openai-whisper"].APIKey)
	assert.Equal(t, "eastus", cfg.Providers["azure-stt"].Region)
	assert.NotContains(t, cfg.Providers, "gladia")
}

func TestLoadEnvFile(t *testing.T) {
	t.Cleanup(func() {
		os.Unsetenv("VOICEROUTER_LOGGING_LEVEL")
		os.Unsetenv("GLADIA_API_KEY")
	})
	path := writeFile(t, ".env", "VOICEROUTER_LOGGING_LEVEL=warn\nGLADIA_API_KEY=dotenv-key\n")

	cfg, err := Load(WithEnvFile(path))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "dotenv-key", cfg.Providers["gladia"].APIKey)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown strategy",
			yaml: "router:\n  strategy: fastest\n",
			want: "Strategy",
		},
		{
			name: "unknown provider",
			yaml: "providers:\n  speechmatics:\n    api_key: x\n",
			want: "Providers",
		},
		{
			name: "missing key",
			yaml: "providers:\n  deepgram:\n    region: x\n",
			want: "APIKey",
		},
		{
			name: "default not configured",
			yaml: "router:\n  default: gladia\nproviders:\n  deepgram:\n    api_key: x\n",
			want: `router default "gladia"`,
		},
		{
			name: "pool member not configured",
			yaml: "router:\n  pool: [deepgram, google]\nproviders:\n  deepgram:\n    api_key: x\n",
			want: `pool member "google"`,
		},
		{
			name: "bad log level",
			yaml: "logging:\n  level: loud\n",
			want: "Level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithConfigFile(writeFile(t, "config.yml", tt.yaml)), WithEnvFile(writeFile(t, ".env", "")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "missing.yml")))
	assert.Error(t, err)
	_, err = Load(WithEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.Error(t, err)
}
