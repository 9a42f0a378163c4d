package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/rs/zerolog/log"

	"github.com/agnivade/voicerouter"
	"github.com/agnivade/voicerouter/internal/config"
	"github.com/agnivade/voicerouter/internal/events"
	"github.com/agnivade/voicerouter/internal/logging"
	"github.com/agnivade/voicerouter/internal/metrics"
	"github.com/agnivade/voicerouter/providers"
	"github.com/agnivade/voicerouter/providers/assemblyai"
	"github.com/agnivade/voicerouter/providers/azure"
	"github.com/agnivade/voicerouter/providers/deepgram"
	"github.com/agnivade/voicerouter/providers/gladia"
	"github.com/agnivade/voicerouter/providers/google"
	"github.com/agnivade/voicerouter/providers/whisper"
)

const version = "dev"

func printBanner() {
	tpl := "{{ .Title \"voicerouter\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

// newAdapter constructs the adapter for name.
func newAdapter(name providers.Name, opts ...providers.Option) (providers.Adapter, error) {
	switch name {
	case providers.Deepgram:
		return deepgram.New(opts...), nil
	case providers.AssemblyAI:
		return assemblyai.New(opts...), nil
	case providers.Gladia:
		return gladia.New(opts...), nil
	case providers.Google:
		return google.New(opts...), nil
	case providers.AzureSTT:
		return azure.New(opts...), nil
	case providers.OpenAIWhisper:
		return whisper.New(opts...), nil
	default:
		return nil, fmt.Errorf("no adapter for provider %q", name)
	}
}

func main() {
	var (
		configFile = flag.String("config", "", "Path to a config file")
		envFile    = flag.String("env", "", "Path to a .env file")
	)
	flag.Parse()

	var loadOpts []config.Option
	if *configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(*envFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	printBanner()
	logging.Init(cfg.Logging)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
	}

	var (
		adapters []providers.Adapter
		closers  []io.Closer
	)
	for _, name := range cfg.Enabled() {
		a, err := newAdapter(name,
			providers.WithLogger(logging.WithComponent(string(name))),
			providers.WithMetrics(m))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create adapter")
		}
		if err := a.Initialize(cfg.Providers[string(name)].ProviderConfig()); err != nil {
			log.Fatal().Err(err).Str("provider", string(name)).Msg("Failed to initialize adapter")
		}
		if c, ok := a.(io.Closer); ok {
			closers = append(closers, c)
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		log.Warn().Msg("No providers configured")
	}

	routerOpts := []voicerouter.RouterOption{
		voicerouter.WithStrategy(voicerouter.Strategy(cfg.Router.Strategy)),
		voicerouter.WithRouterMetrics(m),
	}
	if cfg.Router.Default != "" {
		routerOpts = append(routerOpts, voicerouter.WithDefault(providers.Name(cfg.Router.Default)))
	}
	if len(cfg.Router.Pool) > 0 {
		pool := make([]providers.Name, 0, len(cfg.Router.Pool))
		for _, name := range cfg.Router.Pool {
			pool = append(pool, providers.Name(name))
		}
		routerOpts = append(routerOpts, voicerouter.WithPool(pool...))
	}
	router, err := voicerouter.NewRouter(adapters, routerOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create router")
	}

	publisher := events.New(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, m)

	serverOpts := []voicerouter.ServerOption{voicerouter.WithPublisher(publisher)}
	if cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, voicerouter.WithMetrics(m, cfg.Metrics.Path))
	}
	s := voicerouter.NewServer(cfg.Server, router, serverOpts...)

	go func() {
		if err := s.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := s.Stop(); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing publisher")
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing adapter")
		}
	}
}
