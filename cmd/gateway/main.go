// cmd/gateway/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/broker"
	"github.com/tamzrod/automation-gateway/internal/config"
	"github.com/tamzrod/automation-gateway/internal/health"
	"github.com/tamzrod/automation-gateway/internal/link"
	"github.com/tamzrod/automation-gateway/internal/poller"
	"github.com/tamzrod/automation-gateway/internal/rest"
	"github.com/tamzrod/automation-gateway/internal/state"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gateway <config.yaml>")
		os.Exit(1)
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		os.Exit(1)
	}
	config.Normalize(cfg)

	log := buildLogger(cfg.Logging)

	variant, err := board.VariantByName(cfg.Board.Variant)
	if err != nil {
		log.Fatal().Err(err).Msg("bad board variant")
	}

	// --------------------
	// Build the pipeline: link -> store -> broker/rest
	// --------------------

	errs := &state.ErrorCounter{}
	store := state.NewStore()

	mgr, err := link.NewManager(link.Config{
		Device:            cfg.Serial.Port,
		Baud:              cfg.Serial.Baud,
		ReconnectInterval: ms(cfg.Serial.ReconnectIntervalMs),
		CommandTimeout:    ms(cfg.Serial.CommandTimeoutMs),
		FailureThreshold:  cfg.Serial.FailureThreshold,
		Variant:           variant,
	}, nil, errs, log.With().Str("component", "link").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("link manager build failed")
	}

	p, err := poller.New(poller.Config{
		Interval: ms(cfg.MQTT.PublishIntervalMs),
	}, mgr, store, errs, log.With().Str("component", "poller").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("poller build failed")
	}

	bridge, err := broker.New(broker.Config{
		Broker:            cfg.MQTT.Broker,
		ClientID:          cfg.MQTT.ClientID,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		TopicPrefix:       cfg.MQTT.TopicPrefix,
		PublishInterval:   ms(cfg.MQTT.PublishIntervalMs),
		ReconnectInterval: ms(cfg.MQTT.ReconnectIntervalMs),
	}, variant, mgr, store, errs, log.With().Str("component", "broker").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt bridge build failed")
	}

	monitor := health.NewMonitor(health.Info{
		MQTTBroker:      cfg.MQTT.Broker,
		MQTTTopicPrefix: cfg.MQTT.TopicPrefix,
	}, mgr, bridge, store, errs)

	srv := rest.New(rest.Config{
		Host:      cfg.HTTP.Host,
		Port:      cfg.HTTP.Port,
		StaticDir: cfg.HTTP.StaticDir,
	}, variant, mgr, store, monitor, log.With().Str("component", "rest").Logger())

	// --------------------
	// Run everything under one signal-cancelled context
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("variant", variant.Name).
		Str("mqtt", cfg.MQTT.Broker).
		Str("http", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)).
		Msg("gateway starting")

	var wg sync.WaitGroup
	for _, run := range []func(context.Context){mgr.Run, p.Run, bridge.Run} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("http server failed")
		stop()
	}

	wg.Wait()
	log.Info().Msg("gateway stopped")
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func buildLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}
