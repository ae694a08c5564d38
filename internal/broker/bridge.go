// internal/broker/bridge.go
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/protocol"
	"github.com/tamzrod/automation-gateway/internal/state"
)

// Submitter abstracts the command path to the board.
type Submitter interface {
	Submit(ctx context.Context, cmd protocol.Command) (protocol.Result, error)
}

// Config is the MQTT side of the gateway.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	TopicPrefix       string
	PublishInterval   time.Duration
	ReconnectInterval time.Duration
}

// Bridge connects the board to an MQTT broker: it republishes the
// polled snapshot on <prefix>/status and turns inbound messages on
// <prefix>/relay/+, <prefix>/output/+ and <prefix>/command into board
// commands.
type Bridge struct {
	cfg     Config
	variant board.Variant
	link    Submitter
	store   *state.Store
	errs    *state.ErrorCounter
	log     zerolog.Logger

	client     mqtt.Client
	connected  atomic.Bool
	publishNow chan struct{}
}

func New(cfg Config, variant board.Variant, link Submitter, store *state.Store, errs *state.ErrorCounter, log zerolog.Logger) (*Bridge, error) {
	if cfg.Broker == "" {
		return nil, errors.New("broker: broker url required")
	}
	if cfg.TopicPrefix == "" {
		return nil, errors.New("broker: topic prefix required")
	}
	if cfg.PublishInterval <= 0 {
		return nil, errors.New("broker: publish interval must be > 0")
	}
	if link == nil {
		return nil, errors.New("broker: submitter required")
	}
	if store == nil {
		return nil, errors.New("broker: store required")
	}

	b := &Bridge{
		cfg:        cfg,
		variant:    variant,
		link:       link,
		store:      store,
		errs:       errs,
		log:        log,
		publishNow: make(chan struct{}, 1),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.ReconnectInterval).
		SetKeepAlive(30 * time.Second).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(b.onConnectionLost)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	b.client = mqtt.NewClient(opts)

	return b, nil
}

// Connected reports whether the broker session is currently up.
func (b *Bridge) Connected() bool { return b.connected.Load() }

// Run connects and drives the periodic status publish until ctx is
// cancelled. Reconnects are handled by the client itself; Run only
// owns the publish clock.
func (b *Bridge) Run(ctx context.Context) {
	// ConnectRetry is set, so the client keeps trying on its own
	b.client.Connect()

	ticker := time.NewTicker(b.cfg.PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.client.Disconnect(250)
			return
		case <-ticker.C:
			b.publishStatus()
		case <-b.publishNow:
			b.publishStatus()
		}
	}
}

func (b *Bridge) onConnect(c mqtt.Client) {
	b.connected.Store(true)
	b.log.Info().Str("broker", b.cfg.Broker).Msg("mqtt connected")

	// subscriptions do not survive a reconnect, redo them every time
	topics := []string{
		b.cfg.TopicPrefix + "/relay/+",
		b.cfg.TopicPrefix + "/output/+",
		b.cfg.TopicPrefix + "/command",
	}
	for _, t := range topics {
		tok := c.Subscribe(t, 0, b.onMessage)
		if tok.Wait() && tok.Error() != nil {
			b.log.Error().Err(tok.Error()).Str("topic", t).Msg("mqtt subscribe failed")
			if b.errs != nil {
				b.errs.Inc()
			}
		}
	}
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	b.connected.Store(false)
	b.log.Warn().Err(err).Msg("mqtt connection lost")
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if err := b.dispatch(context.Background(), msg.Topic(), string(msg.Payload())); err != nil {
		if b.errs != nil {
			b.errs.Inc()
		}
		b.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("mqtt command rejected")
	}
}

// statusPayload renders the current snapshot, or ok=false when the
// store has never been filled.
func (b *Bridge) statusPayload() ([]byte, bool) {
	snap, _, ok := b.store.Read()
	if !ok {
		return nil, false
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (b *Bridge) publishStatus() {
	if !b.connected.Load() {
		return
	}
	payload, ok := b.statusPayload()
	if !ok {
		return
	}
	b.client.Publish(b.cfg.TopicPrefix+"/status", 0, false, payload)
}

// requestPublish schedules an immediate status publish without
// blocking the caller.
func (b *Bridge) requestPublish() {
	select {
	case b.publishNow <- struct{}{}:
	default:
	}
}
