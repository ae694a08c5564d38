// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/automation-gateway/internal/protocol"
	"github.com/tamzrod/automation-gateway/internal/state"
)

// Submitter abstracts the command path to the board. The poller depends
// on the STATUS round-trip only.
type Submitter interface {
	Submit(ctx context.Context, cmd protocol.Command) (protocol.Result, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader. It issues STATUS, pushes the
// decoded snapshot into the store, and nothing else.
type Poller struct {
	cfg   Config
	link  Submitter
	store *state.Store
	errs  *state.ErrorCounter
	log   zerolog.Logger
}

// New creates a poller with immutable config.
func New(cfg Config, link Submitter, store *state.Store, errs *state.ErrorCounter, log zerolog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if link == nil {
		return nil, errors.New("poller: submitter required")
	}
	if store == nil {
		return nil, errors.New("poller: store required")
	}
	return &Poller{cfg: cfg, link: link, store: store, errs: errs, log: log}, nil
}

// PollOnce performs exactly one poll cycle. On any failure the store is
// left untouched, so readers keep the previous snapshot and its age.
func (p *Poller) PollOnce(ctx context.Context) error {
	res, err := p.link.Submit(ctx, protocol.Status())
	if err != nil {
		return err
	}
	if res.Kind != protocol.KindStatus || res.Status == nil {
		return fmt.Errorf("poller: unexpected %s reply to STATUS", res.Kind)
	}

	p.store.Update(*res.Status)
	return nil
}
