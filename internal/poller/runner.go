// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/automation-gateway/internal/link"
)

// Run starts the ticker loop. One poll at a time; no overlap, no
// retries. A failed cycle is counted and logged, then the loop waits
// for the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// poll immediately so the store fills as soon as the link is up
	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	err := p.PollOnce(ctx)
	if err == nil {
		return
	}
	if errors.Is(err, link.ErrLinkDown) {
		// expected while the board is unplugged; the link state
		// already says so, no error to count
		p.log.Debug().Err(err).Msg("status poll skipped")
		return
	}
	if p.errs != nil {
		p.errs.Inc()
	}
	p.log.Warn().Err(err).Msg("status poll failed")
}
