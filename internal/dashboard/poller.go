package dashboard

import (
	"context"
	"time"
)

// DefaultRefreshInterval is how often the dashboard reloads the coin list.
const DefaultRefreshInterval = 30 * time.Minute

// Poller reloads a Feed on start and then on every tick until ctx is done.
type Poller struct {
	feed     *Feed
	interval time.Duration
	onLoad   func(Result)
}

// NewPoller calls onLoad with every result. A non-positive interval uses
// DefaultRefreshInterval.
func NewPoller(feed *Feed, interval time.Duration, onLoad func(Result)) *Poller {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller{feed: feed, interval: interval, onLoad: onLoad}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.onLoad(p.feed.Load(ctx))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.onLoad(p.feed.Load(ctx))
		}
	}
}
