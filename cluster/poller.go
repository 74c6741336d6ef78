package cluster

import (
	"context"
	"sync"
	"time"

	"godrive/logger"
)

// Poller refreshes the cluster status on an interval and serves the last good
// result, so the admin panel keeps data through transient gateway failures.
type Poller struct {
	gateway  *Gateway
	interval time.Duration

	mu        sync.RWMutex
	last      Status
	lastErr   error
	refreshed time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func NewPoller(gateway *Gateway, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		gateway:  gateway,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start refreshes once immediately, then on every tick until Stop.
func (p *Poller) Start() {
	p.refresh()
	go p.loop()
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.refresh()
		}
	}
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	status, err := p.gateway.Status(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		logger.Errorf("cluster status poll failed: %v", err)
		return
	}
	p.last = status
	p.refreshed = time.Now()
}

// Last returns the most recent good status, when it was fetched, and the
// error of the most recent attempt.
func (p *Poller) Last() (Status, time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.refreshed, p.lastErr
}
