package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/connsync/internal/protocol"
)

// Sender transmits a command on the channel.
type Sender interface {
	Send(cmd any) bool
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Refresh interval, 0 disables
}

// Stats contains poller statistics.
type Stats struct {
	Sent    int64 `json:"sent"`
	Skipped int64 `json:"skipped"` // Channel was not open
}

// Poller periodically asks the server for a fresh user list snapshot.
type Poller struct {
	cfg    Config
	sender Sender
	logger *slog.Logger

	sent    atomic.Int64
	skipped atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, sender Sender, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:    cfg,
		sender: sender,
		logger: logger,
	}
}

// Start begins the refresh loop. It is a no-op when the interval is zero.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		p.logger.Debug("periodic refresh disabled")
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("refresh poller started", "interval", p.cfg.Interval)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("refresh poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current statistics.
func (p *Poller) Stats() Stats {
	return Stats{
		Sent:    p.sent.Load(),
		Skipped: p.skipped.Load(),
	}
}

// run is the main refresh loop. The first tick comes one interval after
// Start since the channel handshake already requests a snapshot.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	if p.sender.Send(protocol.GetUsers()) {
		p.sent.Add(1)
		p.logger.Debug("requested user list refresh")
		return
	}
	p.skipped.Add(1)
	p.logger.Debug("channel not open, refresh skipped")
}
