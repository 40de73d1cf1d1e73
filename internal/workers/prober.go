package workers

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

// ConnectivityProber pings the server and reports the outcome to the
// connectivity monitor.
type ConnectivityProber struct {
	serverAdapter adapter.ServerAdapter
	monitor       service.ConnectivityMonitor
	interval      time.Duration
	timeout       time.Duration

	logger *logger.Logger
}

// NewConnectivityProber returns a prober that pings every interval. A
// negative interval disables probing and leaves reachability to the embedding
// application; zero probes once at start.
func NewConnectivityProber(serverAdapter adapter.ServerAdapter, monitor service.ConnectivityMonitor, interval, timeout time.Duration, logger *logger.Logger) *ConnectivityProber {
	return &ConnectivityProber{
		serverAdapter: serverAdapter,
		monitor:       monitor,
		interval:      interval,
		timeout:       timeout,
		logger:        logger,
	}
}

func (p *ConnectivityProber) Run(ctx context.Context) {
	if p.interval < 0 {
		return
	}

	p.Probe(ctx)
	if p.interval == 0 {
		return
	}

	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Probe(ctx)
		}
	}
}

// Probe pings the server once and reports whether it answered.
func (p *ConnectivityProber) Probe(ctx context.Context) bool {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.serverAdapter.Ping(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(context.Cause(ctx), context.Canceled) {
		// shutting down, keep the last known state
		return false
	}
	if err != nil {
		p.logger.Debug().Err(err).
			Str("func", "ConnectivityProber.Probe").
			Msg("server unreachable")
	}

	p.monitor.SetReachable(err == nil)
	return err == nil
}
