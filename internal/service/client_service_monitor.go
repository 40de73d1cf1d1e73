package service

import (
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type connectivityMonitor struct {
	mu          sync.Mutex
	reachable   bool
	foreground  bool
	subscribers []chan models.Trigger

	logger *logger.Logger
}

// NewConnectivityMonitor returns a monitor in the given reachability state.
// The application is assumed to be in the foreground.
func NewConnectivityMonitor(reachable bool, logger *logger.Logger) ConnectivityMonitor {
	return &connectivityMonitor{
		reachable:  reachable,
		foreground: true,
		logger:     logger,
	}
}

func (m *connectivityMonitor) IsReachable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

func (m *connectivityMonitor) SetReachable(reachable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reachable == reachable {
		return
	}
	m.reachable = reachable

	m.logger.Info().
		Str("func", "connectivityMonitor.SetReachable").
		Bool("reachable", reachable).
		Msg("reachability changed")

	if reachable {
		m.emitLocked(models.TriggerReachable)
	}
}

func (m *connectivityMonitor) SetForeground(foreground bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.foreground == foreground {
		return
	}
	m.foreground = foreground

	if foreground && m.reachable {
		m.emitLocked(models.TriggerForeground)
	}
}

func (m *connectivityMonitor) Subscribe() <-chan models.Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan models.Trigger, 1)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

func (m *connectivityMonitor) emitLocked(t models.Trigger) {
	for _, ch := range m.subscribers {
		select {
		case ch <- t:
		default:
		}
	}
}
