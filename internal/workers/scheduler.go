// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
)

// SyncScheduler starts synchronization sessions. A session is requested by
// the periodic timer, by a trigger of the connectivity monitor or by Kick.
// Requests arriving while a session runs are coalesced into one follow-up.
type SyncScheduler struct {
	synchronizer service.Synchronizer
	triggers     <-chan models.Trigger

	kick     chan struct{}
	interval chan time.Duration
	initial  time.Duration

	logger *logger.Logger
}

// NewSyncScheduler subscribes to monitor right away, so transitions that
// happen before Run are not lost. A non-positive interval disables the timer.
func NewSyncScheduler(synchronizer service.Synchronizer, monitor service.ConnectivityMonitor, interval time.Duration, logger *logger.Logger) *SyncScheduler {
	return &SyncScheduler{
		synchronizer: synchronizer,
		triggers:     monitor.Subscribe(),
		kick:         make(chan struct{}, 1),
		interval:     make(chan time.Duration, 1),
		initial:      interval,
		logger:       logger,
	}
}

// Kick requests a session without blocking.
func (s *SyncScheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// SetInterval replaces the timer period. Only the latest value is kept.
func (s *SyncScheduler) SetInterval(d time.Duration) {
	for {
		select {
		case s.interval <- d:
			return
		default:
		}
		// drop the stale pending value
		select {
		case <-s.interval:
		default:
		}
	}
}

func (s *SyncScheduler) Run(ctx context.Context) {
	ticker := newTicker(s.initial)
	defer ticker.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.interval:
			ticker.reset(d)
			s.logger.Info().
				Str("func", "SyncScheduler.Run").
				Dur("interval", d).
				Msg("sync interval changed")
		case <-ticker.c():
			s.sync(ctx, "interval")
		case tr := <-s.triggers:
			s.sync(ctx, tr.String())
		case <-s.kick:
			s.sync(ctx, "kick")
		}
	}
}

// sync runs one session. Cancelling ctx stops the scheduler but never aborts
// a session already in flight.
func (s *SyncScheduler) sync(ctx context.Context, reason string) {
	log := s.logger.With().Str("trigger", reason).Logger()

	result, err := s.synchronizer.SyncWhenOnline(log.WithContext(context.WithoutCancel(ctx)))
	switch {
	case errors.Is(err, service.ErrOffline), errors.Is(err, service.ErrSyncInProgress):
		log.Debug().Err(err).
			Str("func", "SyncScheduler.sync").
			Msg("sync skipped")
	case err != nil:
		log.Err(err).
			Str("func", "SyncScheduler.sync").
			Msg("sync failed")
	default:
		log.Debug().
			Str("func", "SyncScheduler.sync").
			Stringer("result", result).
			Msg("scheduled sync finished")
	}
}

// ticker wraps time.Ticker so that a disabled timer is a nil channel.
type ticker struct {
	t *time.Ticker
}

func newTicker(d time.Duration) *ticker {
	tk := &ticker{}
	tk.reset(d)
	return tk
}

func (tk *ticker) c() <-chan time.Time {
	if tk.t == nil {
		return nil
	}
	return tk.t.C
}

func (tk *ticker) reset(d time.Duration) {
	switch {
	case d <= 0:
		tk.stop()
	case tk.t == nil:
		tk.t = time.NewTicker(d)
	default:
		tk.t.Reset(d)
	}
}

func (tk *ticker) stop() {
	if tk.t != nil {
		tk.t.Stop()
		tk.t = nil
	}
}
