package backend

import (
	"context"

	"github.com/b0bbywan/go-mpris-hub/backend/mpris"
	"github.com/b0bbywan/go-mpris-hub/backend/zeroconf"
	"github.com/b0bbywan/go-mpris-hub/config"
)

type Backend struct {
	MPRIS       *mpris.Registry
	Zeroconf    *zeroconf.ZeroConfBackend
	Broadcaster *Broadcaster
}

func New(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var backend Backend

	if cfg.MPRIS.Enabled {
		m, err := mpris.New(ctx, mpris.ClockConfig{
			DriftThreshold:  cfg.MPRIS.DriftThreshold,
			ResyncInterval:  cfg.MPRIS.ResyncInterval,
			ResumeGuard:     cfg.MPRIS.ResumeGuard,
			SeekSuppression: cfg.MPRIS.SeekSuppression,
		}, cfg.MPRIS.HeartbeatInterval)
		if err != nil {
			return nil, err
		}
		backend.MPRIS = m
	}

	z, err := zeroconf.New(ctx, cfg.Zeroconf)
	if err != nil {
		return nil, err
	}
	backend.Zeroconf = z

	backend.Broadcaster = newBroadcasterFromBackend(ctx, &backend)

	return &backend, nil
}

func (b *Backend) Start() error {
	if b.MPRIS != nil {
		if err := b.MPRIS.Start(mpris.Callbacks{}); err != nil {
			return err
		}
	}

	if b.Zeroconf != nil {
		if err := b.Zeroconf.Start(); err != nil {
			return err
		}
	}

	return nil
}

func (b *Backend) Close() {
	if b.MPRIS != nil {
		b.MPRIS.Close()
	}
	if b.Zeroconf != nil {
		b.Zeroconf.Shutdown()
	}
}
