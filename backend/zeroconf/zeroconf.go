package zeroconf

import (
	"context"
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/b0bbywan/go-mpris-hub/config"
	"github.com/b0bbywan/go-mpris-hub/logger"
)

// ZeroConfBackend gère la publication mDNS de l'API
type ZeroConfBackend struct {
	Config *config.ZeroConfig

	server *zeroconf.Server
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// New crée un backend ZeroConf prêt à être publié. Returns nil when
// publication is disabled.
func New(ctx context.Context, cfg *config.ZeroConfig) (*ZeroConfBackend, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	subCtx, cancel := context.WithCancel(ctx)

	return &ZeroConfBackend{
		Config: cfg,
		ctx:    subCtx,
		cancel: cancel,
	}, nil
}

// Start publie le service et lance la goroutine pour tenir le contexte
func (z *ZeroConfBackend) Start() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.server != nil {
		return fmt.Errorf("service already published")
	}

	server, err := zeroconf.Register(
		z.Config.InstanceName,
		z.Config.ServiceType,
		z.Config.Domain,
		z.Config.Port,
		z.Config.TxtRecords,
		z.Config.Listen,
	)
	if err != nil {
		return err
	}

	z.server = server
	logger.Info("[discovery] service '%s' published (type: %s, port: %d)",
		z.Config.InstanceName, z.Config.ServiceType, z.Config.Port)

	// Goroutine qui attend l'annulation du contexte
	go func() {
		<-z.ctx.Done()
		z.Shutdown()
	}()

	return nil
}

// Shutdown arrête proprement le service Zeroconf
func (z *ZeroConfBackend) Shutdown() {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.server != nil {
		z.server.Shutdown()
		z.server = nil
		logger.Debug("[discovery] service '%s' stopped", z.Config.InstanceName)
	}

	if z.cancel != nil {
		z.cancel()
		z.cancel = nil
	}
}
