// Package service wires the configured components into a running whole.
package service

import (
	"context"
	"fmt"

	"github.com/srvdns/srvdns-go"
	"github.com/srvdns/srvdns-go/api"
	"github.com/srvdns/srvdns-go/resolver"
	"github.com/srvdns/srvdns-go/upstream"
	"go.uber.org/zap"
)

// Config is the main configuration structure.
// It may be marshaled as or unmarshaled from JSON.
type Config struct {
	// Upstream configures the upstream DNS backend.
	Upstream upstream.Config `json:"upstream"`

	// CacheSize bounds the result cache. 0 means unbounded;
	// a negative value disables caching.
	CacheSize int `json:"cacheSize"`

	// API configures the HTTP resolution endpoint.
	API api.Config `json:"api"`
}

// Manager initializes the service manager.
//
// Initialization order: upstream backend -> resolver -> API.
func (sc *Config) Manager(logger *zap.Logger) (*Manager, error) {
	backend, err := sc.Upstream.Backend(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream backend: %w", err)
	}

	r := resolver.New(sc.Upstream.Name, backend, sc.CacheSize, logger)

	var services []srvdns.Service
	if sc.API.Enabled {
		server, err := sc.API.Server(r, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create API server: %w", err)
		}
		services = append(services, server)
	}

	return &Manager{
		services: services,
		resolver: r,
		logger:   logger,
	}, nil
}

// Manager manages the services.
type Manager struct {
	services []srvdns.Service
	resolver *resolver.Resolver
	logger   *zap.Logger
}

// Resolver returns the shared resolver instance.
func (m *Manager) Resolver() *resolver.Resolver {
	return m.resolver
}

// Start starts all configured services.
func (m *Manager) Start(ctx context.Context) error {
	for _, s := range m.services {
		if err := s.Start(ctx); err != nil {
			return fmt.Errorf("failed to start %s: %w", s.ZapField().String, err)
		}
		m.logger.Info("Started service", s.ZapField())
	}
	return nil
}

// Stop stops all running services.
func (m *Manager) Stop() {
	for _, s := range m.services {
		if err := s.Stop(); err != nil {
			m.logger.Warn("Failed to stop service", s.ZapField(), zap.Error(err))
			continue
		}
		m.logger.Info("Stopped service", s.ZapField())
	}
}
