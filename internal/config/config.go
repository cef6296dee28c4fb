// Package config holds the runtime configuration shared by all CLI
// commands: global flags, the logger, and the wiring that turns a
// configuration file path into a locked, loaded store.
package config

import (
	"github.com/systmms/helm-values-manager/internal/backends"
	"github.com/systmms/helm-values-manager/internal/logging"
	"github.com/systmms/helm-values-manager/internal/persist"
	"github.com/systmms/helm-values-manager/internal/store"
)

// Config holds the runtime configuration.
type Config struct {
	Path   string
	Logger *logging.Logger

	// Registry overrides the default backend registry; tests inject fakes.
	Registry store.BackendFactory
}

// File returns the persistence handle for the configured path.
func (c *Config) File() *persist.File {
	return persist.New(c.Path, persist.WithLogger(c.Logger))
}

// StoreOptions returns the options every loaded store is built with.
func (c *Config) StoreOptions() []store.Option {
	factory := c.Registry
	if factory == nil {
		factory = backends.NewRegistry(backends.WithLogger(c.Logger))
	}
	return []store.Option{
		store.WithLogger(c.Logger),
		store.WithBackendFactory(factory),
	}
}

// LoadStore locks the configuration file, loads it, and hands both back.
// The caller must Unlock the file when done; mutating commands Save first.
func (c *Config) LoadStore() (*persist.File, *store.Store, error) {
	file := c.File()
	if err := file.Lock(); err != nil {
		return nil, nil, err
	}
	s, err := file.Load(c.StoreOptions()...)
	if err != nil {
		file.Unlock()
		return nil, nil, err
	}
	return file, s, nil
}
