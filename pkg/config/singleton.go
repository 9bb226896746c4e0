package config

import (
	"fmt"
	"sync"
)

// ReloadListener is notified after a successful reload with the new
// configuration.
type ReloadListener func(*Config)

// holder is the process-wide configuration and its reload listeners.
type holder struct {
	mu        sync.RWMutex
	cfg       *Config
	listeners []ReloadListener
	init      sync.Once
}

var global = &holder{}

func (h *holder) get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *holder) set(cfg *Config) []ReloadListener {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
	return append([]ReloadListener(nil), h.listeners...)
}

// Initialize loads the configuration at path with environment overrides and
// installs it globally. Only the first call does anything.
func Initialize(path string) error {
	var err error
	global.init.Do(func() {
		var cfg *Config
		if cfg, err = LoadConfigWithEnvOverrides(path); err == nil {
			global.set(cfg)
		}
	})
	return err
}

// GetConfig returns the global configuration, or nil before Initialize or
// SetConfig.
func GetConfig() *Config {
	return global.get()
}

// SetConfig replaces the global configuration without notifying listeners.
func SetConfig(cfg *Config) {
	global.set(cfg)
}

// OnReload registers fn to run after every successful ReloadConfig.
func OnReload(fn ReloadListener) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.listeners = append(global.listeners, fn)
}

// ReloadConfig loads path again and, if it is valid, installs it and
// notifies the listeners. On error the current configuration stays.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	for _, fn := range global.set(cfg) {
		fn(cfg)
	}
	return nil
}
