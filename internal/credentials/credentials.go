// Package credentials locates and loads the engine service-account key,
// either from a key file or from an environment variable holding the key
// JSON, and keeps it current when the file is replaced.
package credentials

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/pkg/geoengine"
)

var (
	// ErrNotFound means neither the key file nor the env var is present.
	ErrNotFound = eris.New("credentials: not found")
	// ErrInvalid means a key was found but could not be used.
	ErrInvalid = eris.New("credentials: invalid")
)

// Source names where a key came from.
type Source string

// Key sources.
const (
	SourceFile Source = "file"
	SourceEnv  Source = "env"
)

// Load reads the key file at cfg.KeyPath, falling back to the JSON held in
// the cfg.EnvVar environment variable when the file does not exist.
func Load(cfg config.CredentialsConfig) (*geoengine.ServiceAccountKey, Source, error) {
	if cfg.KeyPath != "" {
		data, err := os.ReadFile(cfg.KeyPath)
		switch {
		case err == nil:
			key, perr := geoengine.ParseServiceAccountKey(data)
			if perr != nil {
				return nil, SourceFile, eris.Wrapf(ErrInvalid, "credentials: key file %s: %v", cfg.KeyPath, perr)
			}
			return key, SourceFile, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, SourceFile, eris.Wrapf(err, "credentials: read key file %s", cfg.KeyPath)
		}
	}

	if cfg.EnvVar != "" {
		if raw := strings.TrimSpace(os.Getenv(cfg.EnvVar)); raw != "" {
			key, err := geoengine.ParseServiceAccountKey([]byte(raw))
			if err != nil {
				return nil, SourceEnv, eris.Wrapf(ErrInvalid, "credentials: $%s: %v", cfg.EnvVar, err)
			}
			return key, SourceEnv, nil
		}
	}

	return nil, "", eris.Wrapf(ErrNotFound, "credentials: no key file at %q and $%s is unset", cfg.KeyPath, cfg.EnvVar)
}

// Available reports whether Load has something to read, without parsing it.
func Available(cfg config.CredentialsConfig) bool {
	if cfg.KeyPath != "" {
		if _, err := os.Stat(cfg.KeyPath); err == nil {
			return true
		}
	}
	return cfg.EnvVar != "" && strings.TrimSpace(os.Getenv(cfg.EnvVar)) != ""
}

// Provider holds the current key and swaps it on reload.
type Provider struct {
	cfg config.CredentialsConfig

	mu     sync.RWMutex
	key    *geoengine.ServiceAccountKey
	source Source
}

// NewProvider loads the key once.
func NewProvider(cfg config.CredentialsConfig) (*Provider, error) {
	p := &Provider{cfg: cfg}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewOptionalProvider is NewProvider that tolerates a missing key. Key
// returns nil until a Reload finds one. A key that is present but invalid is
// still an error.
func NewOptionalProvider(cfg config.CredentialsConfig) (*Provider, error) {
	p := &Provider{cfg: cfg}
	if err := p.Reload(); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return p, nil
}

// Key returns the current key.
func (p *Provider) Key() *geoengine.ServiceAccountKey {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.key
}

// Source returns where the current key came from.
func (p *Provider) Source() Source {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.source
}

// Reload re-reads the key. The previous key is kept when loading fails.
func (p *Provider) Reload() error {
	key, src, err := Load(p.cfg)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.key = key
	p.source = src
	p.mu.Unlock()
	return nil
}
