package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	iface "FrameClassifier/interface"
)

// Opener loads a model and returns a ready backend.
type Opener func(cfg iface.EngineConfig) (iface.Backend, error)

type registration struct {
	ext  string
	open Opener
}

var (
	regMu    sync.RWMutex
	backends = map[string]registration{}
)

// Register makes a backend available to Load under name. Models handed to
// it must carry the given file extension.
func Register(name, ext string, open Opener) {
	regMu.Lock()
	defer regMu.Unlock()
	if open == nil {
		panic("engine: Register opener is nil")
	}
	if _, dup := backends[name]; dup {
		panic("engine: Register called twice for backend " + name)
	}
	backends[name] = registration{ext: ext, open: open}
}

func Backends() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load opens the configured backend once. Every failure is a
// *iface.ResourceLoadError.
func Load(cfg iface.EngineConfig) (*Instance, error) {
	regMu.RLock()
	reg, ok := backends[cfg.Backend]
	regMu.RUnlock()
	loadErr := func(err error) error {
		return &iface.ResourceLoadError{Backend: cfg.Backend, Path: cfg.ModelPath, Err: err}
	}
	if !ok {
		return nil, loadErr(fmt.Errorf("unsupported backend %q (available: %s)", cfg.Backend, strings.Join(Backends(), ", ")))
	}
	if cfg.ModelPath == "" {
		return nil, loadErr(errors.New("model path cannot be empty"))
	}
	if !strings.EqualFold(filepath.Ext(cfg.ModelPath), reg.ext) {
		return nil, loadErr(fmt.Errorf("%s backend only supports %s models", cfg.Backend, reg.ext))
	}
	info, err := os.Stat(cfg.ModelPath)
	if err != nil {
		return nil, loadErr(err)
	}
	if info.IsDir() {
		return nil, loadErr(errors.New("model path is a directory"))
	}
	backend, err := reg.open(cfg)
	if err != nil {
		return nil, loadErr(err)
	}
	return NewInstance(backend), nil
}
