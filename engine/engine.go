// Package engine owns the lifecycle of the inference backend: it is loaded
// once at startup, guarded while running, and destroyed at shutdown.
package engine

import (
	"sync"

	iface "FrameClassifier/interface"
)

// Instance guards a backend with a small state machine so misuse shows up
// as an error instead of a crash inside native code.
type Instance struct {
	mu      sync.Mutex
	State   int
	backend iface.Backend
	config  iface.EngineConfig
}

func NewInstance(backend iface.Backend) *Instance {
	return &Instance{
		State:   IDLE,
		backend: backend,
		config:  backend.CheckConfig(),
	}
}

func (d *Instance) Infer(input []float32) ([]float32, error) {
	d.mu.Lock()
	switch d.State {
	case UNREGISTERED:
		d.mu.Unlock()
		return nil, iface.ErrEngineNotLoaded
	case BUSY:
		d.mu.Unlock()
		return nil, iface.ErrEngineBusy
	}
	d.State = BUSY
	backend := d.backend
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.State == BUSY {
			d.State = IDLE
		}
		d.mu.Unlock()
	}()
	return backend.Infer(input)
}

func (d *Instance) OutputLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backend == nil {
		return 0
	}
	return d.backend.OutputLen()
}

func (d *Instance) CheckConfig() iface.EngineConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

func (d *Instance) CurrentState() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.State
}

// Destroy releases the backend. Later calls are no-ops.
func (d *Instance) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.backend != nil {
		d.backend.Destroy()
	}
	d.backend = nil
	d.State = UNREGISTERED
}

func StateName(state int) string {
	switch state {
	case UNREGISTERED:
		return "unregistered"
	case IDLE:
		return "idle"
	case BUSY:
		return "busy"
	default:
		return "unknown"
	}
}
