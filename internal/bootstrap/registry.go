package bootstrap

import (
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live channels process-wide so the host can force-close
// a node's connection after deregistering it, even when the launch that
// opened it is long gone.
type Registry struct {
	mu    sync.Mutex
	conns map[string]io.Closer
}

// DefaultRegistry is the registry used by Run.
var DefaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]io.Closer)}
}

// Register adds a connection and returns its handle.
func (r *Registry) Register(c io.Closer) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.conns[id] = c
	r.mu.Unlock()
	return id
}

// Deregister removes a connection without closing it. Unknown handles are
// ignored.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Close closes and removes the connection with the given handle. Closing
// an unknown handle is a no-op.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	c, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Close()
}

// CloseAll closes every registered connection, keeping going past
// individual failures.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]io.Closer)
	r.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
