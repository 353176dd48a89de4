package llm

import (
	"fmt"

	"ArxivDigest/internal/ports"
)

// Backend captures one concrete summarization implementation (ollama,
// anthropic, etc.).
type Backend interface {
	Name() string
	Summarizer() ports.Summarizer
}

// Registry keeps a mapping from backend names to their implementations.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register adds or replaces a backend implementation.
func (r *Registry) Register(backend Backend) {
	if r.backends == nil {
		r.backends = map[string]Backend{}
	}
	r.backends[backend.Name()] = backend
}

// Resolve returns a backend by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Summarizer, error) {
	if backend, ok := r.backends[name]; ok {
		return backend.Summarizer(), nil
	}
	return nil, fmt.Errorf("llm backend %s is not registered", name)
}

// namedBackend wraps a plain Summarizer with a registry name.
type namedBackend struct {
	name       string
	summarizer ports.Summarizer
}

func (b namedBackend) Name() string                 { return b.name }
func (b namedBackend) Summarizer() ports.Summarizer { return b.summarizer }

// Named adapts an existing Summarizer into a registrable backend.
func Named(name string, summarizer ports.Summarizer) Backend {
	return namedBackend{name: name, summarizer: summarizer}
}
