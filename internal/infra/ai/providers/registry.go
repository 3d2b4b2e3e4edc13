package providers

import (
	"fmt"
	"sort"

	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
)

// Registry resolves provider names to configured clients.
type Registry struct {
	clients  map[ai.Provider]ai.Client
	fallback ai.Provider
}

// NewRegistry indexes clients by their Provider(). fallback is used when a
// request names no provider.
func NewRegistry(fallback ai.Provider, clients ...ai.Client) *Registry {
	r := &Registry{clients: make(map[ai.Provider]ai.Client, len(clients)), fallback: fallback}
	for _, c := range clients {
		r.clients[c.Provider()] = c
	}
	return r
}

func (r *Registry) Resolve(name string) (ai.Client, error) {
	p := r.fallback
	if name != "" {
		parsed, err := ai.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		p = parsed
	}
	c, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not configured", ai.ErrUnsupportedProvider, p)
	}
	return c, nil
}

// Default is the provider used for requests that name none.
func (r *Registry) Default() ai.Provider { return r.fallback }

// Available lists the registered providers in name order.
func (r *Registry) Available() []ai.Provider {
	out := make([]ai.Provider, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
