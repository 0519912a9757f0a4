package storage

import (
	"context"
	"sync"
)

var (
	_ Provider = (*InMemoryProvider)(nil)
	_ Repo     = (*inMemoryRepo)(nil)
)

// InMemoryProvider is a thread-safe in-memory Provider. Values live as long as the process.
type InMemoryProvider struct {
	mu      sync.RWMutex
	clients map[string]map[string]string // clientID -> key -> value
}

// NewInMemoryProvider creates an empty in-memory provider
func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		clients: make(map[string]map[string]string),
	}
}

// ForClient returns the namespace for clientID
func (p *InMemoryProvider) ForClient(clientID string) Repo {
	return &inMemoryRepo{provider: p, clientID: clientID}
}

// NewInMemoryRepo returns a standalone single-client repo
func NewInMemoryRepo() Repo {
	return NewInMemoryProvider().ForClient("default")
}

type inMemoryRepo struct {
	provider *InMemoryProvider
	clientID string
}

func (r *inMemoryRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	r.provider.mu.RLock()
	defer r.provider.mu.RUnlock()

	v, ok := r.provider.clients[r.clientID][key]
	return v, ok, nil
}

func (r *inMemoryRepo) GetAll(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.provider.mu.RLock()
	defer r.provider.mu.RUnlock()

	values := make(map[string]string, len(keys))
	client := r.provider.clients[r.clientID]
	for _, k := range keys {
		if v, ok := client[k]; ok {
			values[k] = v
		}
	}
	return values, nil
}

func (r *inMemoryRepo) SetAll(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.provider.mu.Lock()
	defer r.provider.mu.Unlock()

	client, ok := r.provider.clients[r.clientID]
	if !ok {
		client = make(map[string]string, len(values))
		r.provider.clients[r.clientID] = client
	}
	for k, v := range values {
		client[k] = v
	}
	return nil
}

func (r *inMemoryRepo) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.provider.mu.Lock()
	defer r.provider.mu.Unlock()

	client, ok := r.provider.clients[r.clientID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(client, k)
	}

	// Clean up empty client map
	if len(client) == 0 {
		delete(r.provider.clients, r.clientID)
	}
	return nil
}
