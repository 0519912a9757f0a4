package storage

import "context"

// Repo is durable key-value storage scoped to one browser client.
// SetAll and Delete apply every key in a single atomic step.
type Repo interface {
	// Get returns the value stored under key and whether it was present
	Get(ctx context.Context, key string) (string, bool, error)

	// GetAll returns the present subset of keys
	GetAll(ctx context.Context, keys ...string) (map[string]string, error)

	// SetAll writes every entry of values together
	SetAll(ctx context.Context, values map[string]string) error

	// Delete removes all keys together; missing keys are ignored
	Delete(ctx context.Context, keys ...string) error
}

// Provider hands out the Repo belonging to a browser client.
type Provider interface {
	ForClient(clientID string) Repo
}
