package server

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/property-portal/api"
	"github.com/jrsteele09/property-portal/gate"
	"github.com/jrsteele09/property-portal/roles"
	"github.com/jrsteele09/property-portal/session"
	"github.com/jrsteele09/property-portal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// GateFactory builds the gate for one browser client on one portal.
type GateFactory func(clientID string, portal roles.Portal) (*gate.Gate, error)

// NewGateFactory returns a factory whose gates share the client's storage namespace
// across portals, the way one browser origin shares its storage.
func NewGateFactory(provider storage.Provider, client *api.Client, options ...gate.GateOption) GateFactory {
	return func(clientID string, portal roles.Portal) (*gate.Gate, error) {
		store := session.NewStore(provider.ForClient(clientID))
		opts := append([]gate.GateOption{
			gate.WithLogger(log.Logger.With().Str("portal", portal.Name).Str("client", clientID).Logger()),
		}, options...)
		return gate.New(store, client, portal, opts...)
	}
}

type gateKey struct {
	clientID string
	portal   string
}

type gateEntry struct {
	gate     *gate.Gate
	lastUsed time.Time
}

// GateRegistry keeps one gate per (client, portal) and closes gates left idle.
type GateRegistry struct {
	mu          sync.Mutex
	gates       map[gateKey]*gateEntry
	factory     GateFactory
	idleTimeout time.Duration
	nowTime     func() time.Time
	closed      bool
}

// RegistryOption modifies a GateRegistry.
type RegistryOption func(*GateRegistry)

// WithRegistryNowTime sets the now time function (primarily for testing)
func WithRegistryNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *GateRegistry) {
		r.nowTime = nowFunc
	}
}

func NewGateRegistry(factory GateFactory, idleTimeout time.Duration, options ...RegistryOption) *GateRegistry {
	r := &GateRegistry{
		gates:       make(map[gateKey]*gateEntry),
		factory:     factory,
		idleTimeout: idleTimeout,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Get returns the client's gate for portal, creating it on first use.
func (r *GateRegistry) Get(clientID string, portal roles.Portal) (*gate.Gate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, gate.ErrClosed
	}

	key := gateKey{clientID: clientID, portal: portal.Name}
	if e, ok := r.gates[key]; ok {
		e.lastUsed = r.nowTime()
		return e.gate, nil
	}

	g, err := r.factory(clientID, portal)
	if err != nil {
		return nil, errors.Wrapf(err, "[GateRegistry.Get] %s/%s", clientID, portal.Name)
	}
	r.gates[key] = &gateEntry{gate: g, lastUsed: r.nowTime()}
	return g, nil
}

// Sweep closes and forgets gates unused for longer than the idle timeout.
// Stored sessions are untouched; a returning client gets a fresh gate over them.
func (r *GateRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.nowTime().Add(-r.idleTimeout)
	swept := 0
	for key, e := range r.gates {
		if e.lastUsed.Before(cutoff) {
			e.gate.Close()
			delete(r.gates, key)
			swept++
		}
	}
	return swept
}

// Run sweeps every interval until ctx is done.
func (r *GateRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Debug().Int("gates", n).Msg("Swept idle gates")
			}
		}
	}
}

// Len returns the number of live gates
func (r *GateRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}

// Close closes every gate; in-flight logins are discarded.
func (r *GateRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for key, e := range r.gates {
		e.gate.Close()
		delete(r.gates, key)
	}
}
