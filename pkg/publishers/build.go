package publishers

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Publisher from one sink entry.
type Builder func(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error)

// Builders maps sink types to constructors.
type Builders struct {
	mu sync.RWMutex
	m  map[string]Builder
}

// NewBuilders returns an empty set of builders.
func NewBuilders() *Builders {
	return &Builders{m: make(map[string]Builder)}
}

// DefaultBuilders knows every sink type this package ships.
func DefaultBuilders() *Builders {
	b := NewBuilders()
	b.Register(TypeHTTP, newHTTPPublisher)
	b.Register(TypeSQS, newSQSPublisher)
	b.Register(TypeSNS, newSNSPublisher)
	b.Register(TypePubSub, newPubSubPublisher)
	return b
}

// Register binds typ to builder, replacing any earlier binding.
func (b *Builders) Register(typ string, builder Builder) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" || builder == nil {
		return
	}
	b.mu.Lock()
	b.m[typ] = builder
	b.mu.Unlock()
}

// Build instantiates every enabled sink in cfgs and wraps them in a Fanout.
func (b *Builders) Build(ctx context.Context, cfgs []SinkConfig, log Logger) (*Fanout, error) {
	log = ensureLogger(log)

	var pubs []Publisher
	for _, cfg := range Enabled(cfgs) {
		b.mu.RLock()
		builder := b.m[cfg.Type]
		b.mu.RUnlock()
		if builder == nil {
			return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
		}

		pub, err := builder(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
		}
		log.InfoObj("publisher ready", "publisher_ready", map[string]any{
			"publisher_id": cfg.ID,
			"type":         cfg.Type,
		})
		pubs = append(pubs, pub)
	}
	return NewFanout(log, pubs...), nil
}
