package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg Config, log Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry holding the given builders.
func NewRegistry(builders map[string]Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// DefaultRegistry knows the http and queue publisher types.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:  newHTTPPublisher,
		TypeQueue: newQueuePublisher,
	})
}

// Register associates a builder with a publisher type.
func (r *Registry) Register(typ string, builder Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || builder == nil {
		return
	}
	r.builders[typ] = builder
}

// Build returns the publisher for cfg.
func (r *Registry) Build(ctx context.Context, cfg Config, log Logger) (Publisher, error) {
	builder := r.builders[strings.ToLower(cfg.Type)]
	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, log)
}

// BuildAll instantiates every enabled publisher. Publishers already built are
// closed when a later one fails.
func BuildAll(ctx context.Context, reg *Registry, cfgs []Config, log Logger) ([]Publisher, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	var pubs []Publisher
	for _, cfg := range Enabled(cfgs) {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			closeAll(pubs)
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// Dispatcher fans a run event out to every publisher. A failing publisher is
// logged and does not stop the others.
type Dispatcher struct {
	pubs []Publisher
	log  Logger
}

// NewDispatcher wraps pubs.
func NewDispatcher(pubs []Publisher, log Logger) *Dispatcher {
	return &Dispatcher{pubs: pubs, log: ensureLogger(log)}
}

// Publish sends evt to every publisher and returns the joined errors.
func (d *Dispatcher) Publish(ctx context.Context, evt Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, pub := range d.pubs {
		if err := pub.Publish(ctx, evt); err != nil {
			d.log.ErrorObj("run event publish failed", "publisher_error", map[string]any{
				"publisher_id": pub.ID(),
				"type":         pub.Type(),
				"run_id":       evt.RunID,
				"error":        err.Error(),
			})
			errs = append(errs, fmt.Errorf("publisher %s: %w", pub.ID(), err))
			continue
		}
		d.log.InfoObj("run event published", "publisher_done", map[string]any{
			"publisher_id": pub.ID(),
			"run_id":       evt.RunID,
		})
	}
	return errors.Join(errs...)
}

// Close releases publisher resources.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	return closeAll(d.pubs)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, pub := range pubs {
		if c, ok := pub.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
