package publishers

import (
	"context"
	"encoding/json"
	"fmt"
)

// queueSender delivers one encoded run event to a provider.
type queueSender interface {
	Send(ctx context.Context, evt Event) error
	Close() error
}

type senderFactory func(ctx context.Context, q *QueueConfig, log Logger) (queueSender, error)

var queueSenders = map[string]senderFactory{
	QueueProviderAWSSQS: func(ctx context.Context, q *QueueConfig, log Logger) (queueSender, error) {
		return newSQSSender(ctx, q.AWS, log)
	},
	QueueProviderAWSSNS: func(ctx context.Context, q *QueueConfig, log Logger) (queueSender, error) {
		return newSNSSender(ctx, q.SNS, log)
	},
	QueueProviderGCP: func(ctx context.Context, q *QueueConfig, log Logger) (queueSender, error) {
		return newPubSubSender(ctx, q.GCP, log)
	},
}

// queuePublisher wraps a provider sender behind the Publisher interface.
type queuePublisher struct {
	id       string
	provider string
	sender   queueSender
}

func newQueuePublisher(ctx context.Context, cfg Config, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q has no queue section", cfg.ID)
	}
	build, ok := queueSenders[cfg.Queue.Provider]
	if !ok {
		return nil, fmt.Errorf("publisher %q: queue provider %q not supported", cfg.ID, cfg.Queue.Provider)
	}
	sender, err := build(ctx, cfg.Queue, log)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return &queuePublisher{id: cfg.ID, provider: cfg.Queue.Provider, sender: sender}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return TypeQueue }
func (p *queuePublisher) Close() error { return p.sender.Close() }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("%s: %w", p.provider, err)
	}
	return nil
}

// encodeEvent returns the JSON body and the routing attributes shared by
// every queue provider.
func encodeEvent(evt Event) ([]byte, map[string]string, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal run event: %w", err)
	}
	attrs := map[string]string{
		"run_id":   evt.RunID,
		"strategy": evt.Strategy,
		"state":    evt.State,
	}
	return payload, attrs, nil
}
