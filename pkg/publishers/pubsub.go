package publishers

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// pubsubSender publishes run events to a Google Cloud Pub/Sub topic.
// PUBSUB_EMULATOR_HOST is honoured by the client library.
type pubsubSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	log    Logger
}

func newPubSubSender(ctx context.Context, cfg *PubSubConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, errors.New("gcp queue configuration is missing")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &pubsubSender{client: client, topic: client.Topic(cfg.Topic), log: ensureLogger(log)}, nil
}

func (s *pubsubSender) Send(ctx context.Context, evt Event) error {
	payload, attrs, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	msgID, err := s.topic.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs}).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish to pubsub: %w", err)
	}
	s.log.DebugObj("run event published", "publisher_pubsub_delivery", map[string]any{
		"run_id":     evt.RunID,
		"message_id": msgID,
	})
	return nil
}

func (s *pubsubSender) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
