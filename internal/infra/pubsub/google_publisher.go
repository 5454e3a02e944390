package pubsub

import (
	"context"
	"log/slog"

	"storefront/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// topicPublisher is the slice of pubsub.Publisher the order publisher needs.
type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
	ResumePublish(orderingKey string)
	Stop()
}

// googlePubSubPublisher sends order events to a Cloud Pub/Sub topic with
// message ordering keyed by order id.
type googlePubSubPublisher struct {
	publisher topicPublisher
	closeFn   func() error
	logger    *slog.Logger
}

// NewGooglePubSubPublisher connects to the project and fails fast when the
// topic does not exist.
func NewGooglePubSubPublisher(ctx context.Context, projectID, topicID string, logger *slog.Logger) (service.EventPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pubsub client")
	}

	topic := "projects/" + projectID + "/topics/" + topicID
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic}); err != nil {
		_ = client.Close()

		return nil, errors.Wrapf(err, "failed to get topic %s", topic)
	}

	publisher := client.Publisher(topicID)
	publisher.EnableMessageOrdering = true

	logger.Info("Google Pub/Sub publisher ready", slog.String("topic", topic))

	return &googlePubSubPublisher{
		publisher: publisher,
		closeFn:   client.Close,
		logger:    logger,
	}, nil
}

func (p *googlePubSubPublisher) PublishOrderEvent(ctx context.Context, event *service.OrderEvent) error {
	msg, err := newOrderMessage(event)
	if err != nil {
		return err
	}

	logger := eventLogger(ctx, p.logger, "google", msg)
	logger.Info("Publishing order event")

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:        msg.Data,
		Attributes:  msg.Attributes,
		OrderingKey: msg.Key,
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		// The ordering key stays paused after a failure until resumed.
		p.publisher.ResumePublish(msg.Key)

		return errors.Wrap(err, "failed to publish order event")
	}

	logger.Debug("Order event published", slog.String("server_id", serverID))

	return nil
}

func (p *googlePubSubPublisher) Close() error {
	p.publisher.Stop()
	if p.closeFn == nil {
		return nil
	}

	return errors.WithStack(p.closeFn())
}
