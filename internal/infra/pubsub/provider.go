// Package pubsub publishes order lifecycle events to the configured broker.
package pubsub

import (
	"context"
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderKafka  = "kafka"
)

// noopPublisher drops events when no provider is configured.
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) PublishOrderEvent(ctx context.Context, event *service.OrderEvent) error {
	msg, err := newOrderMessage(event)
	if err != nil {
		return err
	}
	eventLogger(ctx, p.logger, "noop", msg).Debug("Event publishing disabled, dropping order event")

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

type publisherBuilder func(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error)

//nolint:gochecknoglobals
var builders = map[string]publisherBuilder{
	ProviderLocal:  buildLocal,
	ProviderGoogle: buildGoogle,
	ProviderKafka:  buildKafka,
}

func buildLocal(_ context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
	if cfg.LocalEndpoint == "" {
		return nil, errors.New("local endpoint is required for local provider")
	}

	return NewLocalHTTPPublisher(cfg.LocalEndpoint, logger), nil
}

func buildGoogle(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
	switch {
	case cfg.ProjectID == "":
		return nil, errors.New("project ID is required for google provider")
	case cfg.TopicID == "":
		return nil, errors.New("topic ID is required for google provider")
	}

	return NewGooglePubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID, logger)
}

func buildKafka(_ context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
	switch {
	case cfg.Kafka == nil || len(cfg.Kafka.Brokers) == 0:
		return nil, errors.New("brokers are required for kafka provider")
	case cfg.Kafka.Topic == "":
		return nil, errors.New("topic is required for kafka provider")
	}

	return NewKafkaPublisher(cfg.Kafka, logger), nil
}

// NewEventPublisher builds the publisher named by pubsub.provider and closes
// it when the application stops. An absent provider yields a no-op publisher.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	if cfg == nil || cfg.Provider == "" {
		params.Logger.Info("PubSub not configured, order events are dropped")

		return &noopPublisher{logger: params.Logger}, nil
	}

	build, ok := builders[cfg.Provider]
	if !ok {
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	logger := params.Logger.With(slog.String("provider", cfg.Provider))
	publisher, err := build(params.Ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Order event publisher ready")

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("Closing order event publisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewEventPublisher),
)
