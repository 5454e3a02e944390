package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	localSubscription = "projects/local/subscriptions/order-events-sub"
	localPushTimeout  = 10 * time.Second
)

// PubSubPushMessage is the body Pub/Sub sends to push subscriptions.
type PubSubPushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func newPushMessage(msg *orderMessage, subscription string) PubSubPushMessage {
	var push PubSubPushMessage
	push.Subscription = subscription
	push.Message.Data = base64.StdEncoding.EncodeToString(msg.Data)
	push.Message.Attributes = msg.Attributes
	push.Message.MessageID = msg.ID
	push.Message.PublishTime = msg.Time.Format(time.RFC3339)

	return push
}

// localHTTPPublisher posts events straight to a push endpoint, standing in
// for a Pub/Sub push subscription during development.
type localHTTPPublisher struct {
	endpoint     string
	subscription string
	client       *http.Client
	logger       *slog.Logger
}

func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint:     endpoint,
		subscription: localSubscription,
		client:       &http.Client{Timeout: localPushTimeout},
		logger:       logger,
	}
}

func (p *localHTTPPublisher) PublishOrderEvent(ctx context.Context, event *service.OrderEvent) error {
	msg, err := newOrderMessage(event)
	if err != nil {
		return err
	}

	body, err := json.Marshal(newPushMessage(msg, p.subscription))
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := msg.requestID(); id != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, id)
	}

	logger := eventLogger(ctx, p.logger, "local", msg)
	logger.Info("Pushing order event", slog.String("endpoint", p.endpoint))

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to push order event")
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("push endpoint returned non-success status: %d", resp.StatusCode)
	}

	logger.Debug("Order event pushed", slog.Int("status", resp.StatusCode))

	return nil
}

func (p *localHTTPPublisher) Close() error {
	p.client.CloseIdleConnections()

	return nil
}
