// Package consumers drives Pub/Sub subscriptions into order event processors.
package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
)

// Processor handles one decoded order event. A returned error nacks the message.
type Processor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Runner receives messages from a subscription and hands them to a Processor.
type Runner struct {
	name         string
	subscription receiver
	processor    Processor
	logg         *logger.Logger
}

func NewRunner(name string, subscription *gcppubsub.Subscriber, processor Processor, logg *logger.Logger) (*Runner, error) {
	if subscription == nil {
		return nil, fmt.Errorf("%s subscription is required", name)
	}
	return newRunner(name, subscription, processor, logg)
}

func newRunner(name string, subscription receiver, processor Processor, logg *logger.Logger) (*Runner, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("runner name is required")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Runner{
		name:         name,
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

// Name identifies the runner in logs.
func (r *Runner) Name() string {
	return r.name
}

// Run blocks until ctx is canceled or the subscription fails.
func (r *Runner) Run(ctx context.Context) error {
	r.logg.Info(r.logg.WithField(ctx, "consumer", r.name), "consumer started")
	return r.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if r.process(innerCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process reports whether the message should be redelivered.
func (r *Runner) process(ctx context.Context, msg *gcppubsub.Message) bool {
	fields := map[string]any{
		"consumer":   r.name,
		"message_id": msg.ID,
	}
	logCtx := r.logg.WithFields(ctx, fields)

	eventType, envelope, err := decodeMessage(msg)
	if err != nil {
		r.logg.Warn(r.logg.WithField(logCtx, "error", err.Error()), "dropping malformed order event")
		return false
	}
	logCtx = r.logg.WithFields(logCtx, map[string]any{
		"event_id":     envelope.EventID,
		"event_type":   eventType,
		"aggregate_id": msg.Attributes["aggregate_id"],
	})

	if err := r.processor.Process(logCtx, eventType, envelope); err != nil {
		r.logg.Error(logCtx, "order event processing failed", err)
		return true
	}
	r.logg.Debug(logCtx, "order event handled")
	return false
}

func decodeMessage(msg *gcppubsub.Message) (enums.OutboxEventType, outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return "", envelope, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return "", envelope, fmt.Errorf("event_type: %w", err)
	}

	if strings.TrimSpace(envelope.EventID) == "" {
		envelope.EventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if envelope.EventID == "" {
		return "", envelope, errors.New("event_id missing")
	}

	if envelope.OccurredAt.IsZero() {
		if created := strings.TrimSpace(msg.Attributes["created_at"]); created != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
				envelope.OccurredAt = parsed.UTC()
			}
		}
	}
	return eventType, envelope, nil
}
