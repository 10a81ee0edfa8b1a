package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vivaflower/storefront-backend/pkg/db/models"
	"github.com/vivaflower/storefront-backend/pkg/email"
	"github.com/vivaflower/storefront-backend/pkg/enums"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/outbox"
	"github.com/vivaflower/storefront-backend/pkg/outbox/payloads"
	"github.com/vivaflower/storefront-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type guestLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Guest, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// ConsumerParams wires the order notification consumer.
type ConsumerParams struct {
	Repo         notificationWriter
	Guests       guestLookup
	Mailer       email.Sender
	Decoders     *registry.DecoderRegistry
	Idempotency  idempotencyChecker
	AdminAddress string
	Logger       *logger.Logger
}

// Consumer turns order events into guest notifications and emails. Rows are
// written before any email goes out; email failures are logged only.
type Consumer struct {
	repo         notificationWriter
	guests       guestLookup
	mailer       email.Sender
	decoders     *registry.DecoderRegistry
	idempotency  idempotencyChecker
	adminAddress string
	logg         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.Guests == nil {
		return nil, fmt.Errorf("guest repository required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := params.Decoders
	if decoders == nil {
		decoders = registry.NewOrderDecoderRegistry()
	}
	return &Consumer{
		repo:         params.Repo,
		guests:       params.Guests,
		mailer:       params.Mailer,
		decoders:     decoders,
		idempotency:  params.Idempotency,
		adminAddress: strings.TrimSpace(params.AdminAddress),
		logg:         params.Logger,
	}, nil
}

// Process handles one delivered envelope. A returned error means the message
// should be redelivered.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})
	if !eventType.IsValid() {
		c.logg.Info(logCtx, "event not handled by notification consumer")
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return nil
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	version := envelope.Version
	if version == 0 {
		version = outbox.CurrentVersion
	}
	payload, err := c.decoders.Decode(eventType, version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return err
	}

	if err := c.handle(logCtx, payload); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return err
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, payload any) error {
	switch p := payload.(type) {
	case *payloads.OrderPlacedEvent:
		if err := c.notify(ctx, p.GuestID, p.OrderID, placedMessage(p.OrderID)); err != nil {
			return err
		}
		// e_wallet orders reach the admin once the gateway settles them
		if p.PaymentMethod != enums.PaymentMethodEWallet {
			c.mailAdmin(ctx, func(to string) (email.Message, error) {
				return newOrderEmail(to, newOrderFromPlaced(p))
			})
		}
	case *payloads.OrderCanceledEvent:
		if err := c.notify(ctx, p.GuestID, p.OrderID, canceledMessage(p.OrderID)); err != nil {
			return err
		}
		c.mailAdmin(ctx, func(to string) (email.Message, error) {
			return cancellationEmail(to, p)
		})
	case *payloads.OrderStatusChangedEvent:
		if msg := statusMessage(p.OrderID, p.Status); msg != "" {
			if err := c.notify(ctx, p.GuestID, p.OrderID, msg); err != nil {
				return err
			}
		}
		c.mailGuest(ctx, p)
	case *payloads.OrderPaidEvent:
		if p.PaymentMethod == enums.PaymentMethodEWallet {
			c.mailAdmin(ctx, func(to string) (email.Message, error) {
				return newOrderEmail(to, newOrderFromPaid(p))
			})
		}
	default:
		return fmt.Errorf("unexpected payload %T", payload)
	}
	return nil
}

func (c *Consumer) notify(ctx context.Context, guestID *uuid.UUID, orderID uuid.UUID, message string) error {
	if guestID == nil || *guestID == uuid.Nil {
		c.logg.Warn(ctx, "order has no guest; notification skipped")
		return nil
	}
	url := orderURL(orderID)
	related := orderID
	notification := &models.Notification{
		GuestID:          *guestID,
		NotificationType: enums.NotificationTypeOrderUpdate,
		Message:          message,
		RelatedObjectID:  &related,
		URL:              &url,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	c.logg.Info(ctx, "guest notified")
	return nil
}

func (c *Consumer) mailAdmin(ctx context.Context, build func(to string) (email.Message, error)) {
	if c.adminAddress == "" {
		c.logg.Warn(ctx, "admin address not configured; email skipped")
		return
	}
	msg, err := build(c.adminAddress)
	if err != nil {
		c.logg.Error(ctx, "failed to build admin email", err)
		return
	}
	c.send(ctx, msg)
}

func (c *Consumer) mailGuest(ctx context.Context, p *payloads.OrderStatusChangedEvent) {
	if p.GuestID == nil {
		return
	}
	guest, err := c.guests.FindByID(ctx, *p.GuestID)
	if err != nil {
		c.logg.Error(ctx, "failed to load guest for status email", err)
		return
	}
	if strings.TrimSpace(guest.Email) == "" {
		return
	}
	name := strings.TrimSpace(guest.FirstName + " " + guest.LastName)
	msg, err := statusUpdateEmail(guest.Email, name, p)
	if err != nil {
		c.logg.Error(ctx, "failed to build status email", err)
		return
	}
	c.send(ctx, msg)
}

func (c *Consumer) send(ctx context.Context, msg email.Message) {
	if err := c.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		c.logg.Error(c.logg.WithField(ctx, "subject", msg.Subject), "email delivery failed", err)
		return
	}
	c.logg.Info(c.logg.WithField(ctx, "subject", msg.Subject), "email sent")
}
