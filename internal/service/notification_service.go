package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/events"
)

// EmailSender delivers a message to a recipient. The real transport lives
// outside this service; the default implementation only logs.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type logSender struct {
	logger *zap.Logger
	from   string
}

// NewLogSender returns an EmailSender that records deliveries in the log.
func NewLogSender(logger *zap.Logger, from string) EmailSender {
	return &logSender{logger: logger, from: from}
}

func (l *logSender) Send(_ context.Context, to, subject, body string) error {
	l.logger.Info("email dispatched",
		zap.String("from", l.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

// NotificationService turns domain events into outbound notifications.
// Delivery failures are logged and swallowed; notifications are side
// effects and never affect money or spot state.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     EmailSender
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sender EmailSender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCodeIssued, n.handleCodeIssued)
	n.dispatcher.Subscribe(events.EventPaymentSucceeded, n.handlePaymentSucceeded)
	n.dispatcher.Subscribe(events.EventPaymentFailed, n.handlePaymentFailed)
	n.dispatcher.Subscribe(events.EventSessionOpened, n.handleSessionOpened)
}

func (n *NotificationService) handleCodeIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CodeIssuedPayload)
	if !ok {
		return nil
	}
	subject := "Your parking verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires at %s.",
		payload.Code, payload.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	if err := n.sender.Send(ctx, payload.RecipientEmail, subject, body); err != nil {
		n.logger.Error("code email delivery failed",
			zap.String("user_id", payload.UserID), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handlePaymentSucceeded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PaymentSucceededPayload)
	if !ok {
		return nil
	}
	subject := "Parking payment confirmed"
	body := fmt.Sprintf("Payment of %s for vehicle %s was confirmed. Remaining balance: %s.",
		payload.Amount.String(), payload.LicensePlate, payload.NewBalance.String())
	if err := n.sender.Send(ctx, payload.RecipientEmail, subject, body); err != nil {
		n.logger.Error("confirmation email delivery failed",
			zap.String("transaction_id", event.TransactionID), zap.Error(err))
	}
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) handlePaymentFailed(_ context.Context, event events.Event) error {
	n.logger.Info("PaymentFailed", zap.String("transaction_id", event.TransactionID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) handleSessionOpened(_ context.Context, event events.Event) error {
	n.logger.Info("SessionOpened", zap.String("transaction_id", event.TransactionID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookStub(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("transaction_id", event.TransactionID),
		zap.String("event_type", string(event.Type)))
}
