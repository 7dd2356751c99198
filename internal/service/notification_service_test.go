package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/events"
)

type capturingSender struct {
	to       []string
	subjects []string
	bodies   []string
	err      error
}

func (c *capturingSender) Send(_ context.Context, to, subject, body string) error {
	c.to = append(c.to, to)
	c.subjects = append(c.subjects, subject)
	c.bodies = append(c.bodies, body)
	return c.err
}

func TestCodeIssuedEventSendsEmail(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sender := &capturingSender{}
	svc := NewNotificationService(dispatcher, sender, zap.NewNop(), config.NotificationConfig{EmailFrom: "noreply@example.com"})
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:   "evt-1",
		Type: events.EventCodeIssued,
		Payload: events.CodeIssuedPayload{
			UserID:         "user-1",
			RecipientEmail: "driver@example.com",
			Code:           "123456",
			ExpiresAt:      time.Now().Add(24 * time.Hour),
		},
	})
	require.NoError(t, err)

	require.Len(t, sender.to, 1)
	assert.Equal(t, "driver@example.com", sender.to[0])
	assert.Contains(t, sender.bodies[0], "123456")
}

func TestPaymentSucceededEventSendsReceipt(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sender := &capturingSender{}
	svc := NewNotificationService(dispatcher, sender, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:            "evt-1",
		Type:          events.EventPaymentSucceeded,
		TransactionID: "txn-1",
		Payload: events.PaymentSucceededPayload{
			UserID:         "user-1",
			RecipientEmail: "driver@example.com",
			LicensePlate:   "B1234XYZ",
			Amount:         decimal.NewFromInt(10000),
			NewBalance:     decimal.NewFromInt(10000),
		},
	})
	require.NoError(t, err)

	require.Len(t, sender.bodies, 1)
	assert.Contains(t, sender.bodies[0], "10000")
	assert.Contains(t, sender.bodies[0], "B1234XYZ")
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	sender := &capturingSender{err: errors.New("smtp down")}
	svc := NewNotificationService(dispatcher, sender, zap.NewNop(), config.NotificationConfig{})
	svc.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventCodeIssued,
		Payload: events.CodeIssuedPayload{
			RecipientEmail: "driver@example.com",
			Code:           "123456",
			ExpiresAt:      time.Now(),
		},
	})
	assert.NoError(t, err)
}
