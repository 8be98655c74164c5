package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPNotifier_NotifyStatusChange(t *testing.T) {
	dialer := &fakeDialer{}
	n := &SMTPNotifier{from: "orders@drinkmates.sa", dialer: dialer}
	pickup := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	order := &models.CO2Order{
		OrderNumber:         "CO2260309123",
		User:                models.User{Name: "Sara", Email: "sara@example.com"},
		Total:               decimal.RequireFromString("105"),
		PreferredPickupDate: &pickup,
	}

	err := n.NotifyStatusChange(context.Background(), order, models.TransitionResult{From: models.StatusConfirmed, To: models.StatusPickupScheduled, Changed: true})
	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)

	m := dialer.sent[0]
	assert.Equal(t, []string{"sara@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Order CO2260309123 is scheduled for pickup"}, m.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err = m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Tue 10 Mar 2026 09:30")
	assert.Contains(t, raw.String(), "105.00 SAR")
}

func TestSMTPNotifier_Errors(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("connection refused")}
	n := &SMTPNotifier{from: "orders@drinkmates.sa", dialer: dialer}

	err := n.NotifyStatusChange(context.Background(), &models.CO2Order{OrderNumber: "CO2260309123"}, models.TransitionResult{To: models.StatusConfirmed})
	assert.ErrorContains(t, err, "no customer e-mail")
	assert.Empty(t, dialer.sent)

	order := &models.CO2Order{OrderNumber: "CO2260309123", User: models.User{Email: "a@b.c"}}
	err = n.NotifyStatusChange(context.Background(), order, models.TransitionResult{To: models.StatusConfirmed})
	assert.ErrorContains(t, err, "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = n.NotifyStatusChange(ctx, order, models.TransitionResult{To: models.StatusConfirmed})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewNotifier(t *testing.T) {
	_, isNoop := NewNotifier(&config.Config{}).(NoopNotifier)
	assert.True(t, isNoop)

	cfg := &config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFrom: "orders@drinkmates.sa"}
	_, isSMTP := NewNotifier(cfg).(*SMTPNotifier)
	assert.True(t, isSMTP)
}
