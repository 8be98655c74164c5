package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/drinkmates/aqualine-api/config"
	"github.com/drinkmates/aqualine-api/models"
	"gopkg.in/gomail.v2"
)

// Notifier tells customers about changes to their orders
type Notifier interface {
	NotifyStatusChange(ctx context.Context, order *models.CO2Order, res models.TransitionResult) error
}

// mailDialer is the part of gomail.Dialer the notifier needs
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier sends order status e-mails over SMTP
type SMTPNotifier struct {
	from   string
	dialer mailDialer
}

// NewSMTPNotifier builds an SMTP notifier from the SMTP_* settings
func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	return &SMTPNotifier{
		from:   cfg.SMTPFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// NewNotifier picks the SMTP notifier when SMTP is configured, otherwise a no-op
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.SMTPEnabled() {
		return NewSMTPNotifier(cfg)
	}
	return NoopNotifier{}
}

var statusMailTemplate = template.Must(template.New("status").Parse(`
<h2>Your DrinkMates order {{.OrderNumber}}</h2>
<p>Hello {{.Name}},</p>
<p>Your CO2 order is now <strong>{{.Status}}</strong>.</p>
{{if .Date}}<p>Scheduled for {{.Date}}.</p>{{end}}
<p>Total: {{.Total}} SAR</p>
<p>Thank you for choosing DrinkMates.</p>
`))

var statusLabels = map[models.OrderStatus]string{
	models.StatusPending:           "received",
	models.StatusConfirmed:         "confirmed",
	models.StatusPickupScheduled:   "scheduled for pickup",
	models.StatusPickedUp:          "picked up",
	models.StatusRefilling:         "being refilled",
	models.StatusReadyForDelivery:  "ready for delivery",
	models.StatusDeliveryScheduled: "scheduled for delivery",
	models.StatusDelivered:         "delivered",
	models.StatusCancelled:         "cancelled",
	models.StatusRefunded:          "refunded",
}

// NotifyStatusChange e-mails the order's customer about a status change
func (n *SMTPNotifier) NotifyStatusChange(ctx context.Context, order *models.CO2Order, res models.TransitionResult) error {
	if order.User.Email == "" {
		return fmt.Errorf("order %s has no customer e-mail", order.OrderNumber)
	}

	data := struct {
		OrderNumber string
		Name        string
		Status      string
		Date        string
		Total       string
	}{
		OrderNumber: order.OrderNumber,
		Name:        order.User.Name,
		Status:      statusLabels[res.To],
		Total:       order.Total.StringFixed(2),
	}
	switch res.To {
	case models.StatusPickupScheduled:
		if order.PreferredPickupDate != nil {
			data.Date = order.PreferredPickupDate.Format("Mon 02 Jan 2006 15:04")
		}
	case models.StatusDeliveryScheduled:
		if order.PreferredDeliveryDate != nil {
			data.Date = order.PreferredDeliveryDate.Format("Mon 02 Jan 2006 15:04")
		}
	}

	var body bytes.Buffer
	if err := statusMailTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render status e-mail: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", order.User.Email)
	m.SetHeader("Subject", fmt.Sprintf("Order %s is %s", order.OrderNumber, data.Status))
	m.SetBody("text/html", body.String())

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NoopNotifier drops every notification
type NoopNotifier struct{}

func (NoopNotifier) NotifyStatusChange(ctx context.Context, order *models.CO2Order, res models.TransitionResult) error {
	return nil
}

// SentNotification is one call recorded by MockNotifier
type SentNotification struct {
	OrderNumber string
	From        models.OrderStatus
	To          models.OrderStatus
}

// MockNotifier records notifications for tests
type MockNotifier struct {
	mu   sync.Mutex
	Sent []SentNotification
	Err  error
}

func (m *MockNotifier) NotifyStatusChange(ctx context.Context, order *models.CO2Order, res models.TransitionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentNotification{OrderNumber: order.OrderNumber, From: res.From, To: res.To})
	return m.Err
}

// Calls returns a copy of the recorded notifications
func (m *MockNotifier) Calls() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotification(nil), m.Sent...)
}
