package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/yuin/goldmark"

	emailAdapter "villagefit/internal/adapters/email"
	domain "villagefit/internal/domain/outbox"
)

// Notifier queues an outbound notification. Implementations are
// best-effort: a failed send is parked for retry, never surfaced to
// the calling operation.
type Notifier interface {
	Notify(ctx context.Context, kind string, recipient string, data map[string]string)
}

// NotificationOutboxStore defines the outbox store interface needed by
// the notifier.
type NotificationOutboxStore interface {
	Save(ctx context.Context, value domain.Entry) error
}

// notificationTemplate pairs a subject line with a markdown body.
// Bodies are authored in markdown and rendered to HTML before sending.
type notificationTemplate struct {
	Subject string
	Body    string
}

var notificationTemplates = map[string]notificationTemplate{
	domain.KindBookingConfirmation: {
		Subject: "You're booked: {{.ClassTitle}}",
		Body: `Kia ora {{.CustomerName}},

Your spot in **{{.ClassTitle}}** on {{.ClassDate}} at {{.ClassTime}} is confirmed.
{{if .Location}}We'll see you at {{.Location}}.{{end}}

Need to cancel? Use this link: {{.CancelURL}}`,
	},
	domain.KindBookingCancelled: {
		Subject: "Booking cancelled: {{.ClassTitle}}",
		Body: `Kia ora {{.CustomerName}},

Your booking for **{{.ClassTitle}}** on {{.ClassDate}} has been cancelled.
Your seat has been released. You're welcome to book again any time.`,
	},
	domain.KindClassCancelled: {
		Subject: "Class cancelled: {{.ClassTitle}} on {{.ClassDate}}",
		Body: `Kia ora {{.CustomerName}},

Unfortunately **{{.ClassTitle}}** on {{.ClassDate}} has been cancelled.
Your booking has been cancelled automatically and no session was used.`,
	},
	domain.KindPassRenewed: {
		Subject: "Your new session pass is ready",
		Body: `Kia ora {{.CustomerName}},

Your new pass with **{{.SessionCount}} sessions** is active.
Every attended class uses one session. Happy training!`,
	},
}

// OutboxNotifier renders notification templates and sends them through
// the email provider. Failed sends are recorded in the notification
// outbox for later retry.
type OutboxNotifier struct {
	OutboxStore NotificationOutboxStore
	Sender      emailAdapter.Sender
	From        string
	ReplyTo     string
	GenerateID  func() string
	Now         func() time.Time
}

// Notify composes and sends one notification best-effort.
// PRE: kind is a known notification kind, recipient is non-empty
// POST: Email sent, or an outbox entry saved for retry; never fails
// the caller
func (n *OutboxNotifier) Notify(ctx context.Context, kind string, recipient string, data map[string]string) {
	subject, html, err := renderNotification(kind, data)
	if err != nil {
		slog.Error("notification_render_failed", "kind", kind, "recipient", recipient, "error", err.Error())
		return
	}

	_, sendErr := n.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      []string{recipient},
		From:    n.From,
		Subject: subject,
		HTML:    html,
		ReplyTo: n.ReplyTo,
	})
	if sendErr == nil {
		slog.Info("notification_sent", "kind", kind, "recipient", recipient)
		return
	}

	// Park the notification for retry. The booking or cancellation
	// that triggered it has already committed.
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("notification_payload_failed", "kind", kind, "error", err.Error())
		return
	}
	entry := domain.Entry{
		ID:          n.GenerateID(),
		Kind:        kind,
		Recipient:   recipient,
		Payload:     string(payload),
		Status:      domain.StatusPending,
		Attempts:    1,
		MaxAttempts: 5,
		CreatedAt:   n.Now(),
		LastError:   sendErr.Error(),
	}
	if err := entry.Validate(); err != nil {
		slog.Error("notification_entry_invalid", "kind", kind, "error", err.Error())
		return
	}
	if err := n.OutboxStore.Save(ctx, entry); err != nil {
		slog.Error("notification_outbox_save_failed", "kind", kind, "recipient", recipient, "error", err.Error())
		return
	}
	slog.Warn("notification_parked", "kind", kind, "recipient", recipient, "error", sendErr.Error())
}

// mdRenderer converts markdown bodies to HTML. Raw HTML in template
// output stays escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New()

// renderNotification executes the subject and body templates for a
// kind and converts the body markdown to HTML.
func renderNotification(kind string, data map[string]string) (subject string, html string, err error) {
	tmpl, ok := notificationTemplates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind: %s", kind)
	}

	subject, err = executeTemplate("subject", tmpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	markdown, err := executeTemplate("body", tmpl.Body, data)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", "", fmt.Errorf("markdown render failed: %w", err)
	}
	return subject, buf.String(), nil
}

func executeTemplate(name, text string, data map[string]string) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", name, err)
	}
	return buf.String(), nil
}
