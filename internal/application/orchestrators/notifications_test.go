package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	emailAdapter "villagefit/internal/adapters/email"
	"villagefit/internal/domain/outbox"
)

// mockSender implements email.Sender, failing the first FailCount
// sends.
type mockSender struct {
	sent      []emailAdapter.SendRequest
	failCount int
}

func (m *mockSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	if m.failCount > 0 {
		m.failCount--
		return emailAdapter.SendResult{}, errors.New("provider unavailable")
	}
	m.sent = append(m.sent, req)
	return emailAdapter.SendResult{MessageID: "msg-1"}, nil
}

// mockOutboxStore implements the outbox store interfaces over a map.
type mockOutboxStore struct {
	entries map[string]outbox.Entry
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.IsTerminal() {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newTestNotifier(store *mockOutboxStore, sender *mockSender) *OutboxNotifier {
	return &OutboxNotifier{
		OutboxStore: store,
		Sender:      sender,
		From:        "VillageFit <noreply@villagefit.test>",
		ReplyTo:     "frontdesk@villagefit.test",
		GenerateID:  seqID(),
		Now:         fixedNow,
	}
}

// TestOutboxNotifier_SendsRenderedMarkdown tests the happy path: the
// template renders with the data and the markdown body becomes HTML.
func TestOutboxNotifier_SendsRenderedMarkdown(t *testing.T) {
	store := newMockOutboxStore()
	sender := &mockSender{}
	n := newTestNotifier(store, sender)

	n.Notify(context.Background(), outbox.KindBookingConfirmation, "alice@example.com", map[string]string{
		"CustomerName": "Alice",
		"ClassTitle":   "Aqua Aerobics",
		"ClassDate":    "Wednesday 4 March 2026",
		"ClassTime":    "9:00am",
		"Location":     "Pool Pavilion",
		"CancelURL":    "https://villagefit.example.com/bookings/cancel/tok-1",
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sent))
	}
	req := sender.sent[0]
	if req.Subject != "You're booked: Aqua Aerobics" {
		t.Errorf("unexpected subject: %q", req.Subject)
	}
	if !strings.Contains(req.HTML, "<strong>Aqua Aerobics</strong>") {
		t.Errorf("expected markdown bold rendered to HTML, got %q", req.HTML)
	}
	if !strings.Contains(req.HTML, "Kia ora Alice") {
		t.Errorf("expected greeting in body, got %q", req.HTML)
	}
	if len(store.entries) != 0 {
		t.Errorf("expected no outbox entries on success, got %d", len(store.entries))
	}
}

// TestOutboxNotifier_ParksFailedSend tests that a provider failure
// lands the notification in the outbox instead of surfacing an error.
func TestOutboxNotifier_ParksFailedSend(t *testing.T) {
	store := newMockOutboxStore()
	sender := &mockSender{failCount: 1}
	n := newTestNotifier(store, sender)

	n.Notify(context.Background(), outbox.KindPassRenewed, "alice@example.com", map[string]string{
		"CustomerName": "Alice",
		"SessionCount": "10",
	})

	if len(store.entries) != 1 {
		t.Fatalf("expected 1 parked entry, got %d", len(store.entries))
	}
	entry := store.entries["id-001"]
	if entry.Kind != outbox.KindPassRenewed {
		t.Errorf("expected pass_renewed kind, got %s", entry.Kind)
	}
	if entry.Status != outbox.StatusPending {
		t.Errorf("expected pending status, got %s", entry.Status)
	}
	if entry.Attempts != 1 {
		t.Errorf("expected 1 attempt recorded, got %d", entry.Attempts)
	}
	if entry.LastError == "" {
		t.Error("expected the send error recorded")
	}
}

// TestOutboxNotifier_UnknownKind tests that an unknown kind is dropped
// without sending or parking.
func TestOutboxNotifier_UnknownKind(t *testing.T) {
	store := newMockOutboxStore()
	sender := &mockSender{}
	n := newTestNotifier(store, sender)

	n.Notify(context.Background(), "carrier_pigeon", "alice@example.com", nil)

	if len(sender.sent) != 0 {
		t.Errorf("expected no sends, got %d", len(sender.sent))
	}
	if len(store.entries) != 0 {
		t.Errorf("expected no outbox entries, got %d", len(store.entries))
	}
}

// TestRenderNotification_MissingKeys tests that absent template keys
// render as empty strings rather than erroring.
func TestRenderNotification_MissingKeys(t *testing.T) {
	subject, html, err := renderNotification(outbox.KindBookingCancelled, map[string]string{
		"CustomerName": "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(subject, "Booking cancelled") {
		t.Errorf("unexpected subject: %q", subject)
	}
	if strings.Contains(html, "<no value>") {
		t.Errorf("expected missing keys to render empty, got %q", html)
	}
}
