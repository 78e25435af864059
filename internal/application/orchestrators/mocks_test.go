package orchestrators

import (
	"context"
	"fmt"
	"sort"
	"time"

	accountDomain "villagefit/internal/domain/account"
	bookingDomain "villagefit/internal/domain/booking"
	"villagefit/internal/domain/class"
	customerDomain "villagefit/internal/domain/customer"
	"villagefit/internal/domain/sessionpass"
)

var fixedTime = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// seqID returns a generator producing id-001, id-002, ...
func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

// mockClassStore implements the class store interfaces used by the
// orchestrators, backed by a map.
type mockClassStore struct {
	classes map[string]class.Class
}

func newMockClassStore() *mockClassStore {
	return &mockClassStore{classes: make(map[string]class.Class)}
}

func (m *mockClassStore) GetByID(_ context.Context, id string) (class.Class, error) {
	c, ok := m.classes[id]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	return c, nil
}

func (m *mockClassStore) Save(_ context.Context, c class.Class) error {
	m.classes[c.ID] = c
	return nil
}

func (m *mockClassStore) ListScheduledBySeriesSince(_ context.Context, seriesID string, since time.Time) ([]class.Class, error) {
	var out []class.Class
	for _, c := range m.classes {
		if c.SeriesID == seriesID && c.Status == class.StatusScheduled && !c.Start.Before(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// mockBookingStore implements the booking store interfaces used by the
// orchestrators, with the capacity and duplicate checks the real store
// runs inside its insert transaction.
type mockBookingStore struct {
	bookings map[string]bookingDomain.Booking
}

func newMockBookingStore() *mockBookingStore {
	return &mockBookingStore{bookings: make(map[string]bookingDomain.Booking)}
}

func (m *mockBookingStore) GetByID(_ context.Context, id string) (bookingDomain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return bookingDomain.Booking{}, bookingDomain.ErrNotFound
	}
	return b, nil
}

func (m *mockBookingStore) GetByToken(_ context.Context, token string) (bookingDomain.Booking, error) {
	for _, b := range m.bookings {
		if b.CancelToken == token {
			return b, nil
		}
	}
	return bookingDomain.Booking{}, bookingDomain.ErrNotFound
}

func (m *mockBookingStore) Save(_ context.Context, b bookingDomain.Booking) error {
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingStore) CreateActive(_ context.Context, b bookingDomain.Booking, capacity int) error {
	active := 0
	for _, existing := range m.bookings {
		if existing.ClassID != b.ClassID || existing.Status != bookingDomain.StatusActive {
			continue
		}
		if existing.CustomerEmail == b.CustomerEmail {
			return bookingDomain.ErrAlreadyBooked
		}
		active++
	}
	if active >= capacity {
		return bookingDomain.ErrClassFull
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *mockBookingStore) ListActiveByClassID(_ context.Context, classID string) ([]bookingDomain.Booking, error) {
	var out []bookingDomain.Booking
	for _, b := range m.bookings {
		if b.ClassID == classID && b.Status == bookingDomain.StatusActive {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockBookingStore) CancelActiveByClassID(_ context.Context, classID string, cancelledAt time.Time) (int, error) {
	count := 0
	for id, b := range m.bookings {
		if b.ClassID == classID && b.Status == bookingDomain.StatusActive {
			b.Status = bookingDomain.StatusCancelled
			b.CancelledAt = cancelledAt
			m.bookings[id] = b
			count++
		}
	}
	return count, nil
}

// mockCustomerStore implements the customer store interfaces, backed by
// maps keyed on ID and email.
type mockCustomerStore struct {
	customers map[string]customerDomain.Customer
}

func newMockCustomerStore() *mockCustomerStore {
	return &mockCustomerStore{customers: make(map[string]customerDomain.Customer)}
}

func (m *mockCustomerStore) GetByID(_ context.Context, id string) (customerDomain.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return customerDomain.Customer{}, customerDomain.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomerStore) GetByEmail(_ context.Context, email string) (customerDomain.Customer, error) {
	for _, c := range m.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return customerDomain.Customer{}, customerDomain.ErrNotFound
}

func (m *mockCustomerStore) Save(_ context.Context, c customerDomain.Customer) error {
	m.customers[c.ID] = c
	return nil
}

// mockPassStore mirrors the real session pass store's transactional
// semantics over in-memory maps: history keyed by booking ID, customer
// counters mutated through the shared customer map.
type mockPassStore struct {
	customers *mockCustomerStore
	history   map[string]sessionpass.HistoryEntry // keyed by booking ID
	archived  []sessionpass.CompletedPass
}

func newMockPassStore(customers *mockCustomerStore) *mockPassStore {
	return &mockPassStore{
		customers: customers,
		history:   make(map[string]sessionpass.HistoryEntry),
	}
}

func (m *mockPassStore) ConsumeSession(_ context.Context, entry sessionpass.HistoryEntry) (bool, error) {
	if _, ok := m.history[entry.BookingID]; ok {
		return false, nil
	}
	cust, ok := m.customers.customers[entry.CustomerID]
	if !ok {
		return false, customerDomain.ErrNotFound
	}
	if cust.PassRemaining <= 0 {
		return false, customerDomain.ErrNoSessionsRemaining
	}
	cust.PassRemaining--
	m.customers.customers[cust.ID] = cust
	entry.SessionNumber = cust.PassTotal - cust.PassRemaining
	m.history[entry.BookingID] = entry
	return true, nil
}

func (m *mockPassStore) RestoreSession(_ context.Context, bookingID string) (bool, error) {
	entry, ok := m.history[bookingID]
	if !ok {
		return false, nil
	}
	cust, ok := m.customers.customers[entry.CustomerID]
	if !ok {
		return false, customerDomain.ErrNotFound
	}
	cust.PassRemaining++
	m.customers.customers[cust.ID] = cust
	delete(m.history, bookingID)
	return true, nil
}

func (m *mockPassStore) ArchiveAndReset(_ context.Context, customerID string, sessionCount int, now time.Time) (*sessionpass.CompletedPass, error) {
	cust, ok := m.customers.customers[customerID]
	if !ok {
		return nil, customerDomain.ErrNotFound
	}

	var archived *sessionpass.CompletedPass
	var entries []sessionpass.HistoryEntry
	for _, e := range m.history {
		if e.CustomerID == customerID {
			entries = append(entries, e)
		}
	}
	if len(entries) > 0 && !cust.PassPurchasedAt.IsZero() {
		sort.Slice(entries, func(i, j int) bool { return entries[i].SessionNumber < entries[j].SessionNumber })
		pass := sessionpass.CompletedPass{
			ID:            fmt.Sprintf("pass-%d", len(m.archived)+1),
			CustomerID:    customerID,
			PurchasedAt:   cust.PassPurchasedAt,
			CompletedAt:   now,
			SessionsCount: len(entries),
		}
		for _, e := range entries {
			pass.Sessions = append(pass.Sessions, sessionpass.CompletedSession{
				SessionNumber: e.SessionNumber,
				ClassTitle:    e.ClassTitle,
				AttendedAt:    e.AttendedAt,
			})
			delete(m.history, e.BookingID)
		}
		m.archived = append(m.archived, pass)
		archived = &pass
	}

	cust.PassRemaining = sessionCount
	cust.PassTotal = sessionCount
	cust.PassPurchasedAt = now
	m.customers.customers[cust.ID] = cust
	return archived, nil
}

// mockAccountStore implements AccountStore over a map keyed on email.
type mockAccountStore struct {
	accounts map[string]accountDomain.Account
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[string]accountDomain.Account)}
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (accountDomain.Account, error) {
	a, ok := m.accounts[email]
	if !ok {
		return accountDomain.Account{}, fmt.Errorf("account not found")
	}
	return a, nil
}

func (m *mockAccountStore) Save(_ context.Context, a accountDomain.Account) error {
	m.accounts[a.Email] = a
	return nil
}

// recordedNotification captures one Notify call.
type recordedNotification struct {
	Kind      string
	Recipient string
	Data      map[string]string
}

// mockNotifier records notifications instead of sending them.
type mockNotifier struct {
	sent []recordedNotification
}

func (m *mockNotifier) Notify(_ context.Context, kind string, recipient string, data map[string]string) {
	m.sent = append(m.sent, recordedNotification{Kind: kind, Recipient: recipient, Data: data})
}
