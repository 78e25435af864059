package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"villagefit/internal/adapters/email"
	"villagefit/internal/adapters/http/middleware"
	accountStore "villagefit/internal/adapters/storage/account"
	bookingStore "villagefit/internal/adapters/storage/booking"
	classStore "villagefit/internal/adapters/storage/class"
	customerStore "villagefit/internal/adapters/storage/customer"
	outboxStore "villagefit/internal/adapters/storage/outbox"
	sessionPassStore "villagefit/internal/adapters/storage/sessionpass"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore  accountStore.Store
	ClassStore    classStore.Store
	BookingStore  bookingStore.Store
	CustomerStore customerStore.Store
	PassStore     sessionPassStore.Store
	OutboxStore   outboxStore.Store
}

// loadCSRFKey reads the CSRF secret from VILLAGEFIT_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("VILLAGEFIT_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("VILLAGEFIT_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("VILLAGEFIT_ENV") == "production" {
		log.Fatal("VILLAGEFIT_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set VILLAGEFIT_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string
var emailReplyTo string

// baseURL is the externally visible origin, used to build cancel
// links in notification emails.
var baseURL string

// SetEmailSender sets the global email sender for the application.
func SetEmailSender(sender email.Sender, from, replyTo string) {
	emailSender = sender
	emailFromAddress = from
	emailReplyTo = replyTo
}

// SetBaseURL sets the origin used in emailed links.
func SetBaseURL(url string) {
	baseURL = url
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores) http.Handler {
	stores = s
	sessions = middleware.NewSessionStore()

	mux := http.NewServeMux()
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Auth -> CSRF -> SecurityHeaders -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
	)
}

func registerRoutes(mux *http.ServeMux) {
	// Public surface: the timetable, bookings and stats.
	mux.HandleFunc("/api/timetable", handleTimetable)
	mux.HandleFunc("/api/bookings", handleBookings)
	mux.HandleFunc("/api/bookings/cancel/", handleCancelBooking)
	mux.HandleFunc("/api/leaderboard", handleLeaderboard)
	mux.HandleFunc("/api/stats", handleCustomerStats)

	// Staff authentication.
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)

	// Staff surface: class management, attendance desk, passes.
	mux.HandleFunc("/api/admin/classes", handleAdminClasses)
	mux.HandleFunc("/api/admin/classes/", handleAdminClassByID)
	mux.HandleFunc("/api/admin/bookings/", handleAdminBookingByID)
	mux.HandleFunc("/api/admin/customers", handleAdminCustomers)
	mux.HandleFunc("/api/admin/customers/", handleAdminCustomerByID)
	mux.HandleFunc("/api/admin/pass-alerts", handleAdminPassAlerts)
	mux.HandleFunc("/api/admin/outbox", handleAdminOutbox)
	mux.HandleFunc("/api/admin/outbox/retry", handleAdminOutboxRetry)
}
