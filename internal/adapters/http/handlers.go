package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"villagefit/internal/adapters/http/middleware"
	"villagefit/internal/application/orchestrators"
	"villagefit/internal/application/projections"
	accountDomain "villagefit/internal/domain/account"
	bookingDomain "villagefit/internal/domain/booking"
	classDomain "villagefit/internal/domain/class"
	customerDomain "villagefit/internal/domain/customer"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

// domainError maps sentinel errors onto HTTP status codes. Unknown
// errors become a generic 500 without leaking detail.
func domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, classDomain.ErrNotFound),
		errors.Is(err, bookingDomain.ErrNotFound),
		errors.Is(err, customerDomain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, bookingDomain.ErrClassFull),
		errors.Is(err, bookingDomain.ErrAlreadyBooked),
		errors.Is(err, bookingDomain.ErrClassCancelledBooking),
		errors.Is(err, classDomain.ErrNotRecurring),
		errors.Is(err, customerDomain.ErrNoSessionsRemaining):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, accountDomain.ErrLocked):
		http.Error(w, err.Error(), http.StatusLocked)
	case errors.Is(err, classDomain.ErrEmptyTitle),
		errors.Is(err, classDomain.ErrInvalidCapacity),
		errors.Is(err, classDomain.ErrEmptyStart),
		errors.Is(err, classDomain.ErrEndBeforeStart),
		errors.Is(err, bookingDomain.ErrInvalidAttendance),
		errors.Is(err, customerDomain.ErrInvalidSessionCount),
		errors.Is(err, orchestrators.ErrEmptyCustomerName),
		errors.Is(err, orchestrators.ErrEmptyCustomerEmail):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		internalError(w, err)
	}
}

// notifier builds the outbox-backed notifier from the globals wired at
// startup. Returns nil when no sender is configured, which downgrades
// notifications to no-ops.
func notifier() orchestrators.Notifier {
	if emailSender == nil {
		return nil
	}
	return &orchestrators.OutboxNotifier{
		OutboxStore: stores.OutboxStore,
		Sender:      emailSender,
		From:        emailFromAddress,
		ReplyTo:     emailReplyTo,
		GenerateID:  generateID,
		Now:         timeNow,
	}
}

// handleTimetable serves the public timetable with live availability.
// Route: GET /api/timetable
func handleTimetable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := projections.QueryGetTimetable(r.Context(), projections.GetTimetableQuery{Now: timeNow()}, projections.GetTimetableDeps{
		ClassStore:   stores.ClassStore,
		BookingStore: stores.BookingStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	type entryResponse struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Start     time.Time `json:"start"`
		End       time.Time `json:"end"`
		Location  string    `json:"location,omitempty"`
		Capacity  int       `json:"capacity"`
		Booked    int       `json:"booked"`
		SpotsLeft int       `json:"spotsLeft"`
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.Class.ID,
			Title:     e.Class.Title,
			Start:     e.Class.Start,
			End:       e.Class.End,
			Location:  e.Class.Location,
			Capacity:  e.Class.Capacity,
			Booked:    e.Booked,
			SpotsLeft: e.SpotsLeft,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBookings creates a booking or lists bookings for an email.
// Routes: POST /api/bookings, GET /api/bookings?email=
func handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		handleCreateBooking(w, r)
	case http.MethodGet:
		handleListBookings(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClassID string `json:"classId"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Village string `json:"village"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteCreateBooking(r.Context(), orchestrators.CreateBookingInput{
		ClassID:       req.ClassID,
		CustomerName:  req.Name,
		CustomerEmail: req.Email,
		Village:       req.Village,
	}, orchestrators.CreateBookingDeps{
		ClassStore:    stores.ClassStore,
		BookingStore:  stores.BookingStore,
		CustomerStore: stores.CustomerStore,
		Notifier:      notifier(),
		BaseURL:       baseURL,
		GenerateID:    generateID,
		Now:           timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"bookingId":   result.Booking.ID,
		"cancelToken": result.Booking.CancelToken,
	})
}

func handleListBookings(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}
	joined, err := stores.BookingStore.ListJoinedByEmail(r.Context(), bookingDomain.NormalizeEmail(email))
	if err != nil {
		internalError(w, err)
		return
	}

	type bookingResponse struct {
		ID          string    `json:"id"`
		ClassTitle  string    `json:"classTitle"`
		ClassStart  time.Time `json:"classStart"`
		ClassStatus string    `json:"classStatus"`
		Status      string    `json:"status"`
		Attendance  string    `json:"attendance"`
	}
	out := make([]bookingResponse, 0, len(joined))
	for _, j := range joined {
		out = append(out, bookingResponse{
			ID:          j.Booking.ID,
			ClassTitle:  j.ClassTitle,
			ClassStart:  j.ClassStart,
			ClassStatus: j.ClassStatus,
			Status:      j.Booking.Status,
			Attendance:  j.Booking.AttendanceStatus,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCancelBooking cancels a booking by token from the email link.
// Route: POST /api/bookings/cancel/:token
func handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := strings.TrimPrefix(r.URL.Path, "/api/bookings/cancel/")
	if token == "" || strings.Contains(token, "/") {
		http.Error(w, "invalid cancel token", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteCancelBooking(r.Context(), orchestrators.CancelBookingInput{Token: token}, orchestrators.CancelBookingDeps{
		BookingStore: stores.BookingStore,
		ClassStore:   stores.ClassStore,
		Notifier:     notifier(),
		Now:          timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"bookingId": result.Booking.ID,
		"status":    result.Booking.Status,
	})
}

// handleLeaderboard serves the attendance leaderboard.
// Route: GET /api/leaderboard?limit=
func handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	entries, err := projections.QueryGetLeaderboard(r.Context(), projections.GetLeaderboardQuery{
		Limit: limit,
		Now:   timeNow(),
	}, projections.GetLeaderboardDeps{BookingStore: stores.BookingStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleCustomerStats serves one customer's attendance stats.
// Route: GET /api/stats?email=
func handleCustomerStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	result, err := projections.QueryGetCustomerStats(r.Context(), projections.GetCustomerStatsQuery{
		Email: email,
		Now:   timeNow(),
	}, projections.GetCustomerStatsDeps{
		BookingStore:  stores.BookingStore,
		CustomerStore: stores.CustomerStore,
		PassStore:     stores.PassStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	resp := map[string]any{
		"totalAttended": result.TotalAttended,
		"streakWeeks":   result.StreakWeeks,
		"favoriteClass": result.FavoriteClass,
	}
	if result.Ranked {
		resp["rank"] = result.Rank
	}
	if result.HasCustomer {
		resp["passRemaining"] = result.Customer.PassRemaining
		resp["passTotal"] = result.Customer.PassTotal
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogin authenticates a staff account and issues a session.
// Route: POST /api/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{AccountStore: stores.AccountStore, Now: timeNow})
	if err != nil {
		domainError(w, err)
		return
	}

	token, err := sessions.Create(result.Account.ID, result.Account.Email, result.Account.Role)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{
		"email": result.Account.Email,
		"role":  result.Account.Role,
	})
}

// handleLogout tears down the current session.
// Route: POST /api/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if token, ok := middleware.GetSessionToken(r); ok {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
