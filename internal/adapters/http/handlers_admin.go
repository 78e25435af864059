package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"villagefit/internal/adapters/http/middleware"
	customerStore "villagefit/internal/adapters/storage/customer"
	outboxStore "villagefit/internal/adapters/storage/outbox"
	"villagefit/internal/application/orchestrators"
	"villagefit/internal/application/projections"
	"villagefit/internal/domain/outbox"
)

// requireStaff rejects requests without an admin or coordinator
// session. Returns false when the response has already been written.
func requireStaff(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := middleware.GetSessionFromContext(r.Context()); !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return false
	}
	if !middleware.IsStaff(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// requireAdmin rejects requests without an admin session.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := middleware.GetSessionFromContext(r.Context()); !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return false
	}
	if !middleware.IsAdmin(r.Context()) {
		http.Error(w, "admin required", http.StatusForbidden)
		return false
	}
	return true
}

// handleAdminClasses creates classes.
// Route: POST /api/admin/classes (repeatWeeks > 1 creates a series)
func handleAdminClasses(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Title       string    `json:"title"`
		Start       time.Time `json:"start"`
		End         time.Time `json:"end"`
		Capacity    int       `json:"capacity"`
		Location    string    `json:"location"`
		RepeatWeeks int       `json:"repeatWeeks"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := orchestrators.CreateClassInput{
		Title:    req.Title,
		Start:    req.Start,
		End:      req.End,
		Capacity: req.Capacity,
		Location: req.Location,
	}
	deps := orchestrators.CreateClassDeps{ClassStore: stores.ClassStore, GenerateID: generateID}

	if req.RepeatWeeks > 1 {
		occurrences, err := orchestrators.ExecuteCreateRecurringSeries(r.Context(), orchestrators.CreateRecurringSeriesInput{
			CreateClassInput: input,
			RepeatWeeks:      req.RepeatWeeks,
		}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		ids := make([]string, 0, len(occurrences))
		for _, occ := range occurrences {
			ids = append(ids, occ.ID)
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"seriesId": occurrences[0].SeriesID,
			"classIds": ids,
		})
		return
	}

	c, err := orchestrators.ExecuteCreateClass(r.Context(), input, deps)
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"classId": c.ID})
}

// handleAdminClassByID updates or cancels one class, or its series.
// Routes:
//
//	PATCH /api/admin/classes/:id?scope=series
//	POST  /api/admin/classes/:id/cancel?scope=series
func handleAdminClassByID(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/classes/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "class id required", http.StatusBadRequest)
		return
	}
	classID := parts[0]
	seriesScope := r.URL.Query().Get("scope") == "series"

	switch {
	case r.Method == http.MethodPatch && len(parts) == 1:
		handleUpdateClass(w, r, classID, seriesScope)
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel":
		handleCancelClass(w, r, classID, seriesScope)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func handleUpdateClass(w http.ResponseWriter, r *http.Request, classID string, seriesScope bool) {
	var req struct {
		Title    *string    `json:"title"`
		Start    *time.Time `json:"start"`
		End      *time.Time `json:"end"`
		Capacity *int       `json:"capacity"`
		Location *string    `json:"location"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	patch := orchestrators.ClassPatch{
		Title:    req.Title,
		Start:    req.Start,
		End:      req.End,
		Capacity: req.Capacity,
		Location: req.Location,
	}
	deps := orchestrators.UpdateClassDeps{ClassStore: stores.ClassStore}

	if seriesScope {
		result, err := orchestrators.ExecuteUpdateSeries(r.Context(), orchestrators.UpdateSeriesInput{
			ReferenceID: classID,
			Patch:       patch,
		}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"updated": result.Updated})
		return
	}

	c, err := orchestrators.ExecuteUpdateOccurrence(r.Context(), orchestrators.UpdateOccurrenceInput{
		ClassID: classID,
		Patch:   patch,
	}, deps)
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"classId": c.ID})
}

func handleCancelClass(w http.ResponseWriter, r *http.Request, classID string, seriesScope bool) {
	deps := orchestrators.CancelClassDeps{
		ClassStore:   stores.ClassStore,
		BookingStore: stores.BookingStore,
		Notifier:     notifier(),
		Now:          timeNow,
	}

	if seriesScope {
		result, err := orchestrators.ExecuteCancelSeries(r.Context(), orchestrators.CancelSeriesInput{ReferenceID: classID}, deps)
		if err != nil {
			domainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"classesCancelled":  result.ClassesCancelled,
			"bookingsCancelled": result.BookingsCancelled,
		})
		return
	}

	result, err := orchestrators.ExecuteCancelOccurrence(r.Context(), orchestrators.CancelOccurrenceInput{ClassID: classID}, deps)
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"bookingsCancelled": result.BookingsCancelled})
}

// handleAdminBookingByID marks attendance on a booking.
// Route: POST /api/admin/bookings/:id/attendance
func handleAdminBookingByID(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/bookings/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if r.Method != http.MethodPost || len(parts) != 2 || parts[1] != "attendance" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteMarkAttendance(r.Context(), orchestrators.MarkAttendanceInput{
		BookingID: parts[0],
		Status:    req.Status,
	}, orchestrators.MarkAttendanceDeps{
		BookingStore:  stores.BookingStore,
		ClassStore:    stores.ClassStore,
		CustomerStore: stores.CustomerStore,
		PassStore:     stores.PassStore,
		GenerateID:    generateID,
		Now:           timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attendance":      result.Booking.AttendanceStatus,
		"sessionConsumed": result.SessionConsumed,
		"sessionRestored": result.SessionRestored,
	})
}

// handleAdminCustomers lists customers for the front desk.
// Route: GET /api/admin/customers
func handleAdminCustomers(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	customers, err := stores.CustomerStore.List(r.Context(), customerStore.ListFilter{Limit: limit})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// handleAdminCustomerByID renews a customer's session pass.
// Route: POST /api/admin/customers/:id/pass
func handleAdminCustomerByID(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/customers/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if r.Method != http.MethodPost || len(parts) != 2 || parts[1] != "pass" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req struct {
		SessionCount int `json:"sessionCount"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecutePurchasePass(r.Context(), orchestrators.PurchasePassInput{
		CustomerID:   parts[0],
		SessionCount: req.SessionCount,
	}, orchestrators.PurchasePassDeps{
		CustomerStore: stores.CustomerStore,
		PassStore:     stores.PassStore,
		Notifier:      notifier(),
		Now:           timeNow,
	})
	if err != nil {
		domainError(w, err)
		return
	}

	resp := map[string]any{
		"passRemaining": result.Customer.PassRemaining,
		"passTotal":     result.Customer.PassTotal,
	}
	if result.Archived != nil {
		resp["archivedSessions"] = result.Archived.SessionsCount
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAdminPassAlerts lists renewal prompts.
// Route: GET /api/admin/pass-alerts
func handleAdminPassAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	result, err := projections.QueryListPassAlerts(r.Context(), projections.ListPassAlertsDeps{CustomerStore: stores.CustomerStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAdminOutbox lists parked notifications.
// Route: GET /api/admin/outbox?status=
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var entries []outbox.Entry
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		entries, err = stores.OutboxStore.List(r.Context(), outboxStore.ListFilter{Status: status, Limit: limit})
	} else {
		entries, err = stores.OutboxStore.ListPending(r.Context(), limit)
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAdminOutboxRetry re-sends parked notifications.
// Route: POST /api/admin/outbox/retry
func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if emailSender == nil {
		http.Error(w, "no email sender configured", http.StatusServiceUnavailable)
		return
	}

	result, err := orchestrators.ExecuteRetryOutbox(r.Context(), orchestrators.RetryOutboxDeps{
		OutboxStore: stores.OutboxStore,
		Sender:      emailSender,
		From:        emailFromAddress,
		ReplyTo:     emailReplyTo,
		Now:         timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
