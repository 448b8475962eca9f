package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebook/internal/backend"
	"homebook/internal/clock"
	"homebook/internal/notifications"
	"homebook/internal/pricing"
	"homebook/internal/timewindow"
)

// fakeBackend implements BackendAPI with canned data.
type fakeBackend struct {
	services  []backend.Service
	items     []backend.WorkItem
	bookings  []backend.Booking
	conf      *backend.Confirmation
	submitErr error
	cancelled []int64
}

func (f *fakeBackend) ListServices(ctx context.Context) ([]backend.Service, error) {
	return f.services, nil
}

func (f *fakeBackend) ListWorkItems(ctx context.Context, serviceID int64) ([]backend.WorkItem, error) {
	return f.items, nil
}

func (f *fakeBackend) ListBookings(ctx context.Context, token string) ([]backend.Booking, error) {
	return f.bookings, nil
}

func (f *fakeBackend) CreateBooking(ctx context.Context, token string, req backend.BookingRequest) (*backend.Confirmation, error) {
	return f.conf, f.submitErr
}

func (f *fakeBackend) RescheduleBooking(ctx context.Context, token string, bookingID int64, req backend.BookingRequest) (*backend.Confirmation, error) {
	return f.conf, f.submitErr
}

func (f *fakeBackend) CancelBooking(ctx context.Context, token string, bookingID int64) error {
	f.cancelled = append(f.cancelled, bookingID)
	return nil
}

func (f *fakeBackend) HealthCheck(ctx context.Context) error {
	return nil
}

func money(t *testing.T, centavos int64) pricing.Money {
	t.Helper()
	m, err := pricing.NewMoney(centavos)
	require.NoError(t, err)
	return m
}

func newTestServer(t *testing.T, api *fakeBackend) *Server {
	t.Helper()
	loc, err := timewindow.BusinessLocation()
	require.NoError(t, err)
	clk := &clock.Fake{Current: time.Date(2026, time.April, 14, 10, 0, 0, 0, loc)}

	viewed, err := notifications.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { viewed.Close() })

	return New(api, clk, time.Minute, viewed, zerolog.Nop())
}

func defaultBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		services: []backend.Service{{ID: 7, Name: "Aircon cleaning"}},
		items: []backend.WorkItem{
			{ID: 1, Name: "Split unit", UnitPrice: money(t, 100_00)},
			{ID: 2, Name: "Window unit", UnitPrice: money(t, 250_00)},
		},
		conf: &backend.Confirmation{BookingID: 42, Status: "scheduled"},
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestDraftFlow_CreateToConfirmation(t *testing.T) {
	srv := newTestServer(t, defaultBackend(t))
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/drafts", map[string]any{"service_id": 7})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	draftID := created["draft_id"].(string)
	require.NotEmpty(t, draftID)
	assert.Equal(t, "empty", created["draft"].(map[string]any)["state"])

	rec = doJSON(t, router, http.MethodPatch, "/api/drafts/"+draftID, map[string]any{
		"date": "2026-04-15", "time": "10:00",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)["draft"].(map[string]any)
	assert.Equal(t, "partial", view["state"])
	assert.Equal(t, false, view["can_submit"])

	for _, item := range []int64{1, 2} {
		rec = doJSON(t, router, http.MethodPatch, "/api/drafts/"+draftID, map[string]any{"toggle_item": item})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	view = decode(t, rec)["draft"].(map[string]any)
	assert.Equal(t, "ready", view["state"])
	assert.Equal(t, true, view["can_submit"])
	assert.Equal(t, "350.00", view["total"])

	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+draftID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	conf := decode(t, rec)["confirmation"].(map[string]any)
	assert.EqualValues(t, 42, conf["booking_id"])

	// The session is closed after a successful submit.
	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+draftID+"/submit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftFlow_OutsideWindowBlocked(t *testing.T) {
	srv := newTestServer(t, defaultBackend(t))
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/drafts", map[string]any{"service_id": 7})
	draftID := decode(t, rec)["draft_id"].(string)

	rec = doJSON(t, router, http.MethodPatch, "/api/drafts/"+draftID, map[string]any{
		"date": "2026-04-15", "time": "20:00", "toggle_item": 1,
	})
	view := decode(t, rec)["draft"].(map[string]any)
	assert.Equal(t, "partial", view["state"])
	assert.Equal(t, false, view["can_submit"])
	assert.Contains(t, view["reason"], "not bookable")

	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+draftID+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDraftFlow_ConflictSurfacesSlot(t *testing.T) {
	api := defaultBackend(t)
	api.conf = nil
	api.submitErr = &backend.ConflictError{Date: "2026-04-15", Time: "10:00"}
	srv := newTestServer(t, api)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/drafts", map[string]any{"service_id": 7})
	draftID := decode(t, rec)["draft_id"].(string)
	doJSON(t, router, http.MethodPatch, "/api/drafts/"+draftID, map[string]any{
		"date": "2026-04-15", "time": "10:00", "toggle_item": 1,
	})

	rec = doJSON(t, router, http.MethodPost, "/api/drafts/"+draftID+"/submit", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "2026-04-15", body["date"])
	assert.Equal(t, "10:00", body["time"])
}

func TestRescheduleDraft_NotEditable(t *testing.T) {
	api := defaultBackend(t)
	api.bookings = []backend.Booking{{
		ID: 5, ServiceID: 7,
		Date:   timewindow.CalendarDate{Year: 2026, Month: time.April, Day: 20},
		Time:   timewindow.TimeOfDay{Hour: 11},
		Status: backend.StatusCompleted,
	}}
	srv := newTestServer(t, api)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/drafts", map[string]any{
		"service_id": 7, "booking_id": 5,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRescheduleDraft_SeededFromBooking(t *testing.T) {
	api := defaultBackend(t)
	api.bookings = []backend.Booking{{
		ID: 5, ServiceID: 7,
		Date:       timewindow.CalendarDate{Year: 2026, Month: time.April, Day: 20},
		Time:       timewindow.TimeOfDay{Hour: 11},
		Status:     backend.StatusScheduled,
		IsEditable: true,
	}}
	srv := newTestServer(t, api)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/drafts", map[string]any{
		"service_id": 7, "booking_id": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode(t, rec)["draft"].(map[string]any)
	// Date and time carried over; selection still empty.
	assert.Equal(t, "partial", view["state"])
}

func TestSlotsEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultBackend(t))
	router := srv.Router()

	// Same day as the fake clock (10:00): morning slots are no longer
	// eligible, afternoon ones are.
	rec := doJSON(t, router, http.MethodGet, "/api/slots?date=2026-04-14", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	slots := body["slots"].([]any)
	require.Len(t, slots, 21)
	first := slots[0].(map[string]any)
	assert.Equal(t, "09:00", first["time"])
	assert.Equal(t, "9:00 AM", first["label"])
	assert.Equal(t, false, first["eligible"])
	last := slots[20].(map[string]any)
	assert.Equal(t, "19:00", last["time"])
	assert.Equal(t, true, last["eligible"])

	countdown := body["countdown"].(map[string]any)
	assert.Equal(t, "remaining", countdown["kind"])
	assert.EqualValues(t, 9, countdown["hours"])

	rec = doJSON(t, router, http.MethodGet, "/api/slots?date=2026-04-15", nil)
	countdown = decode(t, rec)["countdown"].(map[string]any)
	assert.Equal(t, "different_day", countdown["kind"])

	rec = doJSON(t, router, http.MethodGet, "/api/slots?date=15-04-2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBooking(t *testing.T) {
	api := defaultBackend(t)
	srv := newTestServer(t, api)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodDelete, "/api/bookings/42", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{42}, api.cancelled)
}

func TestViewedNotifications(t *testing.T) {
	srv := newTestServer(t, defaultBackend(t))
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/notifications/viewed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["viewed_ids"])

	rec = doJSON(t, router, http.MethodPost, "/api/notifications/viewed", map[string]any{"booking_id": 9})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/notifications/viewed", nil)
	ids := decode(t, rec)["viewed_ids"].([]any)
	require.Len(t, ids, 1)
	assert.EqualValues(t, 9, ids[0])

	// Unauthenticated requests are rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/notifications/viewed", nil)
	anon := httptest.NewRecorder()
	router.ServeHTTP(anon, req)
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
}

func TestListWorkItemsEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultBackend(t))
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/services/7/work-items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "100.00", items[0].(map[string]any)["price"])
}
