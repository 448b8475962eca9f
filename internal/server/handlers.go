package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"homebook/internal/backend"
	"homebook/internal/draft"
	"homebook/internal/export"
	"homebook/internal/metrics"
	"homebook/internal/pricing"
	"homebook/internal/timewindow"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	metrics.IncBackendCall("list_services")
	services, err := s.api.ListServices(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *Server) handleListWorkItems(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	metrics.IncBackendCall("list_work_items")
	items, err := s.api.ListWorkItems(r.Context(), serviceID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": workItemViews(items)})
}

type workItemView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func workItemViews(items []backend.WorkItem) []workItemView {
	views := make([]workItemView, 0, len(items))
	for _, item := range items {
		views = append(views, workItemView{ID: item.ID, Name: item.Name, Price: item.UnitPrice.String()})
	}
	return views
}

type slotView struct {
	Time     string `json:"time"`
	Label    string `json:"label"`
	Eligible bool   `json:"eligible"`
}

// handleSlots renders the allowed booking slots for a date, each flagged with
// whether it is currently actionable, plus the cutoff countdown for that day.
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	date, err := timewindow.ParseCalendarDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}

	now := s.clk.Now()
	loc := now.Location()

	var slots []slotView
	for _, slot := range timewindow.AllowedSlots() {
		slots = append(slots, slotView{
			Time:     slot.String(),
			Label:    slot.Format12Hour(),
			Eligible: timewindow.IsEligible(now, date.Instant(slot, loc)),
		})
	}

	// Classify the day against the cutoff using an in-window probe time, so
	// the screen can show "X h Y m left to book for today".
	probe := date.Instant(timewindow.TimeOfDay{Hour: 12}, loc)
	countdown := timewindow.TimeUntilCutoff(now, probe)

	writeJSON(w, http.StatusOK, map[string]any{
		"date":      date.String(),
		"slots":     slots,
		"countdown": countdownView(countdown),
	})
}

func countdownView(c timewindow.Countdown) map[string]any {
	view := map[string]any{"kind": string(c.Kind)}
	switch c.Kind {
	case timewindow.CountdownDifferentDay:
		view["within_window"] = c.WithinWindow
	case timewindow.CountdownRemaining:
		view["hours"] = c.Hours
		view["minutes"] = c.Minutes
		view["label"] = fmt.Sprintf("%dh %02dm until cutoff", c.Hours, c.Minutes)
	}
	return view
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncBackendCall("list_bookings")
	bookings, err := s.api.ListBookings(r.Context(), bearerToken(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookingViews(bookings)})
}

type bookingView struct {
	ID          int64  `json:"id"`
	ServiceID   int64  `json:"service_id"`
	ServiceName string `json:"service_name,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	TimeLabel   string `json:"time_label"`
	Status      string `json:"status"`
	IsEditable  bool   `json:"is_editable"`
	Price       string `json:"price"`
}

func bookingViews(bookings []backend.Booking) []bookingView {
	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, bookingView{
			ID:          b.ID,
			ServiceID:   b.ServiceID,
			ServiceName: b.ServiceName,
			Date:        b.Date.String(),
			Time:        b.Time.String(),
			TimeLabel:   b.Time.Format12Hour(),
			Status:      string(b.Status),
			IsEditable:  b.IsEditable,
			Price:       b.PriceAtBooking.String(),
		})
	}
	return views
}

func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.api.ListBookings(r.Context(), bearerToken(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := export.WriteBookingHistory(w, export.NewExcelizeWriter(), bookings); err != nil {
		s.logger.Error().Err(err).Msg("export bookings failed")
	}
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	if err := s.api.CancelBooking(r.Context(), bearerToken(r), bookingID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	metrics.IncCancellation()
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
}

type createDraftRequest struct {
	ServiceID int64 `json:"service_id"`
	BookingID int64 `json:"booking_id,omitempty"` // set when rescheduling
}

// handleCreateDraft opens an editing session: fetches the service's work
// item catalog and seeds a draft, from scratch or from an existing booking.
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	items, err := s.api.ListWorkItems(r.Context(), req.ServiceID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	catalog := make([]pricing.WorkItem, 0, len(items))
	for _, item := range items {
		catalog = append(catalog, item.Pricer())
	}

	var ctrl *draft.Controller
	if req.BookingID != 0 {
		seed, err := s.findEditableBooking(r, req.BookingID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		ctrl = draft.NewRescheduleController(*seed, catalog, s.api, s.clk)
	} else {
		ctrl = draft.NewController(req.ServiceID, catalog, s.api, s.clk)
	}

	id := uuid.NewString()
	s.sessions.Put(id, ctrl)

	writeJSON(w, http.StatusCreated, map[string]any{
		"draft_id": id,
		"items":    workItemViews(items),
		"draft":    s.draftView(ctrl),
	})
}

// errBookingNotEditable blocks reschedule drafts for bookings the backend
// marked read-only (completed, or legacy data outside the window).
var errBookingNotEditable = errors.New("booking cannot be rescheduled")

func (s *Server) findEditableBooking(r *http.Request, bookingID int64) (*backend.Booking, error) {
	bookings, err := s.api.ListBookings(r.Context(), bearerToken(r))
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == bookingID {
			if !bookings[i].IsEditable {
				return nil, errBookingNotEditable
			}
			return &bookings[i], nil
		}
	}
	return nil, errBookingNotEditable
}

type updateDraftRequest struct {
	Date       *string `json:"date,omitempty"`
	Time       *string `json:"time,omitempty"`
	ToggleItem *int64  `json:"toggle_item,omitempty"`
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(chi.URLParam(r, "draftID"))
	if session == nil {
		writeError(w, http.StatusNotFound, "draft not found or expired")
		return
	}

	var req updateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Date != nil {
		date, err := timewindow.ParseCalendarDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
		session.Draft.SetDate(date)
	}
	if req.Time != nil {
		tod, err := timewindow.ParseTimeOfDay(*req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid time; expected HH:MM")
			return
		}
		session.Draft.SetTime(tod)
	}
	if req.ToggleItem != nil {
		session.Draft.ToggleItem(*req.ToggleItem)
	}
	session.Touch()

	writeJSON(w, http.StatusOK, map[string]any{"draft": s.draftView(session.Draft)})
}

func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(chi.URLParam(r, "draftID"))
	if session == nil {
		writeError(w, http.StatusNotFound, "draft not found or expired")
		return
	}

	conf, err := session.Draft.Submit(r.Context(), bearerToken(r))
	if err != nil {
		metrics.IncSubmission("draft", "rejected")
		s.writeDomainError(w, err)
		return
	}
	metrics.IncSubmission("draft", "accepted")

	// Successful submits close the editing session.
	s.sessions.Delete(session.ID)
	writeJSON(w, http.StatusOK, map[string]any{"confirmation": conf})
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "draftID")
	if session := s.sessions.Get(id); session != nil {
		session.Draft.Reset()
	}
	s.sessions.Delete(id)
	writeJSON(w, http.StatusOK, map[string]any{"discarded": true})
}

func (s *Server) draftView(ctrl *draft.Controller) map[string]any {
	view := map[string]any{
		"state":      string(ctrl.State()),
		"total":      ctrl.Total().String(),
		"can_submit": ctrl.CanSubmit(),
	}
	if reason := ctrl.Reason(); reason != nil {
		view["reason"] = reason.Error()
	}
	if countdown, ok := ctrl.Countdown(); ok {
		view["countdown"] = countdownView(countdown)
	}
	return view
}

type markViewedRequest struct {
	BookingID int64 `json:"booking_id"`
}

func (s *Server) handleMarkViewed(w http.ResponseWriter, r *http.Request) {
	userID := bearerToken(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req markViewedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookingID == 0 {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.viewed.MarkViewed(r.Context(), userID, req.BookingID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"viewed": true})
}

func (s *Server) handleViewedList(w http.ResponseWriter, r *http.Request) {
	userID := bearerToken(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ids, err := s.viewed.ViewedIDs(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notifications")
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"viewed_ids": ids})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Every error is
// recovered here with a user-facing message; nothing propagates as a fault.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		verr  *draft.ValidationError
		werr  *draft.IneligibleWindowError
		aerr  *backend.AuthError
		cerr  *backend.ConflictError
		bverr *backend.ValidationError
		terr  *backend.TransportError
		perr  *pricing.ParseError
	)

	switch {
	case errors.As(err, &verr):
		metrics.IncGateRejection("validation")
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &werr):
		metrics.IncGateRejection("window")
		writeError(w, http.StatusUnprocessableEntity, werr.Error())
	case errors.Is(err, draft.ErrSubmitInFlight):
		writeError(w, http.StatusConflict, "submission already in progress")
	case errors.Is(err, errBookingNotEditable):
		writeError(w, http.StatusUnprocessableEntity, errBookingNotEditable.Error())
	case errors.As(err, &aerr):
		writeError(w, http.StatusUnauthorized, "please sign in again")
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "that slot was just taken",
			"date":  cerr.Date,
			"time":  cerr.Time,
		})
	case errors.As(err, &bverr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "the backend rejected the booking",
			"fields": bverr.Fields,
		})
	case errors.As(err, &terr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     "service temporarily unavailable, please retry",
			"retryable": true,
		})
	case errors.As(err, &perr):
		s.logger.Error().Err(err).Msg("malformed backend payload")
		writeError(w, http.StatusBadGateway, "received malformed data from the booking service")
	default:
		s.logger.Error().Err(err).Msg("unhandled storefront error")
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}
