package backend

import (
	"bytes"
	"encoding/json"

	"homebook/internal/pricing"
	"homebook/internal/timewindow"
)

// Service is a bookable home service from the catalog.
type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type serviceDTO Service

// WorkItem is a catalog line item with its price already normalized.
type WorkItem struct {
	ID        int64
	Name      string
	UnitPrice pricing.Money
}

// Pricer converts to the pricing package's catalog representation.
func (w WorkItem) Pricer() pricing.WorkItem {
	return pricing.WorkItem{ID: w.ID, Name: w.Name, UnitPrice: w.UnitPrice}
}

// workItemDTO matches the wire shape. The price field arrives as either a
// JSON number or a quoted string depending on backend version, so it is kept
// raw and normalized explicitly.
type workItemDTO struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

func (dto workItemDTO) parse() (WorkItem, error) {
	price, err := parseRawPrice(dto.Price)
	if err != nil {
		return WorkItem{}, err
	}
	return WorkItem{ID: dto.ID, Name: dto.Name, UnitPrice: price}, nil
}

// BookingStatus is the backend's lifecycle state for a booking.
type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusCompleted BookingStatus = "completed"
)

// Booking is a backend-owned booking, read-only on this side. It seeds
// reschedule drafts and countdown displays.
type Booking struct {
	ID             int64
	ServiceID      int64
	ServiceName    string
	Date           timewindow.CalendarDate
	Time           timewindow.TimeOfDay
	Status         BookingStatus
	IsEditable     bool
	PriceAtBooking pricing.Money
}

type bookingDTO struct {
	ID          int64           `json:"id"`
	ServiceID   int64           `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Date        string          `json:"date"`
	Time        string          `json:"time"`
	Status      string          `json:"status"`
	IsEditable  bool            `json:"is_editable"`
	Price       json.RawMessage `json:"price"`
}

func (dto bookingDTO) parse() (Booking, error) {
	date, err := timewindow.ParseCalendarDate(dto.Date)
	if err != nil {
		return Booking{}, &pricing.ParseError{Field: "date", Value: dto.Date, Reason: "not YYYY-MM-DD"}
	}
	tod, err := timewindow.ParseTimeOfDay(dto.Time)
	if err != nil {
		return Booking{}, &pricing.ParseError{Field: "time", Value: dto.Time, Reason: "not HH:MM"}
	}
	price, err := parseRawPrice(dto.Price)
	if err != nil {
		return Booking{}, err
	}
	return Booking{
		ID:             dto.ID,
		ServiceID:      dto.ServiceID,
		ServiceName:    dto.ServiceName,
		Date:           date,
		Time:           tod,
		Status:         BookingStatus(dto.Status),
		IsEditable:     dto.IsEditable,
		PriceAtBooking: price,
	}, nil
}

// parseRawPrice normalizes a raw JSON price that may be a number, a quoted
// string, or absent.
func parseRawPrice(raw json.RawMessage) (pricing.Money, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return pricing.Money{}, &pricing.ParseError{Field: "price", Value: string(raw), Reason: "missing"}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return pricing.Money{}, &pricing.ParseError{Field: "price", Value: string(raw), Reason: "malformed string"}
		}
		return pricing.ParseMoney(s)
	}
	return pricing.ParseMoney(string(raw))
}
