// Package backend is the HTTP client for the remote booking API. All
// authority over services, bookings and users lives there; this side
// validates, forwards and decodes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Client is a simple HTTP client for the booking backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	limiter *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with baseURL and service API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(20), 30),
	}
}

// UseRedisCache configures optional Redis caching for catalog GETs.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// SetRateLimit overrides the outbound request pacing.
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// ListServices returns the bookable service catalog.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	endpoint := fmt.Sprintf("%s/api/v1/services", c.baseURL)
	cacheKey := "services"
	var wrap struct {
		Services []serviceDTO `json:"services"`
	}

	if !c.readCache(ctx, cacheKey, &wrap) {
		if err := c.doGet(ctx, endpoint, "", &wrap); err != nil {
			return nil, err
		}
		c.writeCache(ctx, cacheKey, wrap)
	}

	services := make([]Service, 0, len(wrap.Services))
	for _, dto := range wrap.Services {
		services = append(services, Service(dto))
	}
	return services, nil
}

// ListWorkItems fetches the priced work item catalog for a service and
// normalizes its stringly-typed price fields.
func (c *Client) ListWorkItems(ctx context.Context, serviceID int64) ([]WorkItem, error) {
	endpoint := fmt.Sprintf("%s/api/v1/services/%d/work-items", c.baseURL, serviceID)
	cacheKey := fmt.Sprintf("work-items:%d", serviceID)
	var wrap struct {
		Items []workItemDTO `json:"items"`
	}

	if !c.readCache(ctx, cacheKey, &wrap) {
		if err := c.doGet(ctx, endpoint, "", &wrap); err != nil {
			return nil, err
		}
		c.writeCache(ctx, cacheKey, wrap)
	}

	items := make([]WorkItem, 0, len(wrap.Items))
	for _, dto := range wrap.Items {
		item, err := dto.parse()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ListBookings returns the authenticated user's bookings.
func (c *Client) ListBookings(ctx context.Context, token string) ([]Booking, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings", c.baseURL)
	var wrap struct {
		Bookings []bookingDTO `json:"bookings"`
	}
	if err := c.doGet(ctx, endpoint, token, &wrap); err != nil {
		return nil, err
	}

	bookings := make([]Booking, 0, len(wrap.Bookings))
	for _, dto := range wrap.Bookings {
		b, err := dto.parse()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// BookingRequest is the submission shape shared by create and reschedule.
type BookingRequest struct {
	ServiceID       int64   `json:"service_id"`
	Date            string  `json:"date"` // YYYY-MM-DD
	Time            string  `json:"time"` // HH:MM
	SelectedItemIDs []int64 `json:"selected_item_ids"`
	ComputedTotal   string  `json:"computed_total"`
}

// Confirmation is the backend's acknowledgement of a booking submission.
type Confirmation struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
}

// CreateBooking submits a new booking. Each call carries a fresh idempotency
// key so transport retries cannot double-book.
func (c *Client) CreateBooking(ctx context.Context, token string, req BookingRequest) (*Confirmation, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings", c.baseURL)
	var conf Confirmation
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, token, headers, req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// RescheduleBooking partially updates an existing booking.
func (c *Client) RescheduleBooking(ctx context.Context, token string, bookingID int64, req BookingRequest) (*Confirmation, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings/%d", c.baseURL, bookingID)
	var conf Confirmation
	if err := c.doJSON(ctx, http.MethodPatch, endpoint, token, nil, req, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// CancelBooking deletes a booking. Cancelling an already-cancelled booking
// is success from the caller's perspective.
func (c *Client) CancelBooking(ctx context.Context, token string, bookingID int64) error {
	endpoint := fmt.Sprintf("%s/api/v1/bookings/%d", c.baseURL, bookingID)
	err := c.doJSON(ctx, http.MethodDelete, endpoint, token, nil, nil, nil)
	if errors.Is(err, ErrAlreadyCancelled) {
		return nil
	}
	return err
}

// HealthCheck checks if the backend is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/healthz", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, cacheKey(key)).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cacheKey(key), data, c.cacheTTL).Err()
}

func cacheKey(key string) string {
	return "homebook:" + key
}

func (c *Client) doGet(ctx context.Context, endpoint, token string, out any) error {
	return c.doJSON(ctx, http.MethodGet, endpoint, token, nil, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint, token string, headers map[string]string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Err: err}
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiErrorBody is the backend's structured error envelope.
type apiErrorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Date   string            `json:"date,omitempty"`
	Time   string            `json:"time,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func decodeAPIError(resp *http.Response) error {
	var body apiErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode}
	case http.StatusConflict:
		return &ConflictError{Date: body.Date, Time: body.Time}
	case http.StatusUnprocessableEntity:
		return &ValidationError{Fields: body.Fields}
	case http.StatusGone, http.StatusNotFound:
		if body.Code == "already_cancelled" || resp.StatusCode == http.StatusGone {
			return ErrAlreadyCancelled
		}
	}
	if body.Error != "" {
		return fmt.Errorf("backend http %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("backend http %d", resp.StatusCode)
}
