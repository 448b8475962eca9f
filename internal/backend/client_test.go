package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebook/internal/pricing"
)

func TestListWorkItems_NormalizesPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/services/7/work-items", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		// Mixed price encodings, as seen from real backend versions.
		w.Write([]byte(`{"items":[
			{"id":1,"name":"Aircon cleaning","price":"1500.00"},
			{"id":2,"name":"Freon top-up","price":250.5}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	items, err := client.ListWorkItems(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1500_00), items[0].UnitPrice.Centavos())
	assert.Equal(t, int64(250_50), items[1].UnitPrice.Centavos())
}

func TestListWorkItems_MalformedPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":1,"name":"x","price":"N/A"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.ListWorkItems(context.Background(), 1)
	var perr *pricing.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "price", perr.Field)
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "auth",
			status: http.StatusUnauthorized,
			body:   `{"error":"token expired"}`,
			check: func(t *testing.T, err error) {
				var aerr *AuthError
				require.ErrorAs(t, err, &aerr)
				assert.Equal(t, http.StatusUnauthorized, aerr.Status)
			},
		},
		{
			name:   "conflict echoes slot",
			status: http.StatusConflict,
			body:   `{"error":"slot taken","date":"2026-05-01","time":"10:00"}`,
			check: func(t *testing.T, err error) {
				var cerr *ConflictError
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, "2026-05-01", cerr.Date)
				assert.Equal(t, "10:00", cerr.Time)
			},
		},
		{
			name:   "field validation",
			status: http.StatusUnprocessableEntity,
			body:   `{"error":"invalid","fields":{"date":"required"}}`,
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "required", verr.Fields["date"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "")
			_, err := client.CreateBooking(context.Background(), "tok", BookingRequest{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCreateBooking_SendsIdempotencyKeyAndToken(t *testing.T) {
	var gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"booking_id":42,"status":"scheduled"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	conf, err := client.CreateBooking(context.Background(), "tok123", BookingRequest{
		ServiceID: 7, Date: "2026-05-01", Time: "10:00",
		SelectedItemIDs: []int64{1, 2}, ComputedTotal: "350.00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), conf.BookingID)
	assert.NotEmpty(t, gotKey)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestCancelBooking_Idempotent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		if calls == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Second cancel: backend reports already cancelled.
		w.WriteHeader(http.StatusGone)
		w.Write([]byte(`{"error":"already cancelled","code":"already_cancelled"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	assert.NoError(t, client.CancelBooking(context.Background(), "tok", 42))
	assert.NoError(t, client.CancelBooking(context.Background(), "tok", 42))
	assert.Equal(t, 2, calls)
}

func TestListServices_RedisCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"services":[{"id":1,"name":"Aircon"}]}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := NewClient(srv.URL, "")
	client.UseRedisCache(rdb, time.Minute)

	for i := 0; i < 3; i++ {
		services, err := client.ListServices(context.Background())
		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "Aircon", services[0].Name)
	}
	assert.Equal(t, 1, hits, "second and third calls should come from cache")
}

func TestTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")
	client.httpClient.Timeout = 200 * time.Millisecond

	_, err := client.ListServices(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
}

func TestBookingDTOParse(t *testing.T) {
	dto := bookingDTO{
		ID: 5, ServiceID: 7, ServiceName: "Aircon",
		Date: "2026-05-01", Time: "10:30",
		Status: "scheduled", IsEditable: true,
		Price: []byte(`"350.00"`),
	}
	b, err := dto.parse()
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", b.Date.String())
	assert.Equal(t, "10:30", b.Time.String())
	assert.Equal(t, StatusScheduled, b.Status)
	assert.Equal(t, int64(350_00), b.PriceAtBooking.Centavos())

	dto.Date = "01/05/2026"
	_, err = dto.parse()
	var perr *pricing.ParseError
	require.ErrorAs(t, err, &perr)
}
