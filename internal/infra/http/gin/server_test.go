package ginserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcauth "stayloop/internal/app/services/auth"
	svcbookings "stayloop/internal/app/services/bookings"
	svclistings "stayloop/internal/app/services/listings"
	"stayloop/internal/infra/config"
	"stayloop/internal/infra/obs"
	"stayloop/internal/infra/security"
	"stayloop/internal/infra/storage/memory"
)

var apiNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := security.TokenManager{Secret: []byte("test-secret"), TTL: time.Hour}

	users := memory.NewUserRepository()
	listings := memory.NewListingRepository()
	bookings := memory.NewBookingRepository()
	box := memory.NewOutbox()

	authService := &svcauth.Service{
		Users:     users,
		Passwords: security.BcryptHasher{Cost: 4},
		Tokens:    tokens,
	}
	listingService := &svclistings.Service{
		Listings: listings,
		Bookings: bookings,
		Users:    users,
		Outbox:   box,
	}
	bookingService := &svcbookings.Service{
		Bookings: bookings,
		Listings: listings,
		Users:    users,
		Outbox:   box,
		Clock:    func() time.Time { return apiNow },
	}

	srv := NewServer(
		config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{Logger: logger},
		obs.HealthHandlers{},
		Handlers{
			Auth:           AuthHandler{Service: authService, Logger: logger},
			Listing:        ListingHandler{Service: listingService, Logger: logger},
			Booking:        BookingHandler{Service: bookingService, Logger: logger},
			AuthMiddleware: AuthMiddleware{Tokens: tokens}.Handle,
		},
	)
	return &testAPI{handler: srv.Handler}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(t *testing.T, email string, wantToHost bool) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":        email,
		"first_name":   "Test",
		"last_name":    "User",
		"password":     "correct horse",
		"want_to_host": wantToHost,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (a *testAPI) createListing(t *testing.T, token string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/listings", token, map[string]any{
		"title":              "Sunny loft near the harbour",
		"description":        "Bright top-floor loft.",
		"property_type":      "loft",
		"room_type":          "entire_place",
		"address":            "12 Harbour St",
		"city":               "Lisbon",
		"country":            "Portugal",
		"guests":             4,
		"bedrooms":           2,
		"beds":               2,
		"bathrooms":          1,
		"base_nightly_cents": 15000,
		"cleaning_fee_cents": 2500,
		"min_nights":         1,
		"max_nights":         30,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func bookingBody(listingID string) map[string]any {
	return map[string]any{
		"listing_id":     listingID,
		"check_in":       "2026-06-10T00:00:00Z",
		"check_out":      "2026-06-13T00:00:00Z",
		"adults":         2,
		"payment_method": "credit_card",
	}
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	token := api.register(t, "ana@example.com", false)

	rec := api.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ana@example.com", me.Email)
	assert.Equal(t, "guest", me.Role)

	// Duplicate registration conflicts.
	rec = api.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      "ana@example.com",
		"first_name": "Ana",
		"last_name":  "Silva",
		"password":   "correct horse",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Bad credentials come back 401.
	rec = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "ana@example.com",
		"password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Anonymous profile reads are rejected.
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/api/v1/auth/me", "", nil).Code)
}

func TestListingCreationRequiresHostRole(t *testing.T) {
	api := newTestAPI(t)

	guestToken := api.register(t, "guest@example.com", false)
	rec := api.do(t, http.MethodPost, "/api/v1/listings", guestToken, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	hostToken := api.register(t, "host@example.com", true)
	listingID := api.createListing(t, hostToken)

	rec = api.do(t, http.MethodGet, "/api/v1/listings/"+listingID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBecomeHostUnlocksHostEndpoints(t *testing.T) {
	api := newTestAPI(t)

	token := api.register(t, "ana@example.com", false)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/api/v1/listings/host/mine", token, nil).Code)

	rec := api.do(t, http.MethodPost, "/api/v1/auth/become-host", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/v1/listings/host/mine", resp.Token, nil).Code)
}

func TestBookingFlow(t *testing.T) {
	api := newTestAPI(t)

	hostToken := api.register(t, "host@example.com", true)
	guestToken := api.register(t, "guest@example.com", false)
	listingID := api.createListing(t, hostToken)

	rec := api.do(t, http.MethodPost, "/api/v1/bookings", guestToken, bookingBody(listingID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booking struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Price  struct {
			Total struct {
				Amount int64 `json:"amount"`
			} `json:"total"`
		} `json:"price"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	assert.Equal(t, "pending", booking.Status)
	assert.Equal(t, int64(57400), booking.Price.Total.Amount)

	// The same dates cannot be booked twice.
	second := api.register(t, "other@example.com", false)
	rec = api.do(t, http.MethodPost, "/api/v1/bookings", second, bookingBody(listingID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Hosts cannot book their own listing.
	rec = api.do(t, http.MethodPost, "/api/v1/bookings", hostToken, bookingBody(listingID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Only the host may confirm.
	rec = api.do(t, http.MethodPut, "/api/v1/bookings/"+booking.ID+"/status", guestToken, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(t, http.MethodPut, "/api/v1/bookings/"+booking.ID+"/status", hostToken, map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Strangers cannot read the booking.
	stranger := api.register(t, "stranger@example.com", false)
	rec = api.do(t, http.MethodGet, "/api/v1/bookings/"+booking.ID, stranger, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/bookings", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = api.do(t, http.MethodGet, "/api/v1/bookings/host", hostToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBookingValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	hostToken := api.register(t, "host@example.com", true)
	guestToken := api.register(t, "guest@example.com", false)
	listingID := api.createListing(t, hostToken)

	// Inverted range is a 400.
	body := bookingBody(listingID)
	body["check_out"] = "2026-06-09T00:00:00Z"
	rec := api.do(t, http.MethodPost, "/api/v1/bookings", guestToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Too many guests conflict with capacity.
	body = bookingBody(listingID)
	body["adults"] = 6
	rec = api.do(t, http.MethodPost, "/api/v1/bookings", guestToken, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown listing is a 404.
	rec = api.do(t, http.MethodPost, "/api/v1/bookings", guestToken, bookingBody("lst-missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	api := newTestAPI(t)

	hostToken := api.register(t, "host@example.com", true)
	api.createListing(t, hostToken)

	rec := api.do(t, http.MethodGet, "/api/v1/listings?location=lisbon&guests=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Total)

	rec = api.do(t, http.MethodGet, "/api/v1/listings?location=porto", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 0, result.Total)
}
