package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/app/calendars"
	"villabook/internal/app/ledger"
	"villabook/internal/domain/shared/money"
	"villabook/internal/domain/villa"
	"villabook/internal/infra/config"
	"villabook/internal/infra/obs"
	"villabook/internal/infra/storage/memory"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	villas := memory.NewVillaRepository()
	require.NoError(t, villas.Save(context.Background(), &villa.Villa{
		ID:          "villa-1",
		HostID:      "host-1",
		Title:       "Cliffside",
		NightlyRate: money.Must(200_00, "USD"),
		CleaningFee: money.Must(50_00, "USD"),
		ServiceFee:  money.Must(30_00, "USD"),
		Taxes:       money.Must(20_00, "USD"),
		MinNights:   1,
		MaxNights:   30,
		MaxGuests:   6,
		Policy:      villa.PolicyModerate,
		InstantBook: true,
	}))
	factory := memory.Factory{
		VillaRepo:    villas,
		CalendarRepo: memory.NewCalendarRepository(),
		BookingRepo:  memory.NewBookingRepository(),
	}
	box := memory.NewOutbox()
	led := ledger.New(factory, box)
	led.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	cfg := config.Config{Env: "test", HTTPAddr: ":0", JWTSecret: testSecret}
	server := NewServer(cfg, obs.Middleware{}, Handlers{
		Auth:     AuthMiddleware{Secret: []byte(testSecret)},
		Bookings: BookingHandler{Ledger: led},
		Host:     HostBookingHandler{Ledger: led},
		Calendar: CalendarHandler{Calendars: calendars.New(factory, box)},
	})
	return server.Handler
}

func signToken(t *testing.T, sub string, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if len(roles) > 0 {
		anyRoles := make([]any, 0, len(roles))
		for _, r := range roles {
			anyRoles = append(anyRoles, r)
		}
		claims["roles"] = anyRoles
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", "", map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBooking(t *testing.T) {
	h := newTestServer(t)
	token := signToken(t, "guest-a")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", token, map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "confirmed", payload.Status)
	assert.Equal(t, "guest-a", payload.GuestID)
	assert.Equal(t, int64(900_00), payload.Price.Total.Amount)
}

func TestCreateBookingConflictMapsTo409(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", signToken(t, "guest-a"), map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", signToken(t, "guest-b"), map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-03", "check_out": "2024-07-07", "guests": 2,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "CONFLICT", body["kind"])
}

func TestCreateBookingValidationMapsTo400(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", signToken(t, "guest-a"), map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-05", "check_out": "2024-07-01", "guests": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewIsPublic(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/villas/villa-1/preview?check_in=2024-07-01&check_out=2024-07-04&guests=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload previewPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Available)
	assert.Equal(t, int64(700_00), payload.Quote.Total.Amount)
}

func TestHostEndpointsRequireHostRole(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/host/bookings", signToken(t, "guest-a"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/host/bookings", signToken(t, "host-1", "host"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCalendarBlockFlow(t *testing.T) {
	h := newTestServer(t)
	hostToken := signToken(t, "host-1", "host")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/villas/villa-1/calendar/block", hostToken, map[string]any{
		"from": "2024-07-02", "to": "2024-07-03", "reason": "maintenance",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", signToken(t, "guest-a"), map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/villas/villa-1/calendar", hostToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cal calendarPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cal))
	require.Len(t, cal.Days, 1)
	assert.Equal(t, "2024-07-02", cal.Days[0].Date)
	assert.False(t, cal.Days[0].Available)
}

func TestCancelBooking(t *testing.T) {
	h := newTestServer(t)
	token := signToken(t, "guest-a")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", token, map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.ID+"/cancel", token, map[string]any{
		"reason": "change of plans",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "change of plans", cancelled.CancelReason)
}

func TestApproveRequiresHostRole(t *testing.T) {
	h := newTestServer(t)
	token := signToken(t, "guest-a")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", token, map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.ID+"/approve", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// instant-book bookings are already confirmed; host approval is illegal
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings/"+created.ID+"/approve", signToken(t, "host-1", "host"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListMyBookings(t *testing.T) {
	h := newTestServer(t)
	token := signToken(t, "guest-a")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", token, map[string]any{
		"villa_id": "villa-1", "check_in": "2024-07-01", "check_out": "2024-07-05", "guests": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/me/bookings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Bookings []bookingPayload `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Bookings, 1)
}
