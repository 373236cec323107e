package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/codriving-backend/internal/auth"
	"github.com/nekogravitycat/codriving-backend/internal/booking"
	"github.com/nekogravitycat/codriving-backend/internal/user"
)

const (
	bookingID = "8d3c6a9e-5b0f-4f6e-9a51-2f7d2c1e0a11"
	tripID    = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"
)

type stubBookings struct {
	booking.Service
	createReq booking.CreateRequest
	err       error
	deleted   string
	actor     string
}

func (s *stubBookings) result(id string) (*booking.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Booking{ID: id, TripID: tripID, PassengerID: "alice", Status: booking.StatusPending, CreditsUsed: 2, CreatedAt: time.Now()}, nil
}

func (s *stubBookings) Create(_ context.Context, req booking.CreateRequest) (*booking.Booking, error) {
	s.createReq = req
	return s.result(bookingID)
}

func (s *stubBookings) Confirm(_ context.Context, id, driverID string) (*booking.Booking, error) {
	s.actor = driverID
	return s.result(id)
}

func (s *stubBookings) GetByID(_ context.Context, id, requesterID string) (*booking.Booking, error) {
	s.actor = requesterID
	return s.result(id)
}

func (s *stubBookings) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

type stubUsers struct {
	user.Service
	admin bool
}

func (s stubUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, IsSystemAdmin: s.admin}, nil
}

func newRouter(svc booking.Service, admin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	fakeAuth := func(c *gin.Context) {
		auth.SetIdentity(c, c.GetHeader("X-User"), "")
		c.Next()
	}
	allow := func(c *gin.Context) { c.Next() }
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, stubUsers{admin: admin}), fakeAuth, allow)
	return r
}

func do(r *gin.Engine, method, path, actor string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", actor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBooking(t *testing.T) {
	svc := &stubBookings{}
	r := newRouter(svc, false)

	w := do(r, http.MethodPost, "/v1/bookings", "alice", map[string]any{"trip_id": tripID, "credits_used": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", svc.createReq.PassengerID)
	assert.Equal(t, 2, svc.createReq.CreditsUsed)

	var resp BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, bookingID, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, tripID, resp.Trip.ID)
}

func TestCreateBookingValidation(t *testing.T) {
	r := newRouter(&stubBookings{}, false)

	w := do(r, http.MethodPost, "/v1/bookings", "alice", map[string]any{"trip_id": "not-a-uuid", "credits_used": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/v1/bookings", "alice", map[string]any{"trip_id": tripID, "credits_used": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{booking.ErrInsufficientCredits, http.StatusBadRequest, "invalid_request"},
		{booking.ErrNoSeatsAvailable, http.StatusBadRequest, "invalid_request"},
		{booking.ErrTripNotFound, http.StatusNotFound, "not_found"},
		{booking.ErrUserNotFound, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newRouter(&stubBookings{err: tt.err}, false)
			w := do(r, http.MethodPost, "/v1/bookings", "alice", map[string]any{"trip_id": tripID, "credits_used": 1})

			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestConfirmPassesActor(t *testing.T) {
	svc := &stubBookings{}
	r := newRouter(svc, false)

	w := do(r, http.MethodPatch, "/v1/bookings/"+bookingID+"/confirm", "driver", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "driver", svc.actor)

	svc.err = booking.ErrOnlyDriverCanConfirm
	w = do(r, http.MethodPatch, "/v1/bookings/"+bookingID+"/confirm", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScopesNonAdmins(t *testing.T) {
	svc := &stubBookings{}

	do(newRouter(svc, false), http.MethodGet, "/v1/bookings/"+bookingID, "alice", nil)
	assert.Equal(t, "alice", svc.actor)

	do(newRouter(svc, true), http.MethodGet, "/v1/bookings/"+bookingID, "root", nil)
	assert.Equal(t, "", svc.actor)

	w := do(newRouter(svc, false), http.MethodGet, "/v1/bookings/nope", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteBooking(t *testing.T) {
	svc := &stubBookings{}
	r := newRouter(svc, true)

	w := do(r, http.MethodDelete, "/v1/bookings/"+bookingID, "root", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, bookingID, svc.deleted)
}
