package ingress

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r.Group("/location"))
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Update_ProcessesPingSynchronously(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	h := NewHandler(d)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/location/update", pingRequest{
		VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Speed: 2,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestHandler_Update_RejectsMissingVehicleID(t *testing.T) {
	fake, tripID, _ := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	h := NewHandler(d)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/location/update", pingRequest{
		TripID: tripID, Lat: 12.9716, Lon: 77.5946,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UpdateAsync_AcceptsPing(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	h := NewHandler(d)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/location/update/async", pingRequest{
		VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946,
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandler_Batch_RejectsEmptyBatch(t *testing.T) {
	fake, _, _ := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	h := NewHandler(d)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/location/batch", batchRequest{Pings: []pingRequest{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Batch_ProcessesOrderedPings(t *testing.T) {
	fake, tripID, vehicleID := seedTrip(t)
	d := newTestDispatcher(fake)
	defer d.Stop()

	h := NewHandler(d)
	r := newTestRouter(h)

	rec := doJSON(t, r, http.MethodPost, "/location/batch", batchRequest{
		Pings: []pingRequest{
			{VehicleID: vehicleID, TripID: tripID, Lat: 12.9716, Lon: 77.5946, Speed: 1},
			{VehicleID: vehicleID, TripID: tripID, Lat: 12.9717, Lon: 77.5947, Speed: 1},
		},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Processed":2`)
}
