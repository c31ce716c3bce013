package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

type apiEnv struct {
	store  *db.MemStore
	server *httptest.Server
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	store := db.NewMemStore()
	srv := NewServer(store, locks.NewManager(), config.Default(), zap.NewNop(), nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &apiEnv{store: store, server: ts}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any, actor model.Actor) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor.Role != "" {
		req.Header.Set("X-Actor-Role", string(actor.Role))
	}
	if actor.DonorID != "" {
		req.Header.Set("X-Actor-ID", actor.DonorID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *apiEnv) seedDonor(t *testing.T) *model.Donor {
	t.Helper()
	donor := &model.Donor{
		ID:           uuid.New().String(),
		Name:         "Amara Perera",
		BloodType:    "A+",
		SafetyStatus: model.SafetyClear,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, e.store.InsertDonor(context.Background(), donor))
	return donor
}

var staffActor = model.Actor{Role: model.RoleStaff}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)
	resp := env.do(t, http.MethodGet, "/_health", nil, model.Actor{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterDonorEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/donors",
		map[string]string{"name": "Nimal Silva", "bloodType": "O-"}, model.Actor{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	donor := decode[model.Donor](t, resp)
	assert.Equal(t, "O-", donor.BloodType)
	assert.Equal(t, model.SafetyClear, donor.SafetyStatus)

	resp = env.do(t, http.MethodPost, "/v1/donors", map[string]string{}, model.Actor{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestEligibilityEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	donated := time.Now().AddDate(0, 0, -30)
	donor := env.seedDonor(t)
	donor.LastDonationDate = &donated
	require.NoError(t, env.store.UpdateDonor(context.Background(), donor))

	resp := env.do(t, http.MethodGet, "/v1/donors/"+donor.ID+"/eligibility", nil, model.Actor{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verdict := decode[map[string]any](t, resp)
	assert.Equal(t, false, verdict["eligible"])
	assert.NotEmpty(t, verdict["nextEligibleDate"])

	resp = env.do(t, http.MethodGet, "/v1/donors/missing/eligibility", nil, model.Actor{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestBookingEndpointLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	donor := env.seedDonor(t)
	when := time.Now().AddDate(0, 0, 3)

	resp := env.do(t, http.MethodPost, "/v1/appointments", map[string]any{
		"donorId":     donor.ID,
		"centerType":  "HOSPITAL",
		"centerId":    "hosp-1",
		"scheduledAt": when.Format(time.RFC3339),
	}, model.Actor{Role: model.RoleDonor, DonorID: donor.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	appt := decode[model.Appointment](t, resp)
	assert.Equal(t, model.AppointmentScheduled, appt.Status)

	// Donor cannot approve
	resp = env.do(t, http.MethodPut, "/v1/appointments/"+appt.ID+"/status",
		map[string]string{"status": "Approved"}, model.Actor{Role: model.RoleDonor, DonorID: donor.ID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Staff approves then completes
	resp = env.do(t, http.MethodPut, "/v1/appointments/"+appt.ID+"/status",
		map[string]string{"status": "Approved"}, staffActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPut, "/v1/appointments/"+appt.ID+"/status",
		map[string]string{"status": "Completed"}, staffActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	completed := decode[model.Appointment](t, resp)
	assert.Equal(t, model.AppointmentCompleted, completed.Status)

	// Completion produced a pending unit visible to staff
	resp = env.do(t, http.MethodGet, "/v1/inventory/pending", nil, staffActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decode[[]model.BloodUnit](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, appt.ID, pending[0].SourceAppointmentID)

	// Terminal state, further transitions conflict
	resp = env.do(t, http.MethodPut, "/v1/appointments/"+appt.ID+"/cancel", nil, staffActor)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestBookingEndpointForOtherDonorForbidden(t *testing.T) {
	env := newAPIEnv(t)
	donor := env.seedDonor(t)

	resp := env.do(t, http.MethodPost, "/v1/appointments", map[string]any{
		"donorId":     donor.ID,
		"centerType":  "HOSPITAL",
		"centerId":    "hosp-1",
		"scheduledAt": time.Now().AddDate(0, 0, 3).Format(time.RFC3339),
	}, model.Actor{Role: model.RoleDonor, DonorID: "someone-else"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestBlockedDonorGets422(t *testing.T) {
	env := newAPIEnv(t)
	donor := env.seedDonor(t)
	donor.SafetyStatus = model.SafetyPositive
	donor.SafetyReason = "HIV reactive"
	require.NoError(t, env.store.UpdateDonor(context.Background(), donor))

	resp := env.do(t, http.MethodPost, "/v1/appointments", map[string]any{
		"donorId":     donor.ID,
		"centerType":  "HOSPITAL",
		"centerId":    "hosp-1",
		"scheduledAt": time.Now().AddDate(0, 0, 3).Format(time.RFC3339),
	}, staffActor)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "eligibility_blocked", body["error"])
}

func TestCampEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	donor := env.seedDonor(t)

	// Donors cannot create camps
	resp := env.do(t, http.MethodPost, "/v1/camps", map[string]any{"name": "X"}, model.Actor{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/v1/camps", map[string]any{
		"name":     "Galle Face Camp",
		"date":     time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		"capacity": 1,
	}, staffActor)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	camp := decode[model.Camp](t, resp)

	resp = env.do(t, http.MethodPost, "/v1/camps/"+camp.ID+"/register",
		map[string]string{"donorId": donor.ID}, model.Actor{Role: model.RoleDonor, DonorID: donor.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Capacity 1 is now exhausted
	second := env.seedDonor(t)
	resp = env.do(t, http.MethodPost, "/v1/camps/"+camp.ID+"/register",
		map[string]string{"donorId": second.ID}, staffActor)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "capacity_exceeded", body["error"])

	resp = env.do(t, http.MethodPost, "/v1/camps/"+camp.ID+"/checkin",
		map[string]string{"donorId": donor.ID}, staffActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reg := decode[model.Registration](t, resp)
	assert.True(t, reg.CheckedIn)

	resp = env.do(t, http.MethodGet, "/v1/camps", nil, model.Actor{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	camps := decode[[]map[string]any](t, resp)
	require.Len(t, camps, 1)
	assert.Equal(t, float64(1), camps[0]["registered"])
}

func TestLabEndpointWriteOnce(t *testing.T) {
	env := newAPIEnv(t)
	donor := env.seedDonor(t)
	unit := &model.BloodUnit{
		ID:          uuid.New().String(),
		BloodType:   donor.BloodType,
		Quantity:    1,
		CollectedAt: time.Now(),
		ExpiryDate:  time.Now().AddDate(0, 0, 35),
		TestStatus:  model.TestPending,
		SafetyFlag:  model.FlagPending,
		Status:      model.UnitUntested,
		DonorID:     donor.ID,
	}
	require.NoError(t, env.store.InsertUnit(context.Background(), unit))

	labActor := model.Actor{Role: model.RoleLab}

	resp := env.do(t, http.MethodPut, "/v1/inventory/"+unit.ID+"/test",
		map[string]any{"hiv": true}, labActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tested := decode[model.BloodUnit](t, resp)
	assert.Equal(t, model.TestedPositive, tested.TestStatus)

	resp = env.do(t, http.MethodPut, "/v1/inventory/"+unit.ID+"/test",
		map[string]any{}, labActor)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "invalid_transition", body["error"])
}

func TestEmergencyEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	for i := 0; i < 3; i++ {
		unit := &model.BloodUnit{
			ID:          uuid.New().String(),
			BloodType:   "O-",
			Quantity:    1,
			CollectedAt: time.Now(),
			ExpiryDate:  time.Now().AddDate(0, 0, 10+i),
			TestStatus:  model.TestedSafe,
			SafetyFlag:  model.FlagSafe,
			Status:      model.UnitAvailable,
		}
		require.NoError(t, env.store.InsertUnit(context.Background(), unit))
	}

	resp := env.do(t, http.MethodPost, "/v1/emergency/requests", map[string]any{
		"hospital":  "Kandy General",
		"bloodType": "O-",
		"units":     5,
	}, staffActor)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decode[model.EmergencyRequest](t, resp)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/v1/emergency/requests/%s/fulfill", req.ID),
		map[string]int{"units": 2}, staffActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	partial := decode[model.EmergencyRequest](t, resp)
	assert.Equal(t, model.RequestPartial, partial.Status)
	assert.Equal(t, 2, partial.UnitsFulfilled)

	// More than remaining stock conflicts and changes nothing
	resp = env.do(t, http.MethodPut, fmt.Sprintf("/v1/emergency/requests/%s/fulfill", req.ID),
		map[string]int{"units": 3}, staffActor)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "over_fulfillment", body["error"])

	resp = env.do(t, http.MethodGet, "/v1/emergency/requests?active=true", nil, staffActor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	active := decode[[]model.EmergencyRequest](t, resp)
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].Remaining())
}
