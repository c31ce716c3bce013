package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
)

func TestCreateEmergencyRequest(t *testing.T) {
	env := newTestEnv()

	req, err := CreateEmergencyRequest(env.ctx, env.store, env.logger, "Kandy General", "O-", "", 4)
	require.NoError(t, err)
	assert.Equal(t, model.RequestOpen, req.Status)
	assert.Equal(t, "NORMAL", req.Urgency)
	assert.Equal(t, 4, req.Remaining())

	_, err = CreateEmergencyRequest(env.ctx, env.store, env.logger, "", "O-", "HIGH", 4)
	var valErr *model.ValidationError
	assert.True(t, errors.As(err, &valErr))

	_, err = CreateEmergencyRequest(env.ctx, env.store, env.logger, "Kandy General", "O-", "HIGH", 0)
	assert.True(t, errors.As(err, &valErr))
}

func TestFulfillRequest_SequentialDispatches(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("A+", 10)
	for i := 0; i < 8; i++ {
		env.seedUnit("A+", 10+i)
	}

	first, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, first.UnitsFulfilled)
	assert.Equal(t, model.RequestPartial, first.Status)

	second, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, second.UnitsFulfilled)
	assert.Equal(t, model.RequestPartial, second.Status)

	// Third dispatch of 4 exceeds the 2 units the request still needs
	_, err = FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 4)
	var fErr *model.FulfillmentError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, 2, fErr.Available)

	// A dispatch within the remaining need still fails: the stock is gone
	_, err = FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 2)
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, 0, fErr.Available)

	unchanged, err := env.store.GetRequest(env.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, unchanged.UnitsFulfilled)
	assert.Equal(t, model.RequestPartial, unchanged.Status)
}

func TestFulfillRequest_AllOrNothing(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("B+", 10)
	env.seedUnit("B+", 5)
	env.seedUnit("B+", 12)

	// 3 requested against 2 in stock: the partial 2 must not be consumed
	_, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 3)
	var fErr *model.FulfillmentError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, 2, fErr.Available)

	units, err := env.store.ListUnits(env.ctx, db.UnitFilter{BloodType: "B+", Status: model.UnitAvailable})
	require.NoError(t, err)
	assert.Len(t, units, 2)

	unchanged, err := env.store.GetRequest(env.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.UnitsFulfilled)
	assert.Equal(t, model.RequestOpen, unchanged.Status)
}

func TestFulfillRequest_OldestExpiryFirst(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("O+", 5)
	oldest := env.seedUnit("O+", 3)
	middle := env.seedUnit("O+", 10)
	newest := env.seedUnit("O+", 30)

	_, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 2)
	require.NoError(t, err)

	a, err := env.store.GetUnit(env.ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UnitDispatched, a.Status)

	b, err := env.store.GetUnit(env.ctx, middle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UnitDispatched, b.Status)

	c, err := env.store.GetUnit(env.ctx, newest.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UnitAvailable, c.Status)
}

func TestFulfillRequest_SkipsExpiredAndForeignStock(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("AB-", 2)
	env.seedUnit("AB-", -1) // expired yesterday
	env.seedUnit("O-", 20)  // wrong blood type
	env.seedUnit("AB-", 20, func(u *model.BloodUnit) {
		u.TestStatus = model.TestPending
		u.SafetyFlag = model.FlagPending
		u.Status = model.UnitUntested
	})
	good := env.seedUnit("AB-", 20)

	fulfilled, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, fulfilled.UnitsFulfilled)

	g, err := env.store.GetUnit(env.ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UnitDispatched, g.Status)
}

type brokenUnitWrites struct {
	*db.MemStore
	calls    int
	failCall int
}

func (s *brokenUnitWrites) UpdateUnit(ctx context.Context, unit *model.BloodUnit) error {
	s.calls++
	if s.calls == s.failCall {
		return errors.New("connection reset by peer")
	}
	return s.MemStore.UpdateUnit(ctx, unit)
}

func TestFulfillRequest_FailedUnitWriteRestoresInventory(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("O-", 3)
	env.seedUnit("O-", 5)
	env.seedUnit("O-", 10)
	env.seedUnit("O-", 15)
	// The second unit write fails mid-dispatch; the restore write for the
	// first unit is the third call and goes through
	store := &brokenUnitWrites{MemStore: env.store, failCall: 2}

	_, err := FulfillRequest(env.ctx, store, env.lockMgr, env.logger, req.ID, 3)
	require.Error(t, err)

	units, err := env.store.ListUnits(env.ctx, db.UnitFilter{BloodType: "O-", Status: model.UnitAvailable})
	require.NoError(t, err)
	require.Len(t, units, 3)
	for _, u := range units {
		assert.Equal(t, 1, u.Quantity)
	}

	unchanged, err := env.store.GetRequest(env.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.UnitsFulfilled)
	assert.Equal(t, model.RequestOpen, unchanged.Status)
}

func TestFulfillRequest_OverRemainingRejected(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("A+", 3)
	for i := 0; i < 6; i++ {
		env.seedUnit("A+", 10)
	}

	_, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 5)
	var fErr *model.FulfillmentError
	require.True(t, errors.As(err, &fErr))
	assert.Equal(t, 3, fErr.Available)
}

func TestFulfillRequest_FulfilledIsTerminal(t *testing.T) {
	env := newTestEnv()
	req := env.seedRequest("A+", 2)
	env.seedUnit("A+", 10)
	env.seedUnit("A+", 10)
	env.seedUnit("A+", 10)

	done, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, model.RequestFulfilled, done.Status)

	_, err = FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, req.ID, 1)
	var trErr *model.TransitionError
	assert.True(t, errors.As(err, &trErr))
}

func TestListRequests_ActiveOnly(t *testing.T) {
	env := newTestEnv()
	env.seedRequest("A+", 2)
	fulfilled := env.seedRequest("B+", 1)
	env.seedUnit("B+", 10)

	_, err := FulfillRequest(env.ctx, env.store, env.lockMgr, env.logger, fulfilled.ID, 1)
	require.NoError(t, err)

	all, err := ListRequests(env.ctx, env.store, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := ListRequests(env.ctx, env.store, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "A+", active[0].BloodType)
}
