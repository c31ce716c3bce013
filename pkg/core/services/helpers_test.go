package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

type testEnv struct {
	ctx     context.Context
	store   *db.MemStore
	lockMgr *locks.Manager
	cfg     *config.Config
	logger  *zap.Logger
}

func newTestEnv() *testEnv {
	return &testEnv{
		ctx:     context.Background(),
		store:   db.NewMemStore(),
		lockMgr: locks.NewManager(),
		cfg:     config.Default(),
		logger:  zap.NewNop(),
	}
}

func (e *testEnv) seedDonor(mutate ...func(*model.Donor)) *model.Donor {
	donor := &model.Donor{
		ID:           uuid.New().String(),
		Name:         "Amara Perera",
		Email:        "amara@example.com",
		Sex:          "male",
		BloodType:    "A+",
		SafetyStatus: model.SafetyClear,
		CreatedAt:    time.Now(),
	}
	for _, fn := range mutate {
		fn(donor)
	}
	if err := e.store.InsertDonor(e.ctx, donor); err != nil {
		panic(err)
	}
	return donor
}

func (e *testEnv) seedCamp(capacity *int, mutate ...func(*model.Camp)) *model.Camp {
	camp := &model.Camp{
		ID:        uuid.New().String(),
		Name:      "Colombo Camp",
		Province:  "Western",
		District:  "Colombo",
		Location:  "Colombo City Centre",
		Date:      time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour),
		StartTime: "09:00",
		EndTime:   "13:00",
		Capacity:  capacity,
		CreatedAt: time.Now(),
	}
	for _, fn := range mutate {
		fn(camp)
	}
	if err := e.store.InsertCamp(e.ctx, camp); err != nil {
		panic(err)
	}
	return camp
}

func (e *testEnv) seedUnit(bloodType string, expiryInDays int, mutate ...func(*model.BloodUnit)) *model.BloodUnit {
	unit := &model.BloodUnit{
		ID:          uuid.New().String(),
		BloodType:   bloodType,
		Quantity:    1,
		CollectedAt: time.Now(),
		ExpiryDate:  time.Now().AddDate(0, 0, expiryInDays),
		TestStatus:  model.TestedSafe,
		SafetyFlag:  model.FlagSafe,
		Status:      model.UnitAvailable,
	}
	for _, fn := range mutate {
		fn(unit)
	}
	if err := e.store.InsertUnit(e.ctx, unit); err != nil {
		panic(err)
	}
	return unit
}

func (e *testEnv) seedRequest(bloodType string, units int) *model.EmergencyRequest {
	req := &model.EmergencyRequest{
		ID:             uuid.New().String(),
		Hospital:       "Colombo National Hospital",
		BloodType:      bloodType,
		Urgency:        "HIGH",
		UnitsRequested: units,
		Status:         model.RequestOpen,
		CreatedAt:      time.Now(),
	}
	if err := e.store.InsertRequest(e.ctx, req); err != nil {
		panic(err)
	}
	return req
}

func (e *testEnv) seedPendingUnit(donor *model.Donor) *model.BloodUnit {
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
		DonorName:   donor.Name,
	}
	if err := e.store.InsertUnit(e.ctx, unit); err != nil {
		panic(err)
	}
	return unit
}

var staff = model.Actor{Role: model.RoleStaff}

func donorActor(id string) model.Actor {
	return model.Actor{Role: model.RoleDonor, DonorID: id}
}

// campTime returns an instant inside the camp's window
func campTime(camp *model.Camp, hour, minute int) time.Time {
	return time.Date(camp.Date.Year(), camp.Date.Month(), camp.Date.Day(), hour, minute, 0, 0, camp.Date.Location())
}
