package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// RequestStore defines the database operations needed for emergency requests
type RequestStore interface {
	GetRequest(ctx context.Context, id string) (*model.EmergencyRequest, error)
	ListRequests(ctx context.Context) ([]model.EmergencyRequest, error)
	InsertRequest(ctx context.Context, req *model.EmergencyRequest) error
	UpdateRequest(ctx context.Context, req *model.EmergencyRequest) error
	ListUnits(ctx context.Context, filter db.UnitFilter) ([]model.BloodUnit, error)
	UpdateUnit(ctx context.Context, unit *model.BloodUnit) error
}

// CreateEmergencyRequest opens a request for units of a blood type
func CreateEmergencyRequest(
	ctx context.Context,
	database RequestStore,
	logger *zap.Logger,
	hospital, bloodType, urgency string,
	units int,
) (*model.EmergencyRequest, error) {
	if hospital == "" {
		return nil, &model.ValidationError{Field: "hospital", Message: "required"}
	}
	if bloodType == "" {
		return nil, &model.ValidationError{Field: "bloodType", Message: "required"}
	}
	if units <= 0 {
		return nil, &model.ValidationError{Field: "units", Message: "must be positive"}
	}
	if urgency == "" {
		urgency = "NORMAL"
	}

	req := &model.EmergencyRequest{
		ID:             uuid.New().String(),
		Hospital:       hospital,
		BloodType:      bloodType,
		Urgency:        urgency,
		UnitsRequested: units,
		Status:         model.RequestOpen,
		CreatedAt:      time.Now(),
	}
	if err := database.InsertRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}

	logger.Info("Emergency request opened",
		zap.String("request_id", req.ID),
		zap.String("hospital", hospital),
		zap.String("blood_type", bloodType),
		zap.Int("units", units))

	return req, nil
}

// FulfillRequest dispatches units of matching inventory against a request.
// The operation is all-or-nothing: it fails without touching anything when
// units exceeds the request's remaining need or the dispensable stock of the
// matching blood type. Stock is consumed oldest expiry first and expired
// units are never selected. The request counters and the inventory decrement
// move together under the request and inventory locks.
func FulfillRequest(
	ctx context.Context,
	database RequestStore,
	lockMgr *locks.Manager,
	logger *zap.Logger,
	requestID string,
	units int,
) (*model.EmergencyRequest, error) {
	if units <= 0 {
		return nil, &model.ValidationError{Field: "units", Message: "must be positive"}
	}

	unlock := lockMgr.Lock("request:" + requestID)
	defer unlock()

	req, err := database.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}

	if req.Status == model.RequestFulfilled {
		return nil, &model.TransitionError{
			Entity: "emergency request",
			ID:     req.ID,
			From:   string(model.RequestFulfilled),
			To:     "dispatch",
		}
	}

	unlockInv := lockMgr.Lock("inventory:" + req.BloodType)
	defer unlockInv()

	if units > req.Remaining() {
		return nil, &model.FulfillmentError{
			RequestID: req.ID,
			Requested: units,
			Available: req.Remaining(),
			Message:   "dispatch exceeds remaining request",
		}
	}

	candidates, err := database.ListUnits(ctx, db.UnitFilter{
		BloodType: req.BloodType,
		Status:    model.UnitAvailable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}

	now := time.Now()
	var dispensable []model.BloodUnit
	available := 0
	for _, unit := range candidates {
		if unit.Dispensable(now) {
			dispensable = append(dispensable, unit)
			available += unit.Quantity
		}
	}

	if units > available {
		return nil, &model.FulfillmentError{
			RequestID: req.ID,
			Requested: units,
			Available: available,
			Message:   "dispatch exceeds available inventory",
		}
	}

	// Consume oldest expiry first; the store returns units in expiry order.
	// A write failure restores the units already decremented so the
	// dispatch never lands partially.
	dispatched := make([]*model.BloodUnit, 0, len(dispensable))
	restore := func() {
		for _, orig := range dispatched {
			if err := database.UpdateUnit(ctx, orig); err != nil {
				logger.Error("Failed to restore unit after dispatch failure",
					zap.String("unit_id", orig.ID),
					zap.Error(err))
			}
		}
	}
	remaining := units
	for i := range dispensable {
		if remaining == 0 {
			break
		}
		unit := dispensable[i]
		use := unit.Quantity
		if use > remaining {
			use = remaining
		}
		unit.Quantity -= use
		if unit.Quantity == 0 {
			unit.Status = model.UnitDispatched
		}
		if err := database.UpdateUnit(ctx, &unit); err != nil {
			restore()
			return nil, fmt.Errorf("failed to decrement unit %s: %w", unit.ID, err)
		}
		dispatched = append(dispatched, &dispensable[i])
		remaining -= use
	}

	req.UnitsFulfilled += units
	req.RecomputeStatus()
	if err := database.UpdateRequest(ctx, req); err != nil {
		restore()
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	logger.Info("Emergency request dispatched",
		zap.String("request_id", req.ID),
		zap.String("blood_type", req.BloodType),
		zap.Int("units", units),
		zap.Int("fulfilled", req.UnitsFulfilled),
		zap.String("status", string(req.Status)))

	return req, nil
}

// ListRequests returns emergency requests, optionally only unfulfilled ones
func ListRequests(ctx context.Context, database RequestStore, activeOnly bool) ([]model.EmergencyRequest, error) {
	requests, err := database.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	if !activeOnly {
		return requests, nil
	}
	active := make([]model.EmergencyRequest, 0, len(requests))
	for _, req := range requests {
		if req.Status != model.RequestFulfilled {
			active = append(active, req)
		}
	}
	return active, nil
}
