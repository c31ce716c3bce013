package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// LabResults carries the per-pathogen screening outcome for one unit.
// Reason is mandatory when any screen is reactive.
type LabResults struct {
	HIV     bool
	Hep     bool
	Malaria bool
	Reason  string
}

// Positive reports whether any screen was reactive
func (r LabResults) Positive() bool {
	return r.HIV || r.Hep || r.Malaria
}

// defaultReason builds a reason from the reactive screens when the lab left
// the free-text field empty
func (r LabResults) defaultReason() string {
	var parts []string
	if r.HIV {
		parts = append(parts, "HIV reactive")
	}
	if r.Hep {
		parts = append(parts, "Hepatitis reactive")
	}
	if r.Malaria {
		parts = append(parts, "Malaria reactive")
	}
	return strings.Join(parts, ", ")
}

// LabStore defines the database operations needed to record lab results
type LabStore interface {
	GetUnit(ctx context.Context, id string) (*model.BloodUnit, error)
	UpdateUnit(ctx context.Context, unit *model.BloodUnit) error
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	UpdateDonor(ctx context.Context, donor *model.Donor) error
}

// RecordLabResults applies a lab screening outcome to a pending unit.
// The test state is write-once: a second call on an already-tested unit is
// rejected with a TransitionError. A negative result releases the unit to
// inventory; a positive result discards it and permanently blocks the
// donating donor, with the donor write serialized against concurrent
// eligibility checks.
func RecordLabResults(
	ctx context.Context,
	database LabStore,
	lockMgr *locks.Manager,
	logger *zap.Logger,
	unitID string,
	results LabResults,
) (*model.BloodUnit, error) {
	unlock := lockMgr.Lock("unit:" + unitID)
	defer unlock()

	unit, err := database.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unit: %w", err)
	}

	if unit.Tested() {
		return nil, &model.TransitionError{
			Entity: "blood unit",
			ID:     unit.ID,
			From:   string(unit.TestStatus),
			To:     "re-test",
		}
	}

	if results.Positive() {
		reason := results.Reason
		if reason == "" {
			reason = results.defaultReason()
		}
		if reason == "" {
			return nil, &model.ValidationError{Field: "reason", Message: "required for a positive result"}
		}

		unit.TestStatus = model.TestedPositive
		unit.SafetyFlag = model.FlagBiohazard
		unit.Status = model.UnitDiscarded
		if err := database.UpdateUnit(ctx, unit); err != nil {
			return nil, fmt.Errorf("failed to update unit: %w", err)
		}

		if err := blockDonor(ctx, database, lockMgr, logger, unit.DonorID, reason); err != nil {
			return nil, err
		}

		logger.Warn("Unit tested positive and discarded",
			zap.String("unit_id", unit.ID),
			zap.String("donor_id", unit.DonorID),
			zap.String("reason", reason))

		return unit, nil
	}

	unit.TestStatus = model.TestedSafe
	unit.SafetyFlag = model.FlagSafe
	unit.Status = model.UnitAvailable
	if err := database.UpdateUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}

	logger.Info("Unit tested safe and released to inventory",
		zap.String("unit_id", unit.ID),
		zap.String("blood_type", unit.BloodType))

	return unit, nil
}

// blockDonor sets a donor's safety status to POSITIVE. The write happens
// under the donor's lock so a concurrent eligibility evaluation observes
// either the prior state or the fully-applied block, never a half-applied
// one. Already-blocked donors keep their original reason.
func blockDonor(
	ctx context.Context,
	database LabStore,
	lockMgr *locks.Manager,
	logger *zap.Logger,
	donorID, reason string,
) error {
	if donorID == "" {
		// Walk-in stock has no donor record to block
		return nil
	}

	unlock := lockMgr.Lock("donor:" + donorID)
	defer unlock()

	donor, err := database.GetDonor(ctx, donorID)
	if err != nil {
		return fmt.Errorf("failed to fetch donor: %w", err)
	}
	if donor.Blocked() {
		return nil
	}

	donor.SafetyStatus = model.SafetyPositive
	donor.SafetyReason = reason
	if err := database.UpdateDonor(ctx, donor); err != nil {
		return fmt.Errorf("failed to block donor: %w", err)
	}

	logger.Warn("Donor permanently blocked",
		zap.String("donor_id", donorID),
		zap.String("reason", reason))

	return nil
}

// AddStore defines the database operations needed to add walk-in stock
type AddStore interface {
	InsertUnit(ctx context.Context, unit *model.BloodUnit) error
}

// AddBloodUnit records already-screened stock directly into inventory,
// the staff path for units arriving from partner banks
func AddBloodUnit(
	ctx context.Context,
	database AddStore,
	logger *zap.Logger,
	bloodType string,
	expiryDate time.Time,
) (*model.BloodUnit, error) {
	if bloodType == "" {
		return nil, &model.ValidationError{Field: "bloodType", Message: "required"}
	}
	if expiryDate.Before(time.Now()) {
		return nil, &model.ValidationError{Field: "expiryDate", Message: "must be in the future"}
	}

	unit := &model.BloodUnit{
		ID:          uuid.New().String(),
		BloodType:   bloodType,
		Quantity:    1,
		CollectedAt: time.Now(),
		ExpiryDate:  expiryDate,
		TestStatus:  model.TestedSafe,
		SafetyFlag:  model.FlagSafe,
		Status:      model.UnitAvailable,
	}
	if err := database.InsertUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to insert unit: %w", err)
	}

	logger.Info("Walk-in unit added to inventory",
		zap.String("unit_id", unit.ID),
		zap.String("blood_type", bloodType))

	return unit, nil
}
