package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/eligibility"
	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/core/slots"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// CampRegistrationStore defines the database operations needed to register a
// donor for a camp
type CampRegistrationStore interface {
	GetCamp(ctx context.Context, id string) (*model.Camp, error)
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	ListAppointments(ctx context.Context, filter db.AppointmentFilter) ([]model.Appointment, error)
	GetRegistration(ctx context.Context, campID, donorID string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, campID string) ([]model.Registration, error)
	InsertRegistration(ctx context.Context, reg *model.Registration) error
	UpdateRegistration(ctx context.Context, reg *model.Registration) error
}

// RegisterForCamp registers a donor for a camp. The capacity check and the
// append happen under the camp's lock, so concurrent registrations for the
// same camp serialize and the registration count can never exceed capacity.
// Duplicate (camp, donor) registrations are rejected.
func RegisterForCamp(
	ctx context.Context,
	database CampRegistrationStore,
	lockMgr *locks.Manager,
	cfg *config.Config,
	logger *zap.Logger,
	campID, donorID string,
) (*model.Registration, error) {
	if campID == "" {
		return nil, &model.ValidationError{Field: "campId", Message: "required"}
	}
	if donorID == "" {
		return nil, &model.ValidationError{Field: "donorId", Message: "required"}
	}

	unlock := lockMgr.LockMany("camp:"+campID, "donor:"+donorID)
	defer unlock()

	camp, err := database.GetCamp(ctx, campID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch camp: %w", err)
	}
	if camp.StatusAt(time.Now()) == model.CampEnded {
		return nil, &model.ValidationError{Field: "campId", Message: "camp has already ended"}
	}

	donor, err := database.GetDonor(ctx, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donor: %w", err)
	}

	history, err := database.ListAppointments(ctx, db.AppointmentFilter{DonorID: donorID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donation history: %w", err)
	}
	verdict := eligibility.Evaluate(donor, history, model.DonationWholeBlood, camp.Date, cfg)
	if !verdict.Eligible {
		return nil, &model.EligibilityError{
			DonorID:          donorID,
			Reason:           verdict.Reason,
			Permanent:        verdict.Permanent,
			NextEligibleDate: verdict.NextEligibleDate,
		}
	}

	if _, err := database.GetRegistration(ctx, campID, donorID); err == nil {
		return nil, &model.DuplicateError{Entity: "registration", ID: campID + "/" + donorID}
	} else {
		var notFound *model.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to look up registration: %w", err)
		}
	}

	registered, err := database.ListRegistrations(ctx, campID)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	if err := slots.CheckCampCapacity(camp, len(registered)); err != nil {
		return nil, err
	}

	reg := &model.Registration{
		ID:        uuid.New().String(),
		CampID:    campID,
		DonorID:   donorID,
		CreatedAt: time.Now(),
	}
	if err := database.InsertRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to insert registration: %w", err)
	}

	logger.Info("Donor registered for camp",
		zap.String("camp_id", campID),
		zap.String("donor_id", donorID),
		zap.Int("registered", len(registered)+1))

	return reg, nil
}

// CheckIn marks a registered donor as arrived at the camp
func CheckIn(
	ctx context.Context,
	database CampRegistrationStore,
	lockMgr *locks.Manager,
	logger *zap.Logger,
	campID, donorID string,
) (*model.Registration, error) {
	unlock := lockMgr.Lock("camp:" + campID)
	defer unlock()

	reg, err := database.GetRegistration(ctx, campID, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registration: %w", err)
	}
	if reg.CheckedIn {
		return reg, nil
	}

	reg.CheckedIn = true
	if err := database.UpdateRegistration(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}

	logger.Info("Donor checked in",
		zap.String("camp_id", campID),
		zap.String("donor_id", donorID))

	return reg, nil
}
