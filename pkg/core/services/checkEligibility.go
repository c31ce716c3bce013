package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/eligibility"
	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// EligibilityStore defines the database operations needed to evaluate eligibility
type EligibilityStore interface {
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	ListAppointments(ctx context.Context, filter db.AppointmentFilter) ([]model.Appointment, error)
}

// CheckEligibility evaluates whether a donor may donate on onDate.
// The verdict is computed fresh on every call; it is never cached because a
// completed donation or a positive lab result moves it. The donor lock keeps
// the read consistent with a concurrent safety-status write.
func CheckEligibility(
	ctx context.Context,
	database EligibilityStore,
	lockMgr *locks.Manager,
	cfg *config.Config,
	logger *zap.Logger,
	donorID string,
	donationType model.DonationType,
	onDate time.Time,
) (eligibility.Verdict, error) {
	if donationType == "" {
		donationType = model.DonationWholeBlood
	}

	unlock := lockMgr.Lock("donor:" + donorID)
	defer unlock()

	donor, err := database.GetDonor(ctx, donorID)
	if err != nil {
		return eligibility.Verdict{}, fmt.Errorf("failed to fetch donor: %w", err)
	}

	history, err := database.ListAppointments(ctx, db.AppointmentFilter{DonorID: donorID})
	if err != nil {
		return eligibility.Verdict{}, fmt.Errorf("failed to fetch donation history: %w", err)
	}

	verdict := eligibility.Evaluate(donor, history, donationType, onDate, cfg)

	logger.Debug("Eligibility evaluated",
		zap.String("donor_id", donorID),
		zap.String("donation_type", string(donationType)),
		zap.Bool("eligible", verdict.Eligible),
		zap.String("reason", verdict.Reason))

	return verdict, nil
}
