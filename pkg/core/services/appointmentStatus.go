package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/locks"
)

// AppointmentStatusStore defines the database operations needed to move an
// appointment through its lifecycle
type AppointmentStatusStore interface {
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateAppointment(ctx context.Context, appt *model.Appointment) error
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	UpdateDonor(ctx context.Context, donor *model.Donor) error
	GetUnitByAppointment(ctx context.Context, appointmentID string) (*model.BloodUnit, error)
	InsertUnit(ctx context.Context, unit *model.BloodUnit) error
}

// UpdateAppointmentStatus applies a state machine transition to a booking.
// Scheduled -> Approved -> Completed, with Cancelled reachable from Scheduled
// and Approved; Completed and Cancelled are terminal. Approve and Complete
// are staff-only; a donor may cancel their own booking. Completion creates
// exactly one pending blood unit and stamps the donor's last donation date.
func UpdateAppointmentStatus(
	ctx context.Context,
	database AppointmentStatusStore,
	lockMgr *locks.Manager,
	cfg *config.Config,
	logger *zap.Logger,
	appointmentID string,
	next model.AppointmentStatus,
	actor model.Actor,
) (*model.Appointment, error) {
	switch next {
	case model.AppointmentApproved, model.AppointmentCompleted, model.AppointmentCancelled:
	default:
		return nil, &model.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", next)}
	}

	unlock := lockMgr.Lock("appointment:" + appointmentID)
	defer unlock()

	appt, err := database.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}

	if err := authorizeTransition(appt, next, actor); err != nil {
		return nil, err
	}

	if !appt.CanTransitionTo(next) {
		return nil, &model.TransitionError{
			Entity: "appointment",
			ID:     appt.ID,
			From:   string(appt.Status),
			To:     string(next),
		}
	}

	// The unit insert and donor stamp run before the terminal status write;
	// the status write is the commit point of a completion.
	if next == model.AppointmentCompleted {
		if err := recordCompletedDonation(ctx, database, lockMgr, cfg, logger, appt); err != nil {
			return nil, err
		}
	}

	appt.Status = next
	if err := database.UpdateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	logger.Info("Appointment status updated",
		zap.String("appointment_id", appt.ID),
		zap.String("status", string(next)),
		zap.String("actor_role", string(actor.Role)))

	return appt, nil
}

// CancelAppointment is the donor-facing cancel operation
func CancelAppointment(
	ctx context.Context,
	database AppointmentStatusStore,
	lockMgr *locks.Manager,
	cfg *config.Config,
	logger *zap.Logger,
	appointmentID string,
	actor model.Actor,
) (*model.Appointment, error) {
	return UpdateAppointmentStatus(ctx, database, lockMgr, cfg, logger, appointmentID, model.AppointmentCancelled, actor)
}

func authorizeTransition(appt *model.Appointment, next model.AppointmentStatus, actor model.Actor) error {
	switch next {
	case model.AppointmentApproved, model.AppointmentCompleted:
		if !actor.Staff() {
			return &model.ForbiddenError{Message: "only staff may approve or complete appointments"}
		}
	case model.AppointmentCancelled:
		if actor.Staff() {
			return nil
		}
		if actor.Role == model.RoleDonor && actor.DonorID == appt.DonorID {
			return nil
		}
		return &model.ForbiddenError{Message: "only staff or the booking donor may cancel"}
	}
	return nil
}

// recordCompletedDonation creates the pending blood unit for a completed
// appointment and stamps the donor's last donation date. Unit creation is
// idempotent per appointment: a retried completion never mints a second bag.
func recordCompletedDonation(
	ctx context.Context,
	database AppointmentStatusStore,
	lockMgr *locks.Manager,
	cfg *config.Config,
	logger *zap.Logger,
	appt *model.Appointment,
) error {
	unlock := lockMgr.Lock("donor:" + appt.DonorID)
	defer unlock()

	_, err := database.GetUnitByAppointment(ctx, appt.ID)
	if err == nil {
		return nil
	}
	var notFound *model.ErrNotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to look up existing unit: %w", err)
	}

	bloodType := appt.BloodType
	if bloodType == "" {
		bloodType = "UNKNOWN"
	}

	unit := &model.BloodUnit{
		ID:                  uuid.New().String(),
		BloodType:           bloodType,
		Quantity:            1,
		CollectedAt:         appt.ScheduledAt,
		ExpiryDate:          appt.ScheduledAt.AddDate(0, 0, cfg.UnitShelfLifeDays),
		TestStatus:          model.TestPending,
		SafetyFlag:          model.FlagPending,
		Status:              model.UnitUntested,
		DonorID:             appt.DonorID,
		DonorName:           appt.DonorName,
		SourceAppointmentID: appt.ID,
	}
	if err := database.InsertUnit(ctx, unit); err != nil {
		return fmt.Errorf("failed to insert blood unit: %w", err)
	}

	donor, err := database.GetDonor(ctx, appt.DonorID)
	if err != nil {
		return fmt.Errorf("failed to fetch donor: %w", err)
	}
	donated := appt.ScheduledAt
	donor.LastDonationDate = &donated
	if err := database.UpdateDonor(ctx, donor); err != nil {
		return fmt.Errorf("failed to stamp last donation date: %w", err)
	}

	logger.Info("Blood unit collected",
		zap.String("unit_id", unit.ID),
		zap.String("appointment_id", appt.ID),
		zap.String("blood_type", unit.BloodType),
		zap.Time("expiry", unit.ExpiryDate))

	return nil
}
