package services

import (
	"context"
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

// BookingRequest carries the input to BookAppointment
type BookingRequest struct {
	DonorID      string
	CenterType   model.CenterType
	CenterID     string
	CenterName   string
	ScheduledAt  time.Time
	DonationType model.DonationType
	BloodType    string
}

// BookingStore defines the database operations needed to book an appointment
type BookingStore interface {
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	UpdateDonor(ctx context.Context, donor *model.Donor) error
	GetCamp(ctx context.Context, id string) (*model.Camp, error)
	ListAppointments(ctx context.Context, filter db.AppointmentFilter) ([]model.Appointment, error)
	InsertAppointment(ctx context.Context, appt *model.Appointment) error
}

// Notifier delivers booking confirmations and alerts. A nil Notifier disables
// email without affecting the booking.
type Notifier interface {
	SendEmail(to, subject, body string) error
}

// BookAppointment books a donation slot for a donor at a hospital or camp.
// Eligibility is re-evaluated for the booking date under the donor's lock;
// camp bookings are additionally checked against the camp's date and window
// and rejected when the donor already holds an active booking at that camp,
// and every booking respects the configured slot spacing at the center.
// Nothing is persisted when any check fails.
func BookAppointment(
	ctx context.Context,
	database BookingStore,
	lockMgr *locks.Manager,
	cfg *config.Config,
	logger *zap.Logger,
	notifier Notifier,
	req BookingRequest,
) (*model.Appointment, error) {
	if err := validateBooking(&req); err != nil {
		return nil, err
	}

	unlock := lockMgr.LockMany("donor:"+req.DonorID, "center:"+req.CenterID)
	defer unlock()

	donor, err := database.GetDonor(ctx, req.DonorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donor: %w", err)
	}

	// Adopt the declared blood type if the donor record doesn't know it yet
	if req.BloodType != "" && (donor.BloodType == "" || donor.BloodType == "UNKNOWN") {
		donor.BloodType = req.BloodType
		if err := database.UpdateDonor(ctx, donor); err != nil {
			return nil, fmt.Errorf("failed to update donor blood type: %w", err)
		}
	}

	history, err := database.ListAppointments(ctx, db.AppointmentFilter{DonorID: req.DonorID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donation history: %w", err)
	}

	verdict := eligibility.Evaluate(donor, history, req.DonationType, req.ScheduledAt, cfg)
	if !verdict.Eligible {
		return nil, &model.EligibilityError{
			DonorID:          req.DonorID,
			Reason:           verdict.Reason,
			Permanent:        verdict.Permanent,
			NextEligibleDate: verdict.NextEligibleDate,
		}
	}

	now := time.Now()
	centerName := req.CenterName

	switch req.CenterType {
	case model.CenterCamp:
		camp, err := database.GetCamp(ctx, req.CenterID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch camp: %w", err)
		}
		if err := slots.CheckCampSlot(camp, req.ScheduledAt, now); err != nil {
			return nil, err
		}
		// A donor holds at most one active booking per camp
		for _, prior := range history {
			if prior.Active() && prior.CenterType == model.CenterCamp && prior.CenterID == req.CenterID {
				return nil, &model.DuplicateError{Entity: "camp booking", ID: req.CenterID}
			}
		}
		centerName = camp.Name
	case model.CenterHospital:
		if err := slots.CheckHospitalSlot(req.ScheduledAt, now); err != nil {
			return nil, err
		}
		if centerName == "" {
			centerName = "Hospital #" + req.CenterID
		}
	}

	date := req.ScheduledAt
	sameCenterDay, err := database.ListAppointments(ctx, db.AppointmentFilter{CenterID: req.CenterID, Date: &date})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch same-day bookings: %w", err)
	}
	spacing := time.Duration(cfg.SlotSpacingMinutes) * time.Minute
	if err := slots.CheckSpacing(sameCenterDay, req.ScheduledAt, spacing); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ID:           uuid.New().String(),
		DonorID:      donor.ID,
		DonorName:    donor.Name,
		CenterType:   req.CenterType,
		CenterID:     req.CenterID,
		CenterName:   centerName,
		ScheduledAt:  req.ScheduledAt,
		DonationType: req.DonationType,
		BloodType:    donor.BloodType,
		Status:       model.AppointmentScheduled,
		CreatedAt:    now,
	}

	if err := database.InsertAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to insert appointment: %w", err)
	}

	logger.Info("Appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("donor_id", donor.ID),
		zap.String("center_type", string(req.CenterType)),
		zap.String("center_id", req.CenterID),
		zap.Time("scheduled_at", req.ScheduledAt))

	if notifier != nil && donor.Email != "" {
		subject := "Donation appointment confirmed"
		body := fmt.Sprintf("Your donation appointment at %s on %s is confirmed.",
			centerName, req.ScheduledAt.Format("2006-01-02 15:04"))
		if err := notifier.SendEmail(donor.Email, subject, body); err != nil {
			// Email failure never unwinds a committed booking
			logger.Warn("Failed to send booking confirmation",
				zap.String("appointment_id", appt.ID),
				zap.Error(err))
		}
	}

	return appt, nil
}

func validateBooking(req *BookingRequest) error {
	if req.DonorID == "" {
		return &model.ValidationError{Field: "donorId", Message: "required"}
	}
	if req.CenterID == "" {
		return &model.ValidationError{Field: "centerId", Message: "required"}
	}
	if req.ScheduledAt.IsZero() {
		return &model.ValidationError{Field: "dateTime", Message: "required"}
	}
	switch req.CenterType {
	case model.CenterHospital, model.CenterCamp:
	case "":
		req.CenterType = model.CenterHospital
	default:
		return &model.ValidationError{Field: "centerType", Message: "must be HOSPITAL or CAMP"}
	}
	if req.DonationType == "" {
		req.DonationType = model.DonationWholeBlood
	}
	return nil
}
