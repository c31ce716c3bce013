package slots

import (
	"fmt"
	"time"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// CheckHospitalSlot validates a requested hospital booking time.
// Hospitals have no capacity ceiling; the only constraint is a future time.
func CheckHospitalSlot(requested, now time.Time) error {
	if !requested.After(now) {
		return &model.ValidationError{Field: "dateTime", Message: "booking time must be in the future"}
	}
	return nil
}

// CheckCampSlot validates a requested camp booking time: it must be in the
// future, on the camp's date, and inside the camp's open window.
func CheckCampSlot(camp *model.Camp, requested, now time.Time) error {
	if !requested.After(now) {
		return &model.ValidationError{Field: "dateTime", Message: "booking time must be in the future"}
	}

	ry, rm, rd := requested.Date()
	cy, cm, cd := camp.Date.Date()
	if ry != cy || rm != cm || rd != cd {
		return &model.ValidationError{
			Field:   "dateTime",
			Message: fmt.Sprintf("camp %s runs on %s", camp.ID, camp.Date.Format("2006-01-02")),
		}
	}

	start, end, err := camp.Window()
	if err != nil {
		return fmt.Errorf("failed to resolve camp window: %w", err)
	}
	if requested.Before(start) || requested.After(end) {
		return &model.ValidationError{
			Field:   "dateTime",
			Message: fmt.Sprintf("time is outside the camp window %s-%s", camp.StartTime, camp.EndTime),
		}
	}

	return nil
}

// CheckSpacing rejects a requested time closer than spacing to any
// non-cancelled booking at the same center that day. Zero spacing disables
// the check.
func CheckSpacing(existing []model.Appointment, requested time.Time, spacing time.Duration) error {
	if spacing <= 0 {
		return nil
	}
	for i := range existing {
		appt := &existing[i]
		if appt.Status == model.AppointmentCancelled {
			continue
		}
		gap := requested.Sub(appt.ScheduledAt)
		if gap < 0 {
			gap = -gap
		}
		if gap < spacing {
			return &model.ValidationError{
				Field:   "dateTime",
				Message: fmt.Sprintf("slot taken; pick a time at least %d minutes from %s", int(spacing.Minutes()), appt.ScheduledAt.Format("15:04")),
			}
		}
	}
	return nil
}

// CheckCampCapacity rejects registration when the camp is at capacity.
// A nil capacity means the camp is unbounded. The caller must hold the camp's
// lock so the count cannot move between check and append.
func CheckCampCapacity(camp *model.Camp, registered int) error {
	if camp.Capacity == nil {
		return nil
	}
	if registered >= *camp.Capacity {
		return &model.CapacityError{CampID: camp.ID, Capacity: *camp.Capacity}
	}
	return nil
}
