package eligibility

import (
	"fmt"
	"time"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// Verdict is the result of an eligibility evaluation
type Verdict struct {
	Eligible         bool       `json:"eligible"`
	Reason           string     `json:"reason,omitempty"`
	Permanent        bool       `json:"permanent,omitempty"`
	NextEligibleDate *time.Time `json:"nextEligibleDate,omitempty"`
}

// IntervalTable resolves the required gap between donations in days.
// internal/config.Config implements this.
type IntervalTable interface {
	IntervalDays(donationType, sex string) int
}

// Evaluate returns the eligibility verdict for a donor donating on onDate.
// It is a pure function of the donor record and their appointment history and
// is re-invoked at every booking; verdicts are never cached because the latest
// completed donation moves the window.
//
// Rules in priority order:
//  1. A positive safety status blocks permanently.
//  2. Less than the configured interval since the last completed donation
//     blocks until the interval has elapsed.
//
// Holding another booking does not block: donors may book concurrent
// appointments across centers, and only completion starts a new interval.
func Evaluate(donor *model.Donor, history []model.Appointment, donationType model.DonationType, onDate time.Time, intervals IntervalTable) Verdict {
	if donor.Blocked() {
		reason := donor.SafetyReason
		if reason == "" {
			reason = "blocked due to a positive lab result"
		}
		return Verdict{Eligible: false, Reason: reason, Permanent: true}
	}

	intervalDays := intervals.IntervalDays(string(donationType), donor.Sex)

	if last := lastCompletedDonation(donor, history); last != nil {
		elapsed := daysBetween(*last, onDate)
		if elapsed < intervalDays {
			next := last.AddDate(0, 0, intervalDays)
			return Verdict{
				Eligible:         false,
				Reason:           fmt.Sprintf("last donation was %d days ago; %d days required between donations", elapsed, intervalDays),
				NextEligibleDate: &next,
			}
		}
	}

	return Verdict{Eligible: true}
}

// lastCompletedDonation returns the most recent completed donation date,
// preferring the donor's stamped LastDonationDate over the appointment scan
func lastCompletedDonation(donor *model.Donor, history []model.Appointment) *time.Time {
	var last *time.Time
	if donor.LastDonationDate != nil {
		d := *donor.LastDonationDate
		last = &d
	}
	for _, appt := range history {
		if appt.Status != model.AppointmentCompleted {
			continue
		}
		d := appt.ScheduledAt
		if last == nil || d.After(*last) {
			last = &d
		}
	}
	return last
}

// daysBetween counts whole calendar days from a to b
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
