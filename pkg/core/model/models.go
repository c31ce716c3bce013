package model

import (
	"time"
)

// SafetyStatus is the donor-level safety state derived from lab results.
// POSITIVE is terminal: there is no transition back to CLEAR.
type SafetyStatus string

const (
	SafetyClear    SafetyStatus = "CLEAR"
	SafetyPositive SafetyStatus = "POSITIVE"
)

// DonationType identifies what is collected at an appointment.
// The required interval between donations is configured per type.
type DonationType string

const (
	DonationWholeBlood DonationType = "whole_blood"
	DonationPlatelets  DonationType = "platelets"
	DonationPlasma     DonationType = "plasma"
)

// Donor represents a registered donor
type Donor struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Email            string       `json:"email,omitempty"`
	Sex              string       `json:"sex,omitempty"`
	BloodType        string       `json:"bloodType"`
	Province         string       `json:"province,omitempty"`
	District         string       `json:"district,omitempty"`
	SafetyStatus     SafetyStatus `json:"safetyStatus"`
	SafetyReason     string       `json:"safetyReason,omitempty"`
	LastDonationDate *time.Time   `json:"lastDonationDate,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// Blocked reports whether the donor is permanently excluded from donating
func (d *Donor) Blocked() bool {
	return d.SafetyStatus == SafetyPositive
}

// CenterType distinguishes booking targets
type CenterType string

const (
	CenterHospital CenterType = "HOSPITAL"
	CenterCamp     CenterType = "CAMP"
)

// AppointmentStatus is the booking lifecycle state
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentApproved  AppointmentStatus = "Approved"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// Appointment represents a donation booking at a hospital or camp
type Appointment struct {
	ID           string            `json:"id"`
	DonorID      string            `json:"donorId"`
	DonorName    string            `json:"donorName,omitempty"`
	CenterType   CenterType        `json:"centerType"`
	CenterID     string            `json:"centerId"`
	CenterName   string            `json:"centerName,omitempty"`
	ScheduledAt  time.Time         `json:"scheduledAt"`
	DonationType DonationType      `json:"donationType"`
	BloodType    string            `json:"bloodType,omitempty"`
	Status       AppointmentStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Active reports whether the booking still occupies a slot
func (a *Appointment) Active() bool {
	return a.Status == AppointmentScheduled || a.Status == AppointmentApproved
}

// CanTransitionTo reports whether the state machine permits moving to next.
// Completed and Cancelled are terminal.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	switch a.Status {
	case AppointmentScheduled:
		return next == AppointmentApproved || next == AppointmentCancelled
	case AppointmentApproved:
		return next == AppointmentCompleted || next == AppointmentCancelled
	default:
		return false
	}
}

// CampStatus is derived from the current time against the camp window
type CampStatus string

const (
	CampUpcoming CampStatus = "UPCOMING"
	CampOngoing  CampStatus = "ONGOING"
	CampEnded    CampStatus = "ENDED"
)

// Camp represents a scheduled donation camp.
// Capacity nil means the camp accepts unlimited registrations.
type Camp struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Province        string    `json:"province,omitempty"`
	District        string    `json:"district,omitempty"`
	Location        string    `json:"location,omitempty"`
	NearestHospital string    `json:"nearestHospital,omitempty"`
	Lat             float64   `json:"lat,omitempty"`
	Lng             float64   `json:"lng,omitempty"`
	Date            time.Time `json:"date"`      // midnight, camp's local day
	StartTime       string    `json:"startTime"` // "15:04"
	EndTime         string    `json:"endTime"`   // "15:04"
	Capacity        *int      `json:"capacity,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Window returns the camp's opening and closing instants
func (c *Camp) Window() (start, end time.Time, err error) {
	start, err = atClock(c.Date, c.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = atClock(c.Date, c.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// StatusAt derives the camp status for a given instant
func (c *Camp) StatusAt(now time.Time) CampStatus {
	start, end, err := c.Window()
	if err != nil {
		return CampUpcoming
	}
	switch {
	case now.Before(start):
		return CampUpcoming
	case now.After(end):
		return CampEnded
	default:
		return CampOngoing
	}
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// Registration ties a donor to a camp. At most one active per (camp, donor) pair.
type Registration struct {
	ID        string    `json:"id"`
	CampID    string    `json:"campId"`
	DonorID   string    `json:"donorId"`
	CheckedIn bool      `json:"checkedIn"`
	CreatedAt time.Time `json:"createdAt"`
}

// TestStatus is the lab test state of a collected unit. Terminal states are immutable.
type TestStatus string

const (
	TestPending    TestStatus = "PENDING"
	TestedSafe     TestStatus = "TESTED_SAFE"
	TestedPositive TestStatus = "TESTED_POSITIVE"
)

// SafetyFlag marks whether a unit is safe to dispense
type SafetyFlag string

const (
	FlagPending   SafetyFlag = "PENDING"
	FlagSafe      SafetyFlag = "SAFE"
	FlagBiohazard SafetyFlag = "BIO-HAZARD"
)

// UnitStatus is the inventory state of a unit
type UnitStatus string

const (
	UnitUntested   UnitStatus = "UNTESTED"
	UnitAvailable  UnitStatus = "AVAILABLE"
	UnitDiscarded  UnitStatus = "DISCARD"
	UnitDispatched UnitStatus = "DISPATCHED"
)

// BloodUnit represents one collected bag of blood moving through the safety pipeline
type BloodUnit struct {
	ID                  string     `json:"id"`
	BloodType           string     `json:"bloodType"`
	Quantity            int        `json:"quantity"`
	CollectedAt         time.Time  `json:"collectedAt"`
	ExpiryDate          time.Time  `json:"expiryDate"`
	TestStatus          TestStatus `json:"testStatus"`
	SafetyFlag          SafetyFlag `json:"safetyFlag"`
	Status              UnitStatus `json:"status"`
	DonorID             string     `json:"donorId,omitempty"`
	DonorName           string     `json:"donorName,omitempty"`
	SourceAppointmentID string     `json:"sourceAppointmentId,omitempty"`
}

// Tested reports whether the unit has reached a terminal test state
func (u *BloodUnit) Tested() bool {
	return u.TestStatus != TestPending
}

// Dispensable reports whether the unit may be selected for dispatch at the given time
func (u *BloodUnit) Dispensable(now time.Time) bool {
	return u.Status == UnitAvailable && u.SafetyFlag == FlagSafe && u.Quantity > 0 &&
		!u.ExpiryDate.Before(truncateToDay(now))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RequestStatus is the fulfillment state of an emergency request
type RequestStatus string

const (
	RequestOpen      RequestStatus = "OPEN"
	RequestPartial   RequestStatus = "PARTIAL"
	RequestFulfilled RequestStatus = "FULFILLED"
)

// EmergencyRequest represents a hospital's request for units of a blood type
type EmergencyRequest struct {
	ID             string        `json:"id"`
	Hospital       string        `json:"hospital"`
	BloodType      string        `json:"bloodType"`
	Urgency        string        `json:"urgency"`
	UnitsRequested int           `json:"unitsRequested"`
	UnitsFulfilled int           `json:"unitsFulfilled"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Remaining returns how many units are still needed
func (r *EmergencyRequest) Remaining() int {
	return r.UnitsRequested - r.UnitsFulfilled
}

// RecomputeStatus derives the request status from the fulfillment counters
func (r *EmergencyRequest) RecomputeStatus() {
	switch {
	case r.UnitsFulfilled >= r.UnitsRequested:
		r.Status = RequestFulfilled
	case r.UnitsFulfilled > 0:
		r.Status = RequestPartial
	default:
		r.Status = RequestOpen
	}
}

// Role identifies who is performing an operation
type Role string

const (
	RoleDonor Role = "DONOR"
	RoleStaff Role = "STAFF"
	RoleLab   Role = "LAB"
)

// Actor is the authenticated caller as reported by the auth gateway.
// The engine never trusts client-side checks; it re-validates everything.
type Actor struct {
	Role    Role
	DonorID string
}

// Staff reports whether the actor holds a staff or lab role
func (a Actor) Staff() bool {
	return a.Role == RoleStaff || a.Role == RoleLab
}
