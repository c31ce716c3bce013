package db

import (
	"context"
	"time"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// AppointmentFilter narrows appointment listings. Zero values match everything.
type AppointmentFilter struct {
	DonorID    string
	CenterID   string
	Date       *time.Time // matches the calendar day
	Status     model.AppointmentStatus
	ActiveOnly bool // Scheduled or Approved
}

// UnitFilter narrows blood unit listings. Zero values match everything.
type UnitFilter struct {
	BloodType  string
	TestStatus model.TestStatus
	Status     model.UnitStatus
}

// DonorStore defines donor persistence operations
type DonorStore interface {
	GetDonor(ctx context.Context, id string) (*model.Donor, error)
	InsertDonor(ctx context.Context, donor *model.Donor) error
	UpdateDonor(ctx context.Context, donor *model.Donor) error
}

// AppointmentStore defines appointment persistence operations
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.Appointment, error)
	InsertAppointment(ctx context.Context, appt *model.Appointment) error
	UpdateAppointment(ctx context.Context, appt *model.Appointment) error
}

// CampStore defines camp and registration persistence operations
type CampStore interface {
	GetCamp(ctx context.Context, id string) (*model.Camp, error)
	ListCamps(ctx context.Context) ([]model.Camp, error)
	InsertCamp(ctx context.Context, camp *model.Camp) error
	DeleteCamp(ctx context.Context, id string) error
	GetRegistration(ctx context.Context, campID, donorID string) (*model.Registration, error)
	ListRegistrations(ctx context.Context, campID string) ([]model.Registration, error)
	InsertRegistration(ctx context.Context, reg *model.Registration) error
	UpdateRegistration(ctx context.Context, reg *model.Registration) error
}

// UnitStore defines blood unit persistence operations
type UnitStore interface {
	GetUnit(ctx context.Context, id string) (*model.BloodUnit, error)
	GetUnitByAppointment(ctx context.Context, appointmentID string) (*model.BloodUnit, error)
	ListUnits(ctx context.Context, filter UnitFilter) ([]model.BloodUnit, error)
	InsertUnit(ctx context.Context, unit *model.BloodUnit) error
	UpdateUnit(ctx context.Context, unit *model.BloodUnit) error
}

// RequestStore defines emergency request persistence operations
type RequestStore interface {
	GetRequest(ctx context.Context, id string) (*model.EmergencyRequest, error)
	ListRequests(ctx context.Context) ([]model.EmergencyRequest, error)
	InsertRequest(ctx context.Context, req *model.EmergencyRequest) error
	UpdateRequest(ctx context.Context, req *model.EmergencyRequest) error
}

// Database defines the interface for all persistence operations.
// Both the in-memory MemStore and postgres.DB implement this interface.
type Database interface {
	DonorStore
	AppointmentStore
	CampStore
	UnitStore
	RequestStore
}
