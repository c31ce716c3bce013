package services

import (
	"context"
	"fmt"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
)

// InventoryStore defines the read operations over blood units
type InventoryStore interface {
	ListUnits(ctx context.Context, filter db.UnitFilter) ([]model.BloodUnit, error)
}

// ListInventory returns all blood units, or only those of one blood type
func ListInventory(ctx context.Context, database InventoryStore, bloodType string) ([]model.BloodUnit, error) {
	units, err := database.ListUnits(ctx, db.UnitFilter{BloodType: bloodType})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	return units, nil
}

// ListPendingUnits returns units still awaiting lab screening
func ListPendingUnits(ctx context.Context, database InventoryStore) ([]model.BloodUnit, error) {
	units, err := database.ListUnits(ctx, db.UnitFilter{TestStatus: model.TestPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending units: %w", err)
	}
	return units, nil
}

// AppointmentQueryStore defines the read operations over appointments
type AppointmentQueryStore interface {
	ListAppointments(ctx context.Context, filter db.AppointmentFilter) ([]model.Appointment, error)
}

// ListAppointments returns appointments matching the filter
func ListAppointments(ctx context.Context, database AppointmentQueryStore, filter db.AppointmentFilter) ([]model.Appointment, error) {
	appointments, err := database.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}
