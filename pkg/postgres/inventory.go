package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
	"github.com/lifeline-network/lifeline-engine/pkg/db"
)

const unitColumns = `id, blood_type, quantity, collected_at, expiry_date,
       test_status, safety_flag, status, donor_id, donor_name, source_appointment_id`

func scanUnit(row pgx.Row, unit *model.BloodUnit) error {
	return row.Scan(&unit.ID, &unit.BloodType, &unit.Quantity, &unit.CollectedAt,
		&unit.ExpiryDate, &unit.TestStatus, &unit.SafetyFlag, &unit.Status,
		&unit.DonorID, &unit.DonorName, &unit.SourceAppointmentID)
}

// GetUnit retrieves a blood unit by ID
func (d *DB) GetUnit(ctx context.Context, id string) (*model.BloodUnit, error) {
	var unit model.BloodUnit
	err := scanUnit(d.pool.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM blood_unit WHERE id = $1`, id), &unit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "blood unit", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blood unit: %w", err)
	}
	return &unit, nil
}

// GetUnitByAppointment retrieves the unit collected at an appointment, if any
func (d *DB) GetUnitByAppointment(ctx context.Context, appointmentID string) (*model.BloodUnit, error) {
	var unit model.BloodUnit
	err := scanUnit(d.pool.QueryRow(ctx,
		`SELECT `+unitColumns+` FROM blood_unit WHERE source_appointment_id = $1`,
		appointmentID), &unit)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "blood unit", ID: "appointment " + appointmentID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blood unit by appointment: %w", err)
	}
	return &unit, nil
}

// ListUnits returns blood units matching the filter, oldest expiry first
func (d *DB) ListUnits(ctx context.Context, filter db.UnitFilter) ([]model.BloodUnit, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.BloodType != "" {
		conditions = append(conditions, "blood_type = "+arg(filter.BloodType))
	}
	if filter.TestStatus != "" {
		conditions = append(conditions, "test_status = "+arg(string(filter.TestStatus)))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}

	query := `SELECT ` + unitColumns + ` FROM blood_unit`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY expiry_date, id"

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query blood units: %w", err)
	}
	defer rows.Close()

	var units []model.BloodUnit
	for rows.Next() {
		var unit model.BloodUnit
		if err := scanUnit(rows, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan blood unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating blood units: %w", err)
	}
	return units, nil
}

// InsertUnit stores a new blood unit record
func (d *DB) InsertUnit(ctx context.Context, unit *model.BloodUnit) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO blood_unit (id, blood_type, quantity, collected_at, expiry_date,
		                        test_status, safety_flag, status, donor_id, donor_name,
		                        source_appointment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, unit.ID, unit.BloodType, unit.Quantity, unit.CollectedAt, unit.ExpiryDate,
		unit.TestStatus, unit.SafetyFlag, unit.Status, unit.DonorID, unit.DonorName,
		unit.SourceAppointmentID)
	if err != nil {
		return fmt.Errorf("failed to insert blood unit: %w", err)
	}
	return nil
}

// UpdateUnit replaces an existing blood unit record
func (d *DB) UpdateUnit(ctx context.Context, unit *model.BloodUnit) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE blood_unit
		SET quantity = $2, test_status = $3, safety_flag = $4, status = $5
		WHERE id = $1
	`, unit.ID, unit.Quantity, unit.TestStatus, unit.SafetyFlag, unit.Status)
	if err != nil {
		return fmt.Errorf("failed to update blood unit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ErrNotFound{Entity: "blood unit", ID: unit.ID}
	}
	return nil
}
