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

const appointmentColumns = `id, donor_id, donor_name, center_type, center_id, center_name,
       scheduled_at, donation_type, blood_type, status, created_at`

func scanAppointment(row pgx.Row, appt *model.Appointment) error {
	return row.Scan(&appt.ID, &appt.DonorID, &appt.DonorName, &appt.CenterType,
		&appt.CenterID, &appt.CenterName, &appt.ScheduledAt, &appt.DonationType,
		&appt.BloodType, &appt.Status, &appt.CreatedAt)
}

// GetAppointment retrieves an appointment by ID
func (d *DB) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	var appt model.Appointment
	err := scanAppointment(d.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointment WHERE id = $1`, id), &appt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "appointment", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment: %w", err)
	}
	return &appt, nil
}

// ListAppointments returns appointments matching the filter, oldest first
func (d *DB) ListAppointments(ctx context.Context, filter db.AppointmentFilter) ([]model.Appointment, error) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.DonorID != "" {
		conditions = append(conditions, "donor_id = "+arg(filter.DonorID))
	}
	if filter.CenterID != "" {
		conditions = append(conditions, "center_id = "+arg(filter.CenterID))
	}
	if filter.Date != nil {
		conditions = append(conditions, "scheduled_at::date = "+arg(*filter.Date)+"::date")
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "status IN ('Scheduled', 'Approved')")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointment`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scheduled_at"

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		if err := scanAppointment(rows, &appt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}
	return appointments, nil
}

// InsertAppointment stores a new appointment record
func (d *DB) InsertAppointment(ctx context.Context, appt *model.Appointment) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO appointment (id, donor_id, donor_name, center_type, center_id,
		                         center_name, scheduled_at, donation_type, blood_type,
		                         status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, appt.ID, appt.DonorID, appt.DonorName, appt.CenterType, appt.CenterID,
		appt.CenterName, appt.ScheduledAt, appt.DonationType, appt.BloodType,
		appt.Status, appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// UpdateAppointment replaces an existing appointment record
func (d *DB) UpdateAppointment(ctx context.Context, appt *model.Appointment) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE appointment
		SET donor_name = $2, center_type = $3, center_id = $4, center_name = $5,
		    scheduled_at = $6, donation_type = $7, blood_type = $8, status = $9
		WHERE id = $1
	`, appt.ID, appt.DonorName, appt.CenterType, appt.CenterID, appt.CenterName,
		appt.ScheduledAt, appt.DonationType, appt.BloodType, appt.Status)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ErrNotFound{Entity: "appointment", ID: appt.ID}
	}
	return nil
}
