package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// GetCamp retrieves a camp by ID
func (d *DB) GetCamp(ctx context.Context, id string) (*model.Camp, error) {
	var camp model.Camp
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, province, district, location, nearest_hospital,
		       lat, lng, date, start_time, end_time, capacity, created_at
		FROM camp WHERE id = $1
	`, id).Scan(&camp.ID, &camp.Name, &camp.Province, &camp.District, &camp.Location,
		&camp.NearestHospital, &camp.Lat, &camp.Lng, &camp.Date, &camp.StartTime,
		&camp.EndTime, &camp.Capacity, &camp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "camp", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query camp: %w", err)
	}
	return &camp, nil
}

// ListCamps returns all camps ordered by date
func (d *DB) ListCamps(ctx context.Context) ([]model.Camp, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, province, district, location, nearest_hospital,
		       lat, lng, date, start_time, end_time, capacity, created_at
		FROM camp ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query camps: %w", err)
	}
	defer rows.Close()

	var camps []model.Camp
	for rows.Next() {
		var camp model.Camp
		if err := rows.Scan(&camp.ID, &camp.Name, &camp.Province, &camp.District,
			&camp.Location, &camp.NearestHospital, &camp.Lat, &camp.Lng, &camp.Date,
			&camp.StartTime, &camp.EndTime, &camp.Capacity, &camp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan camp: %w", err)
		}
		camps = append(camps, camp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating camps: %w", err)
	}
	return camps, nil
}

// InsertCamp stores a new camp record
func (d *DB) InsertCamp(ctx context.Context, camp *model.Camp) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO camp (id, name, province, district, location, nearest_hospital,
		                  lat, lng, date, start_time, end_time, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, camp.ID, camp.Name, camp.Province, camp.District, camp.Location,
		camp.NearestHospital, camp.Lat, camp.Lng, camp.Date, camp.StartTime,
		camp.EndTime, camp.Capacity, camp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert camp: %w", err)
	}
	return nil
}

// DeleteCamp removes a camp; its registrations cascade
func (d *DB) DeleteCamp(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM camp WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete camp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ErrNotFound{Entity: "camp", ID: id}
	}
	return nil
}

// GetRegistration retrieves a camp registration for a donor
func (d *DB) GetRegistration(ctx context.Context, campID, donorID string) (*model.Registration, error) {
	var reg model.Registration
	err := d.pool.QueryRow(ctx, `
		SELECT id, camp_id, donor_id, checked_in, created_at
		FROM camp_registration WHERE camp_id = $1 AND donor_id = $2
	`, campID, donorID).Scan(&reg.ID, &reg.CampID, &reg.DonorID, &reg.CheckedIn, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "registration", ID: campID + "/" + donorID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query registration: %w", err)
	}
	return &reg, nil
}

// ListRegistrations returns all registrations for a camp
func (d *DB) ListRegistrations(ctx context.Context, campID string) ([]model.Registration, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, camp_id, donor_id, checked_in, created_at
		FROM camp_registration WHERE camp_id = $1 ORDER BY created_at
	`, campID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.CampID, &reg.DonorID, &reg.CheckedIn, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}
	return regs, nil
}

// InsertRegistration stores a new camp registration
func (d *DB) InsertRegistration(ctx context.Context, reg *model.Registration) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO camp_registration (id, camp_id, donor_id, checked_in, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reg.ID, reg.CampID, reg.DonorID, reg.CheckedIn, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// UpdateRegistration replaces an existing registration record
func (d *DB) UpdateRegistration(ctx context.Context, reg *model.Registration) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE camp_registration SET checked_in = $2 WHERE id = $1
	`, reg.ID, reg.CheckedIn)
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ErrNotFound{Entity: "registration", ID: reg.ID}
	}
	return nil
}
