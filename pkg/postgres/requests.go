package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// GetRequest retrieves an emergency request by ID
func (d *DB) GetRequest(ctx context.Context, id string) (*model.EmergencyRequest, error) {
	var req model.EmergencyRequest
	err := d.pool.QueryRow(ctx, `
		SELECT id, hospital, blood_type, urgency, units_requested, units_fulfilled,
		       status, created_at
		FROM emergency_request WHERE id = $1
	`, id).Scan(&req.ID, &req.Hospital, &req.BloodType, &req.Urgency,
		&req.UnitsRequested, &req.UnitsFulfilled, &req.Status, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "emergency request", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query emergency request: %w", err)
	}
	return &req, nil
}

// ListRequests returns all emergency requests, newest first
func (d *DB) ListRequests(ctx context.Context) ([]model.EmergencyRequest, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, hospital, blood_type, urgency, units_requested, units_fulfilled,
		       status, created_at
		FROM emergency_request ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query emergency requests: %w", err)
	}
	defer rows.Close()

	var requests []model.EmergencyRequest
	for rows.Next() {
		var req model.EmergencyRequest
		if err := rows.Scan(&req.ID, &req.Hospital, &req.BloodType, &req.Urgency,
			&req.UnitsRequested, &req.UnitsFulfilled, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emergency request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emergency requests: %w", err)
	}
	return requests, nil
}

// InsertRequest stores a new emergency request
func (d *DB) InsertRequest(ctx context.Context, req *model.EmergencyRequest) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO emergency_request (id, hospital, blood_type, urgency,
		                               units_requested, units_fulfilled, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, req.ID, req.Hospital, req.BloodType, req.Urgency, req.UnitsRequested,
		req.UnitsFulfilled, req.Status, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert emergency request: %w", err)
	}
	return nil
}

// UpdateRequest replaces an existing emergency request record
func (d *DB) UpdateRequest(ctx context.Context, req *model.EmergencyRequest) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE emergency_request
		SET units_fulfilled = $2, status = $3
		WHERE id = $1
	`, req.ID, req.UnitsFulfilled, req.Status)
	if err != nil {
		return fmt.Errorf("failed to update emergency request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ErrNotFound{Entity: "emergency request", ID: req.ID}
	}
	return nil
}
