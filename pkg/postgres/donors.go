package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// GetDonor retrieves a donor by ID
func (d *DB) GetDonor(ctx context.Context, id string) (*model.Donor, error) {
	var donor model.Donor
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, email, sex, blood_type, province, district,
		       safety_status, safety_reason, last_donation_date, created_at
		FROM donor WHERE id = $1
	`, id).Scan(&donor.ID, &donor.Name, &donor.Email, &donor.Sex, &donor.BloodType,
		&donor.Province, &donor.District, &donor.SafetyStatus, &donor.SafetyReason,
		&donor.LastDonationDate, &donor.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.ErrNotFound{Entity: "donor", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query donor: %w", err)
	}
	return &donor, nil
}

// InsertDonor stores a new donor record
func (d *DB) InsertDonor(ctx context.Context, donor *model.Donor) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO donor (id, name, email, sex, blood_type, province, district,
		                   safety_status, safety_reason, last_donation_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, donor.ID, donor.Name, donor.Email, donor.Sex, donor.BloodType,
		donor.Province, donor.District, donor.SafetyStatus, donor.SafetyReason,
		donor.LastDonationDate, donor.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert donor: %w", err)
	}
	return nil
}

// UpdateDonor replaces an existing donor record
func (d *DB) UpdateDonor(ctx context.Context, donor *model.Donor) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE donor
		SET name = $2, email = $3, sex = $4, blood_type = $5, province = $6,
		    district = $7, safety_status = $8, safety_reason = $9,
		    last_donation_date = $10
		WHERE id = $1
	`, donor.ID, donor.Name, donor.Email, donor.Sex, donor.BloodType,
		donor.Province, donor.District, donor.SafetyStatus, donor.SafetyReason,
		donor.LastDonationDate)
	if err != nil {
		return fmt.Errorf("failed to update donor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.ErrNotFound{Entity: "donor", ID: donor.ID}
	}
	return nil
}
