package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// DonorStore defines the database operations needed to register a donor
type DonorStore interface {
	InsertDonor(ctx context.Context, donor *model.Donor) error
}

// RegisterDonorRequest carries the input to RegisterDonor
type RegisterDonorRequest struct {
	Name      string
	Email     string
	Sex       string
	BloodType string
	Province  string
	District  string
}

// RegisterDonor creates a donor record. New donors start CLEAR; only a
// positive lab result can change that.
func RegisterDonor(
	ctx context.Context,
	database DonorStore,
	logger *zap.Logger,
	req RegisterDonorRequest,
) (*model.Donor, error) {
	if req.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "required"}
	}
	if req.BloodType == "" {
		req.BloodType = "UNKNOWN"
	}

	donor := &model.Donor{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		Sex:          req.Sex,
		BloodType:    req.BloodType,
		Province:     req.Province,
		District:     req.District,
		SafetyStatus: model.SafetyClear,
		CreatedAt:    time.Now(),
	}
	if err := database.InsertDonor(ctx, donor); err != nil {
		return nil, fmt.Errorf("failed to insert donor: %w", err)
	}

	logger.Info("Donor registered",
		zap.String("donor_id", donor.ID),
		zap.String("blood_type", donor.BloodType))

	return donor, nil
}
