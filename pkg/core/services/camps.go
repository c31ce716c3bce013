package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/lifeline-network/lifeline-engine/internal/config"
	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

// CampStore defines the database operations needed to manage camps
type CampStore interface {
	GetCamp(ctx context.Context, id string) (*model.Camp, error)
	ListCamps(ctx context.Context) ([]model.Camp, error)
	InsertCamp(ctx context.Context, camp *model.Camp) error
	DeleteCamp(ctx context.Context, id string) error
	ListRegistrations(ctx context.Context, campID string) ([]model.Registration, error)
}

// CampView is a camp with its derived status and registration count
type CampView struct {
	model.Camp
	Status     model.CampStatus `json:"status"`
	Registered int              `json:"registered"`
}

// CreateCampRequest carries the input to CreateCamp
type CreateCampRequest struct {
	Name            string
	Province        string
	District        string
	Location        string
	NearestHospital string
	Lat             float64
	Lng             float64
	Date            time.Time
	StartTime       string
	EndTime         string
	Capacity        *int
}

// CreateCamp creates a donation camp after checking the window is coherent
func CreateCamp(
	ctx context.Context,
	database CampStore,
	logger *zap.Logger,
	req CreateCampRequest,
) (*model.Camp, error) {
	if req.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "required"}
	}
	if req.Date.IsZero() {
		return nil, &model.ValidationError{Field: "date", Message: "required"}
	}
	if req.StartTime == "" {
		req.StartTime = "09:00"
	}
	if req.EndTime == "" {
		req.EndTime = "13:00"
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, &model.ValidationError{Field: "capacity", Message: "must be positive when set"}
	}

	camp := &model.Camp{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Province:        req.Province,
		District:        req.District,
		Location:        req.Location,
		NearestHospital: req.NearestHospital,
		Lat:             req.Lat,
		Lng:             req.Lng,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Capacity:        req.Capacity,
	}

	start, end, err := camp.Window()
	if err != nil {
		return nil, &model.ValidationError{Field: "startTime", Message: "times must be in HH:MM form"}
	}
	if !end.After(start) {
		return nil, &model.ValidationError{Field: "endTime", Message: "camp end time must be after start time"}
	}

	camp.CreatedAt = time.Now()
	if err := database.InsertCamp(ctx, camp); err != nil {
		return nil, fmt.Errorf("failed to insert camp: %w", err)
	}

	logger.Info("Camp created",
		zap.String("camp_id", camp.ID),
		zap.String("name", camp.Name),
		zap.Time("date", camp.Date))

	return camp, nil
}

// DeleteCamp removes a camp and its registrations
func DeleteCamp(ctx context.Context, database CampStore, logger *zap.Logger, campID string) error {
	if err := database.DeleteCamp(ctx, campID); err != nil {
		return fmt.Errorf("failed to delete camp: %w", err)
	}
	logger.Info("Camp deleted", zap.String("camp_id", campID))
	return nil
}

// ListCamps returns all camps with their derived status and registration count
func ListCamps(ctx context.Context, database CampStore) ([]CampView, error) {
	camps, err := database.ListCamps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list camps: %w", err)
	}

	now := time.Now()
	views := make([]CampView, 0, len(camps))
	for _, camp := range camps {
		regs, err := database.ListRegistrations(ctx, camp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count registrations for camp %s: %w", camp.ID, err)
		}
		views = append(views, CampView{
			Camp:       camp,
			Status:     camp.StatusAt(now),
			Registered: len(regs),
		})
	}
	return views, nil
}

// PlanCampSeries expands the configured recurring camp series into concrete
// camps over the given horizon. Dates that already have a camp of the same
// name are skipped, so the command is safe to re-run.
func PlanCampSeries(
	ctx context.Context,
	database CampStore,
	cfg *config.Config,
	logger *zap.Logger,
	horizonDays int,
) ([]model.Camp, error) {
	if horizonDays <= 0 {
		return nil, &model.ValidationError{Field: "horizonDays", Message: "must be positive"}
	}

	existing, err := database.ListCamps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list camps: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, camp := range existing {
		taken[camp.Name+"|"+camp.Date.Format("2006-01-02")] = true
	}

	now := time.Now()
	until := now.AddDate(0, 0, horizonDays)

	var created []model.Camp
	for i, series := range cfg.CampSeries {
		rule, err := rrule.StrToRRule(series.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in campSeries[%d]: %w", i, err)
		}
		rule.DTStart(now)

		for _, date := range rule.Between(now, until, true) {
			day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
			key := series.Name + "|" + day.Format("2006-01-02")
			if taken[key] {
				continue
			}

			camp, err := CreateCamp(ctx, database, logger, CreateCampRequest{
				Name:            series.Name,
				Province:        series.Province,
				District:        series.District,
				Location:        series.Location,
				NearestHospital: series.NearestHospital,
				Lat:             series.Lat,
				Lng:             series.Lng,
				Date:            day,
				StartTime:       series.StartTime,
				EndTime:         series.EndTime,
				Capacity:        series.Capacity,
			})
			if err != nil {
				return created, fmt.Errorf("failed to create camp for series %q on %s: %w", series.Name, day.Format("2006-01-02"), err)
			}
			taken[key] = true
			created = append(created, *camp)
		}
	}

	logger.Info("Camp series planned",
		zap.Int("series", len(cfg.CampSeries)),
		zap.Int("created", len(created)))

	return created, nil
}
