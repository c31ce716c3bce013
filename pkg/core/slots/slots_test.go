package slots

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testCamp(capacity *int) *model.Camp {
	return &model.Camp{
		ID:        "camp-1",
		Name:      "Colombo Camp",
		Date:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "13:00",
		Capacity:  capacity,
	}
}

func TestCheckHospitalSlot(t *testing.T) {
	assert.NoError(t, CheckHospitalSlot(now.Add(time.Hour), now))
	assert.Error(t, CheckHospitalSlot(now.Add(-time.Hour), now))
	assert.Error(t, CheckHospitalSlot(now, now))
}

func TestCheckCampSlot(t *testing.T) {
	camp := testCamp(nil)

	tests := []struct {
		name      string
		requested time.Time
		wantErr   bool
	}{
		{"inside window", time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), false},
		{"at window start", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), false},
		{"at window end", time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC), false},
		{"before window", time.Date(2026, 3, 10, 8, 59, 0, 0, time.UTC), true},
		{"after window", time.Date(2026, 3, 10, 13, 1, 0, 0, time.UTC), true},
		{"wrong day", time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC), true},
		{"in the past", time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCampSlot(camp, tt.requested, now)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckSpacing(t *testing.T) {
	existing := []model.Appointment{
		{ID: "a1", ScheduledAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), Status: model.AppointmentScheduled},
		{ID: "a2", ScheduledAt: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC), Status: model.AppointmentCancelled},
	}

	// 10 minutes from a live booking is too close under 15-minute spacing
	err := CheckSpacing(existing, time.Date(2026, 3, 10, 10, 10, 0, 0, time.UTC), 15*time.Minute)
	assert.Error(t, err)

	// 15 minutes exactly is fine
	assert.NoError(t, CheckSpacing(existing, time.Date(2026, 3, 10, 10, 15, 0, 0, time.UTC), 15*time.Minute))

	// Cancelled bookings do not hold their slot
	assert.NoError(t, CheckSpacing(existing, time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC), 15*time.Minute))

	// Zero spacing disables the check
	assert.NoError(t, CheckSpacing(existing, time.Date(2026, 3, 10, 10, 1, 0, 0, time.UTC), 0))
}

func TestCheckCampCapacity(t *testing.T) {
	capacity := 2
	camp := testCamp(&capacity)

	assert.NoError(t, CheckCampCapacity(camp, 0))
	assert.NoError(t, CheckCampCapacity(camp, 1))

	err := CheckCampCapacity(camp, 2)
	var capErr *model.CapacityError
	assert.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Capacity)

	// Unbounded camp never fills
	assert.NoError(t, CheckCampCapacity(testCamp(nil), 100000))
}
