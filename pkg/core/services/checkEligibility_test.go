package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

func TestCheckEligibility_IntervalBoundary(t *testing.T) {
	env := newTestEnv()
	donated := time.Now().AddDate(0, 0, -10)
	donor := env.seedDonor(func(d *model.Donor) {
		d.LastDonationDate = &donated
	})

	// Day 83 since donation: still inside the 84-day whole blood interval
	early, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, model.DonationWholeBlood, donated.AddDate(0, 0, 83))
	require.NoError(t, err)
	assert.False(t, early.Eligible)
	assert.False(t, early.Permanent)
	require.NotNil(t, early.NextEligibleDate)

	// Day 84: the interval has elapsed
	onTime, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, model.DonationWholeBlood, donated.AddDate(0, 0, 84))
	require.NoError(t, err)
	assert.True(t, onTime.Eligible)
}

func TestCheckEligibility_PlasmaShorterInterval(t *testing.T) {
	env := newTestEnv()
	donated := time.Now().AddDate(0, 0, -20)
	donor := env.seedDonor(func(d *model.Donor) {
		d.LastDonationDate = &donated
	})

	plasma, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, model.DonationPlasma, time.Now())
	require.NoError(t, err)
	assert.True(t, plasma.Eligible)

	whole, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, model.DonationWholeBlood, time.Now())
	require.NoError(t, err)
	assert.False(t, whole.Eligible)
}

func TestCheckEligibility_DefaultsToWholeBlood(t *testing.T) {
	env := newTestEnv()
	donated := time.Now().AddDate(0, 0, -30)
	donor := env.seedDonor(func(d *model.Donor) {
		d.LastDonationDate = &donated
	})

	verdict, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, "", time.Now())
	require.NoError(t, err)
	assert.False(t, verdict.Eligible)
}

func TestCheckEligibility_UnknownDonor(t *testing.T) {
	env := newTestEnv()

	_, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		"no-such-donor", model.DonationWholeBlood, time.Now())
	var notFound *model.ErrNotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestCheckEligibility_AfterCompletedAppointment(t *testing.T) {
	env := newTestEnv()
	donor := env.seedDonor()
	appt := env.seedAppointment(donor, model.AppointmentApproved)

	before, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, model.DonationWholeBlood, time.Now())
	require.NoError(t, err)
	assert.True(t, before.Eligible)

	_, err = UpdateAppointmentStatus(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		appt.ID, model.AppointmentCompleted, staff)
	require.NoError(t, err)

	after, err := CheckEligibility(env.ctx, env.store, env.lockMgr, env.cfg, env.logger,
		donor.ID, model.DonationWholeBlood, appt.ScheduledAt.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, after.Eligible)
	require.NotNil(t, after.NextEligibleDate)
	assert.Equal(t, 0, daysBetweenDates(appt.ScheduledAt.AddDate(0, 0, 84), *after.NextEligibleDate))
}

func daysBetweenDates(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return int(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).Sub(time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)).Hours() / 24)
}
