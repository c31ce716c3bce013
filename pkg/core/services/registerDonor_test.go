package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifeline-network/lifeline-engine/pkg/core/model"
)

func TestRegisterDonor(t *testing.T) {
	env := newTestEnv()

	donor, err := RegisterDonor(env.ctx, env.store, env.logger, RegisterDonorRequest{
		Name:      "Amara Perera",
		Email:     "amara@example.com",
		Sex:       "female",
		BloodType: "B+",
		Province:  "Western",
		District:  "Colombo",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SafetyClear, donor.SafetyStatus)
	assert.False(t, donor.Blocked())
	assert.NotEmpty(t, donor.ID)

	stored, err := env.store.GetDonor(env.ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, "B+", stored.BloodType)
}

func TestRegisterDonor_UnknownBloodType(t *testing.T) {
	env := newTestEnv()

	donor, err := RegisterDonor(env.ctx, env.store, env.logger, RegisterDonorRequest{Name: "Nimal Silva"})
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", donor.BloodType)
}

func TestRegisterDonor_NameRequired(t *testing.T) {
	env := newTestEnv()

	_, err := RegisterDonor(env.ctx, env.store, env.logger, RegisterDonorRequest{})
	var valErr *model.ValidationError
	assert.True(t, errors.As(err, &valErr))
}
