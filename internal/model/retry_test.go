package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

func TestRetryPolicyValidate(t *testing.T) {
	tests := map[string]struct {
		policy model.RetryPolicy
		expErr bool
	}{
		"The default policy should be valid": {
			policy: model.DefaultRetryPolicy(),
		},

		"An immediate policy should be valid": {
			policy: model.ImmediateRetryPolicy(5),
		},

		"Zero attempts should fail": {
			policy: model.RetryPolicy{MaxAttempts: 0},
			expErr: true,
		},

		"Negative initial delay should fail": {
			policy: model.RetryPolicy{MaxAttempts: 2, InitialDelay: -time.Second},
			expErr: true,
		},

		"Negative multiplier should fail": {
			policy: model.RetryPolicy{MaxAttempts: 2, Multiplier: -1},
			expErr: true,
		},

		"Negative max delay should fail": {
			policy: model.RetryPolicy{MaxAttempts: 2, MaxDelay: -time.Second},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.policy.Validate()

			if test.expErr {
				assert.Error(err)
				assert.True(errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestRetryPolicyPresets(t *testing.T) {
	assert := assert.New(t)

	def := model.DefaultRetryPolicy()
	assert.Equal(3, def.MaxAttempts)
	assert.Equal(1*time.Second, def.InitialDelay)
	assert.Equal(2.0, def.Multiplier)
	assert.Equal(30*time.Second, def.MaxDelay)
	assert.True(def.Jitter)

	exp := model.ExponentialRetryPolicy(5, 500*time.Millisecond)
	assert.Equal(5, exp.MaxAttempts)
	assert.Equal(500*time.Millisecond, exp.InitialDelay)
	assert.Equal(2.0, exp.Multiplier)

	lin := model.LinearRetryPolicy(4, 2*time.Second)
	assert.Equal(4, lin.MaxAttempts)
	assert.Equal(2*time.Second, lin.InitialDelay)
	assert.Equal(1.0, lin.Multiplier)
	assert.False(lin.Jitter)

	imm := model.ImmediateRetryPolicy(2)
	assert.Equal(2, imm.MaxAttempts)
	assert.Equal(time.Duration(0), imm.InitialDelay)
}
