package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/utils/env"
)

func TestParseSpecs(t *testing.T) {
	tests := map[string]struct {
		specs      []string
		setEnv     map[string]string
		expOverlay []model.EnvVar
		expErr     bool
	}{
		"A KEY=VALUE spec should upsert the variable": {
			specs:      []string{"FOO=bar"},
			expOverlay: []model.EnvVar{{Name: "FOO", Value: "bar"}},
		},

		"A value may contain equal signs": {
			specs:      []string{"DSN=a=b=c"},
			expOverlay: []model.EnvVar{{Name: "DSN", Value: "a=b=c"}},
		},

		"An empty value should be allowed": {
			specs:      []string{"FOO="},
			expOverlay: []model.EnvVar{{Name: "FOO", Value: ""}},
		},

		"A KEY- spec should remove the variable": {
			specs:      []string{"FOO-"},
			expOverlay: []model.EnvVar{{Name: "FOO", Unset: true}},
		},

		"A bare KEY should inherit the current process value": {
			specs:      []string{"SOLIMUS_ENV_TEST"},
			setEnv:     map[string]string{"SOLIMUS_ENV_TEST": "inherited"},
			expOverlay: []model.EnvVar{{Name: "SOLIMUS_ENV_TEST", Value: "inherited"}},
		},

		"A bare KEY that is not set should fail": {
			specs:  []string{"SOLIMUS_ENV_TEST_MISSING"},
			expErr: true,
		},

		"Multiple specs should keep their order": {
			specs: []string{"A=1", "B-", "C=3"},
			expOverlay: []model.EnvVar{
				{Name: "A", Value: "1"},
				{Name: "B", Unset: true},
				{Name: "C", Value: "3"},
			},
		},

		"An empty spec should fail": {
			specs:  []string{""},
			expErr: true,
		},

		"An invalid key should fail": {
			specs:  []string{"1FOO=bar"},
			expErr: true,
		},

		"An invalid key in a removal should fail": {
			specs:  []string{"FO O-"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			for k, v := range test.setEnv {
				t.Setenv(k, v)
			}

			overlay, err := env.ParseSpecs(test.specs)

			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
				assert.Equal(test.expOverlay, overlay)
			}
		})
	}
}
