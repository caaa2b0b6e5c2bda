package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

func TestBuildEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/home/u", "LANG=C"}

	tests := map[string]struct {
		overlay []model.EnvVar
		expEnv  []string
	}{
		"An empty overlay should inherit the parent environment untouched": {
			overlay: nil,
			expEnv:  nil,
		},

		"An upsert should override the inherited value": {
			overlay: []model.EnvVar{{Name: "LANG", Value: "en_US.UTF-8"}},
			expEnv:  []string{"HOME=/home/u", "LANG=en_US.UTF-8", "PATH=/usr/bin"},
		},

		"A new variable should be added": {
			overlay: []model.EnvVar{{Name: "FOO", Value: "bar"}},
			expEnv:  []string{"FOO=bar", "HOME=/home/u", "LANG=C", "PATH=/usr/bin"},
		},

		"A removal should drop the inherited variable": {
			overlay: []model.EnvVar{{Name: "HOME", Unset: true}},
			expEnv:  []string{"LANG=C", "PATH=/usr/bin"},
		},

		"Removals should apply before upserts": {
			overlay: []model.EnvVar{
				{Name: "LANG", Value: "fr_FR"},
				{Name: "LANG", Unset: true},
			},
			expEnv: []string{"HOME=/home/u", "LANG=fr_FR", "PATH=/usr/bin"},
		},

		"The last upsert of a variable should win": {
			overlay: []model.EnvVar{
				{Name: "FOO", Value: "one"},
				{Name: "FOO", Value: "two"},
			},
			expEnv: []string{"FOO=two", "HOME=/home/u", "LANG=C", "PATH=/usr/bin"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			gotEnv := buildEnv(base, test.overlay)

			assert.Equal(test.expEnv, gotEnv)
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ls", displayName(model.NewCommand("ls")))
	assert.Equal("git status --short", displayName(model.NewCommand("git", "status", "--short")))
}
