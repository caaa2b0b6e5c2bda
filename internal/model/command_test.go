package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/stream"
)

func TestCommandValidate(t *testing.T) {
	tests := map[string]struct {
		command model.Command
		expErr  bool
	}{
		"A valid command should not fail": {
			command: model.NewCommand("echo", "hello"),
			expErr:  false,
		},

		"Missing executable path should fail": {
			command: model.NewCommand(""),
			expErr:  true,
		},

		"Zero timeout should fail": {
			command: model.NewCommand("echo").WithTimeout(0),
			expErr:  true,
		},

		"Negative timeout should fail": {
			command: model.NewCommand("echo").WithTimeout(-1 * time.Second),
			expErr:  true,
		},

		"Empty env var name should fail": {
			command: model.NewCommand("echo").WithEnv("", "x"),
			expErr:  true,
		},

		"Valid timeout and env should not fail": {
			command: model.NewCommand("echo").WithTimeout(time.Second).WithEnv("FOO", "bar"),
			expErr:  false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.command.Validate()

			if test.expErr {
				assert.Error(err)
				assert.True(errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestCommandDerivationIsIndependent(t *testing.T) {
	assert := assert.New(t)

	original := model.NewCommand("git", "status")
	derived := original.WithArgsAppended("--short").WithWorkDir("/tmp").WithTimeout(time.Minute)

	// The original stays untouched.
	assert.Equal([]string{"status"}, original.Args())
	_, hasWorkDir := original.WorkDir()
	assert.False(hasWorkDir)
	_, hasTimeout := original.Timeout()
	assert.False(hasTimeout)

	// The derived command holds the new values.
	assert.Equal([]string{"status", "--short"}, derived.Args())
	dir, ok := derived.WorkDir()
	assert.True(ok)
	assert.Equal("/tmp", dir)
	d, ok := derived.Timeout()
	assert.True(ok)
	assert.Equal(time.Minute, d)
}

func TestCommandDerivationDoesNotShareSlices(t *testing.T) {
	assert := assert.New(t)

	original := model.NewCommand("ls", "-l")
	derivedA := original.WithArgsAppended("-a")
	derivedB := original.WithArgsAppended("-h")

	assert.Equal([]string{"-l", "-a"}, derivedA.Args())
	assert.Equal([]string{"-l", "-h"}, derivedB.Args())
	assert.Equal([]string{"-l"}, original.Args())
}

func TestCommandTriStateFields(t *testing.T) {
	assert := assert.New(t)

	base := model.NewCommand("make").WithWorkDir("/src").WithTimeout(time.Minute)

	// Explicitly cleared differs from never set.
	cleared := base.WithWorkDirCleared().WithTimeoutCleared()
	_, hasWorkDir := cleared.WorkDir()
	assert.False(hasWorkDir)
	_, hasTimeout := cleared.Timeout()
	assert.False(hasTimeout)

	// The base keeps its values.
	dir, ok := base.WorkDir()
	assert.True(ok)
	assert.Equal("/src", dir)

	// Optional distinguishes all three states.
	var unset model.Optional[string]
	assert.True(unset.IsUnset())
	assert.False(unset.IsCleared())
	assert.False(unset.IsSet())

	clearedOpt := model.Cleared[string]()
	assert.False(clearedOpt.IsUnset())
	assert.True(clearedOpt.IsCleared())

	setOpt := model.Set("v")
	assert.True(setOpt.IsSet())
	v, ok := setOpt.Value()
	assert.True(ok)
	assert.Equal("v", v)
	assert.Equal("v", setOpt.Or("default"))
	assert.Equal("default", clearedOpt.Or("default"))
}

func TestCommandEnvOverlayOrder(t *testing.T) {
	assert := assert.New(t)

	command := model.NewCommand("env").
		WithEnvRemoved("PATH").
		WithEnv("FOO", "bar").
		WithEnv("FOO", "baz")

	overlay := command.EnvOverlay()
	assert.Equal([]model.EnvVar{
		{Name: "PATH", Unset: true},
		{Name: "FOO", Value: "bar"},
		{Name: "FOO", Value: "baz"},
	}, overlay)

	// Mutating the returned overlay doesn't touch the command.
	overlay[0].Name = "MUTATED"
	assert.Equal("PATH", command.EnvOverlay()[0].Name)
}

func TestCommandSinkDefaults(t *testing.T) {
	assert := assert.New(t)

	command := model.NewCommand("true")
	assert.NotNil(command.Stdout())
	assert.NotNil(command.Stderr())
	_, hasStdin := command.Stdin()
	assert.False(hasStdin)
	assert.True(command.ValidatesExitCode())
	assert.Nil(command.Encoding())

	buf := stream.NewBufferSink()
	merged := command.WithMergedOutput(buf)
	assert.Equal(stream.OutputSink(buf), merged.Stdout())
	assert.Equal(stream.OutputSink(buf), merged.Stderr())

	withStdin := command.WithStdin(stream.NewStringSource("hi"))
	_, hasStdin = withStdin.Stdin()
	assert.True(hasStdin)

	stdinCleared := withStdin.WithStdinCleared()
	_, hasStdin = stdinCleared.Stdin()
	assert.False(hasStdin)
}
