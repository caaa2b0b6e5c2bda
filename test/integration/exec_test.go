//go:build !windows

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCommand(t *testing.T) {
	tests := map[string]struct {
		command      []string
		flags        []string
		stdin        string
		expStdout    []string
		expNotStdout []string
		expExitCode  int
	}{
		"Simple echo command should succeed": {
			command:     []string{"--", "echo", "hello world"},
			expStdout:   []string{"hello world"},
			expExitCode: 0,
		},

		"Command with exit code 0 should succeed": {
			command:     []string{"--", "sh", "-c", "exit 0"},
			expExitCode: 0,
		},

		"Command with exit code 1 should fail mirroring the exit code": {
			command:     []string{"--", "sh", "-c", "exit 1"},
			expExitCode: 1,
		},

		"Command with a high exit code should mirror it too": {
			command:     []string{"--", "sh", "-c", "exit 42"},
			expExitCode: 42,
		},

		"The no-validate flag should turn a non-zero exit into success": {
			command:     []string{"--no-validate", "--", "sh", "-c", "exit 1"},
			expExitCode: 0,
		},

		"Working directory flag should set exec directory": {
			command:     []string{"--", "pwd"},
			flags:       []string{"--workdir", "/tmp"},
			expStdout:   []string{"/tmp"},
			expExitCode: 0,
		},

		"Environment variable should be available in command": {
			command:     []string{"--", "sh", "-c", "echo $TEST_VAR"},
			flags:       []string{"--env", "TEST_VAR=test_value"},
			expStdout:   []string{"test_value"},
			expExitCode: 0,
		},

		"Multiple environment variables should work": {
			command:     []string{"--", "sh", "-c", "echo $FOO-$BAR"},
			flags:       []string{"--env", "FOO=hello", "--env", "BAR=world"},
			expStdout:   []string{"hello-world"},
			expExitCode: 0,
		},

		"A removed environment variable should not reach the command": {
			command:      []string{"--", "sh", "-c", "echo value:${TEST_REMOVED:-unset}"},
			flags:        []string{"--env", "TEST_REMOVED-"},
			expStdout:    []string{"value:unset"},
			expNotStdout: []string{"value:leaks"},
			expExitCode:  0,
		},

		"The input flag should feed stdin to the command": {
			command:     []string{"--input", "piped text", "--", "cat"},
			expStdout:   []string{"piped text"},
			expExitCode: 0,
		},

		"The stdin flag should pass the caller's own stdin through": {
			command:     []string{"--stdin", "--", "cat"},
			stdin:       "passthrough text",
			expStdout:   []string{"passthrough text"},
			expExitCode: 0,
		},

		"The stdin and input flags should be mutually exclusive": {
			command:     []string{"--stdin", "--input", "text", "--", "cat"},
			expExitCode: 1,
		},

		"Command with stdout and stderr should capture both": {
			command:     []string{"--", "sh", "-c", "echo stdout; echo stderr >&2"},
			expStdout:   []string{"stdout", "stderr"},
			expExitCode: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			binary := buildBinary(t)
			dbPath := filepath.Join(t.TempDir(), "test.db")

			cmdArgs := []string{"exec", "--db-path", dbPath, "--no-log"}
			cmdArgs = append(cmdArgs, tt.flags...)
			cmdArgs = append(cmdArgs, tt.command...)

			cmd := exec.Command(binary, cmdArgs...)
			cmd.Env = append(os.Environ(), "TEST_REMOVED=leaks")
			if tt.stdin != "" {
				cmd.Stdin = strings.NewReader(tt.stdin)
			}
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			err := cmd.Run()

			if tt.expExitCode != 0 {
				var exitErr *exec.ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tt.expExitCode, exitErr.ExitCode())
			} else {
				assert.NoError(t, err, "stderr: %s", stderr.String())
			}

			output := stdout.String() + stderr.String()
			for _, exp := range tt.expStdout {
				assert.Contains(t, output, exp)
			}
			for _, notExp := range tt.expNotStdout {
				assert.NotContains(t, output, notExp)
			}
		})
	}
}

func TestExecCommandTimeout(t *testing.T) {
	binary := buildBinary(t)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	cmd := exec.Command(binary, "exec", "--db-path", dbPath, "--no-log",
		"--timeout", "300ms", "--", "sh", "-c", "sleep 30")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "exceeded the configured timeout")
	// The process tree was killed, the run did not wait out the sleep.
	assert.Less(t, elapsed, 10*time.Second)
}

func TestExecCommandRetries(t *testing.T) {
	binary := buildBinary(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	// Fails until the marker file exists, created on the second attempt.
	marker := filepath.Join(tmpDir, "marker")
	script := "test -f " + marker + " || { touch " + marker + "; exit 1; }"

	cmd := exec.Command(binary, "exec", "--db-path", dbPath, "--no-log",
		"--attempts", "3", "--delay", "10ms", "--", "sh", "-c", script)

	err := cmd.Run()
	assert.NoError(t, err)
}

func TestExecCommandOutputFile(t *testing.T) {
	binary := buildBinary(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	outFile := filepath.Join(tmpDir, "out.txt")

	cmd := exec.Command(binary, "exec", "--db-path", dbPath, "--no-log",
		"--output-file", outFile, "--", "echo", "to file")

	require.NoError(t, cmd.Run())

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, "to file\n", string(data))
}
