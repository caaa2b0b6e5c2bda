//go:build !windows

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTaskFile(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTaskCommand(t *testing.T) {
	binary := buildBinary(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	taskFile := writeTaskFile(t, tmpDir, `
tasks:
  - name: greet
    command: ["echo", "hello from task"]
  - name: env-check
    command: ["sh", "-c", "echo var:$TASK_VAR"]
    env:
      TASK_VAR: from-yaml
  - name: stdin-check
    command: ["cat"]
    stdin: "from stdin"
`)

	cmd := exec.Command(binary, "task", "--db-path", dbPath, "--no-log", taskFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Run(), "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "hello from task")
	assert.Contains(t, stdout.String(), "var:from-yaml")
	assert.Contains(t, stdout.String(), "from stdin")

	// Every task left a history record.
	records := listHistory(t, binary, dbPath)
	assert.Len(t, records, 3)
}

func TestTaskCommandStopsOnFailure(t *testing.T) {
	binary := buildBinary(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	taskFile := writeTaskFile(t, tmpDir, `
tasks:
  - name: boom
    command: ["sh", "-c", "exit 1"]
  - name: never
    command: ["echo", "should not run"]
`)

	cmd := exec.Command(binary, "task", "--db-path", dbPath, "--no-log", taskFile)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	assert.Error(t, cmd.Run())
	assert.NotContains(t, stdout.String(), "should not run")
}

func TestTaskCommandContinueOnError(t *testing.T) {
	binary := buildBinary(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	taskFile := writeTaskFile(t, tmpDir, `
tasks:
  - name: boom
    command: ["sh", "-c", "exit 1"]
    continue_on_error: true
  - name: after
    command: ["echo", "still ran"]
`)

	cmd := exec.Command(binary, "task", "--db-path", dbPath, "--no-log", taskFile)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// The run still fails overall because a task failed.
	assert.Error(t, cmd.Run())
	assert.Contains(t, stdout.String(), "still ran")
}

func TestTaskCommandInvalidFile(t *testing.T) {
	binary := buildBinary(t)
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	taskFile := writeTaskFile(t, tmpDir, `tasks: []`)

	cmd := exec.Command(binary, "task", "--db-path", dbPath, "--no-log", taskFile)
	assert.Error(t, cmd.Run())
}
