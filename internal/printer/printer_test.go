package printer_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
	"github.com/13cyberpunk02/SolimusWrapper/internal/printer"
)

func testExecutions() []model.Execution {
	startedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return []model.Execution{
		{
			ID:         "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Binary:     "make",
			Args:       []string{"build"},
			Status:     model.ExecutionStatusSucceeded,
			Attempts:   1,
			StartedAt:  startedAt,
			FinishedAt: startedAt.Add(3 * time.Second),
		},
		{
			ID:         "01ARZ3NDEKTSV4RRFFQ69G5FAW",
			Binary:     "git",
			Args:       []string{"push"},
			Status:     model.ExecutionStatusFailed,
			ExitCode:   128,
			Attempts:   3,
			Error:      "process exited with code 128",
			StartedAt:  startedAt,
			FinishedAt: startedAt.Add(time.Second),
		},
	}
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	_, err := printer.New(&bytes.Buffer{}, printer.FormatTable)
	assert.NoError(err)

	_, err = printer.New(&bytes.Buffer{}, printer.Format("xml"))
	assert.True(errors.Is(err, model.ErrNotValid))
}

func TestPrintExecutionsTable(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	p, err := printer.New(&buf, printer.FormatTable)
	require.NoError(t, err)

	require.NoError(t, p.PrintExecutions(testExecutions()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(lines[0], "ID")
	assert.Contains(lines[0], "STATUS")
	assert.Contains(lines[1], "make build")
	assert.Contains(lines[1], "succeeded")
	assert.Contains(lines[2], "git push")
	assert.Contains(lines[2], "failed")
	assert.Contains(lines[2], "128")
}

func TestPrintExecutionsTableTruncatesLongCommands(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	p, err := printer.New(&buf, printer.FormatTable)
	require.NoError(t, err)

	execs := testExecutions()[:1]
	execs[0].Args = []string{strings.Repeat("x", 100)}
	require.NoError(t, p.PrintExecutions(execs))

	assert.Contains(buf.String(), "...")
	assert.NotContains(buf.String(), strings.Repeat("x", 100))
}

func TestPrintExecutionsTableTruncatesOnRunes(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	p, err := printer.New(&buf, printer.FormatTable)
	require.NoError(t, err)

	// Multi-byte characters around the cut point must never be split.
	execs := testExecutions()[:1]
	execs[0].Args = []string{strings.Repeat("héllo wörld ", 10)}
	require.NoError(t, p.PrintExecutions(execs))

	assert.Contains(buf.String(), "...")
	assert.True(utf8.ValidString(buf.String()))
	assert.NotContains(buf.String(), string(utf8.RuneError))
}

func TestPrintExecutionsJSON(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	p, err := printer.New(&buf, printer.FormatJSON)
	require.NoError(t, err)

	require.NoError(t, p.PrintExecutions(testExecutions()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal("01ARZ3NDEKTSV4RRFFQ69G5FAV", got[0]["id"])
	assert.Equal("succeeded", got[0]["status"])
	assert.Equal("2026-03-14T12:00:00Z", got[0]["started_at"])
	assert.Equal(float64(128), got[1]["exit_code"])
	assert.Equal("process exited with code 128", got[1]["error"])
}

func TestPrintExecutionsJSONEmpty(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	p, err := printer.New(&buf, printer.FormatJSON)
	require.NoError(t, err)

	require.NoError(t, p.PrintExecutions(nil))
	assert.Equal("[]\n", buf.String())
}
