// Package printer renders application data for terminal output.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

// Format is the output format of a printer.
type Format string

const (
	// FormatTable renders a human-readable table.
	FormatTable Format = "table"
	// FormatJSON renders machine-readable JSON.
	FormatJSON Format = "json"
)

// Printer renders execution records to a writer.
type Printer struct {
	w      io.Writer
	format Format
}

// New creates a new printer.
func New(w io.Writer, format Format) (*Printer, error) {
	switch format {
	case FormatTable, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q: %w", format, model.ErrNotValid)
	}

	return &Printer{w: w, format: format}, nil
}

// PrintExecutions renders a list of execution records.
func (p *Printer) PrintExecutions(executions []model.Execution) error {
	if p.format == FormatJSON {
		return p.printJSON(executions)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMMAND\tSTATUS\tEXIT\tATTEMPTS\tDURATION\tSTARTED")

	for _, e := range executions {
		command := e.Binary
		if len(e.Args) > 0 {
			command += " " + strings.Join(e.Args, " ")
		}
		// Truncate on runes so a multi-byte character is never split.
		if runes := []rune(command); len(runes) > 48 {
			command = string(runes[:45]) + "..."
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.ID,
			command,
			e.Status,
			e.ExitCode,
			e.Attempts,
			e.FinishedAt.Sub(e.StartedAt).Round(time.Millisecond),
			e.StartedAt.Local().Format(time.RFC3339),
		)
	}

	return tw.Flush()
}

type executionJSON struct {
	ID         string   `json:"id"`
	Binary     string   `json:"binary"`
	Args       []string `json:"args,omitempty"`
	WorkDir    string   `json:"work_dir,omitempty"`
	Status     string   `json:"status"`
	ExitCode   int      `json:"exit_code"`
	Attempts   int      `json:"attempts"`
	Error      string   `json:"error,omitempty"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
}

func (p *Printer) printJSON(executions []model.Execution) error {
	out := make([]executionJSON, 0, len(executions))
	for _, e := range executions {
		out = append(out, executionJSON{
			ID:         e.ID,
			Binary:     e.Binary,
			Args:       e.Args,
			WorkDir:    e.WorkDir,
			Status:     string(e.Status),
			ExitCode:   e.ExitCode,
			Attempts:   e.Attempts,
			Error:      e.Error,
			StartedAt:  e.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt: e.FinishedAt.UTC().Format(time.RFC3339),
		})
	}

	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
