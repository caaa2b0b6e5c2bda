// Package taskfile loads YAML task definitions for the CLI. A task file
// declares a list of commands to execute in order, each with its own
// environment overlay, timeout and retry policy.
package taskfile

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

// File is a parsed task file.
type File struct {
	Tasks []Task `yaml:"tasks"`
}

// Task is one command declaration in a task file.
type Task struct {
	Name    string            `yaml:"name"`
	Command []string          `yaml:"command"`
	WorkDir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
	// UnsetEnv removes variables from the inherited environment.
	UnsetEnv  []string   `yaml:"unset_env"`
	Stdin     string     `yaml:"stdin"`
	StdinFile string     `yaml:"stdin_file"`
	Timeout   Duration   `yaml:"timeout"`
	Retry     *RetrySpec `yaml:"retry"`
	// ContinueOnError keeps executing later tasks when this one fails.
	ContinueOnError bool `yaml:"continue_on_error"`
}

// RetrySpec is the YAML form of a retry policy.
type RetrySpec struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	Multiplier   float64  `yaml:"multiplier"`
	MaxDelay     Duration `yaml:"max_delay"`
	Jitter       bool     `yaml:"jitter"`
}

// Duration wraps time.Duration with Go duration string parsing ("1m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and validates a task file from disk.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open task file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads and validates a task file from a reader.
func Parse(r io.Reader) (*File, error) {
	var file File

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("could not parse task file: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return &file, nil
}

// Validate validates the task file.
func (f *File) Validate() error {
	if len(f.Tasks) == 0 {
		return fmt.Errorf("task file declares no tasks: %w", model.ErrNotValid)
	}

	seen := map[string]bool{}
	for i, t := range f.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task %d: name is required: %w", i+1, model.ErrNotValid)
		}
		if seen[t.Name] {
			return fmt.Errorf("task %q declared twice: %w", t.Name, model.ErrNotValid)
		}
		seen[t.Name] = true

		if len(t.Command) == 0 {
			return fmt.Errorf("task %q: command cannot be empty: %w", t.Name, model.ErrNotValid)
		}
		if t.Stdin != "" && t.StdinFile != "" {
			return fmt.Errorf("task %q: stdin and stdin_file are mutually exclusive: %w", t.Name, model.ErrNotValid)
		}
		if t.Timeout < 0 {
			return fmt.Errorf("task %q: timeout cannot be negative: %w", t.Name, model.ErrNotValid)
		}
		if t.Retry != nil {
			if err := t.Retry.Policy().Validate(); err != nil {
				return fmt.Errorf("task %q: invalid retry: %w", t.Name, err)
			}
		}
	}

	return nil
}

// EnvOverlay returns the task's environment overlay: removals first, then
// upserts in stable (sorted) order.
func (t Task) EnvOverlay() []model.EnvVar {
	overlay := make([]model.EnvVar, 0, len(t.Env)+len(t.UnsetEnv))

	for _, name := range t.UnsetEnv {
		overlay = append(overlay, model.EnvVar{Name: name, Unset: true})
	}

	names := make([]string, 0, len(t.Env))
	for name := range t.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		overlay = append(overlay, model.EnvVar{Name: name, Value: t.Env[name]})
	}

	return overlay
}

// Policy maps the YAML retry spec to a model policy. Unset numeric fields
// inherit the defaults of the default policy.
func (s RetrySpec) Policy() model.RetryPolicy {
	policy := model.DefaultRetryPolicy()

	if s.MaxAttempts != 0 {
		policy.MaxAttempts = s.MaxAttempts
	}
	if s.InitialDelay != 0 {
		policy.InitialDelay = s.InitialDelay.Std()
	}
	if s.Multiplier != 0 {
		policy.Multiplier = s.Multiplier
	}
	if s.MaxDelay != 0 {
		policy.MaxDelay = s.MaxDelay.Std()
	}
	policy.Jitter = s.Jitter

	return policy
}
