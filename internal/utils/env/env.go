// Package env parses environment overlay specs from CLI flags.
package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/13cyberpunk02/SolimusWrapper/internal/model"
)

var envKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseSpecs parses environment overlay specs into overlay entries.
//
// Supported forms:
//   - "KEY=VALUE" upserts the variable.
//   - "KEY" upserts with the value inherited from the current process.
//   - "KEY-" removes the variable from the child's environment.
func ParseSpecs(specs []string) ([]model.EnvVar, error) {
	overlay := make([]model.EnvVar, 0, len(specs))

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("environment variable spec cannot be empty")
		}

		if key, value, ok := strings.Cut(spec, "="); ok {
			if !isValidKey(key) {
				return nil, fmt.Errorf("invalid environment variable key %q", key)
			}

			overlay = append(overlay, model.EnvVar{Name: key, Value: value})
			continue
		}

		if key, ok := strings.CutSuffix(spec, "-"); ok {
			if !isValidKey(key) {
				return nil, fmt.Errorf("invalid environment variable key %q", key)
			}

			overlay = append(overlay, model.EnvVar{Name: key, Unset: true})
			continue
		}

		if !isValidKey(spec) {
			return nil, fmt.Errorf("invalid environment variable key %q", spec)
		}

		value, ok := os.LookupEnv(spec)
		if !ok {
			return nil, fmt.Errorf("environment variable %q is not set", spec)
		}

		overlay = append(overlay, model.EnvVar{Name: spec, Value: value})
	}

	return overlay, nil
}

func isValidKey(key string) bool {
	return envKeyRegexp.MatchString(key)
}
