//go:build !windows

package integration

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildBinary builds the solimus CLI into the test's temp dir and returns
// its path.
func buildBinary(t *testing.T) string {
	t.Helper()

	binary := filepath.Join(t.TempDir(), "solimus-test")
	cmd := exec.Command("go", "build", "-o", binary, "../../cmd/solimus")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "Failed to build solimus binary: %s", out)

	return binary
}
