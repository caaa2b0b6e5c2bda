//go:build windows

package exec

import (
	"os"
	osexec "os/exec"
	"strconv"
)

func setProcAttributes(cmd *osexec.Cmd) {}

// killTree terminates the process and all its descendants. Best effort: the
// tree (or parts of it) may already be gone, errors are swallowed.
func killTree(p *os.Process) {
	if p == nil {
		return
	}

	// taskkill /T kills the whole descendant tree.
	_ = osexec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(p.Pid)).Run()
	_ = p.Kill()
}
