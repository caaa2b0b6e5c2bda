//go:build !windows

package exec

import (
	"os"
	osexec "os/exec"
	"syscall"
)

// setProcAttributes puts the child in its own process group so the whole
// descendant tree can be killed as one unit.
func setProcAttributes(cmd *osexec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree terminates the process and all its descendants. Best effort: the
// process (or the whole group) may already be gone, errors are swallowed.
func killTree(p *os.Process) {
	if p == nil {
		return
	}

	// Negative PID targets the whole process group.
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		_ = p.Kill()
	}
}
