//go:build !windows

package local

import (
	"os/exec"

	"golang.org/x/sys/unix"
)

// killProcess terminates the whole process group. pty.Start put the child in
// its own session, so the negative pid reaches it and its descendants.
func killProcess(c *exec.Cmd) error {
	if err := unix.Kill(-c.Process.Pid, unix.SIGHUP); err == nil || err == unix.ESRCH {
		return nil
	}
	return c.Process.Kill()
}
