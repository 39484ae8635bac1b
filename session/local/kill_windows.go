//go:build windows

package local

import "os/exec"

func killProcess(c *exec.Cmd) error {
	return c.Process.Kill()
}
