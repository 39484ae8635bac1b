// Package cmd wraps command execution so that packages shelling out to the
// host multiplexer can be tested without a live binary on PATH.
package cmd

import "os/exec"

// Executor runs external commands.
type Executor interface {
	// Run runs the command and waits for it to finish.
	Run(cmd *exec.Cmd) error
	// Output runs the command and returns its standard output.
	Output(cmd *exec.Cmd) ([]byte, error)
}

type execExecutor struct{}

func (execExecutor) Run(cmd *exec.Cmd) error {
	return cmd.Run()
}

func (execExecutor) Output(cmd *exec.Cmd) ([]byte, error) {
	return cmd.Output()
}

// MakeExecutor returns an Executor backed by os/exec.
func MakeExecutor() Executor {
	return execExecutor{}
}
