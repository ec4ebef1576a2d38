//go:build windows

package supervisor

import (
	"os/exec"
)

func shellCommand(command string) *exec.Cmd {
	return exec.Command("cmd", "/C", command)
}

func setProcessGroup(*exec.Cmd) {}

func killGroup(int) error { return nil }
