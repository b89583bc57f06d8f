//go:build !unix

package command

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}
