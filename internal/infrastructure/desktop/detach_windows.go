//go:build windows

package desktop

import (
	"os/exec"
	"syscall"
)

// detach leaves the window visible: SW_HIDE would be applied to the tool's
// first window.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windowsCreationFlags}
}
