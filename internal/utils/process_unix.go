//go:build !windows

package utils

import (
	"os/exec"
	"runtime"
	"syscall"
)

// ShellHosts are the interpreters that can host a launched console.
var ShellHosts = []string{"bash", "sh", "dash", "zsh", "gnome-terminal-server", "xterm", "konsole"}

// SetNewPG starts the child in its own process group so it outlives the caller.
func SetNewPG(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// SetRawCmdLine is only meaningful on Windows.
func SetRawCmdLine(cmd *exec.Cmd, line string) {}

// BrowserCommand returns the program opening url in the default browser.
func BrowserCommand(url string) (string, []string) {
	if runtime.GOOS == "darwin" {
		return "open", []string{url}
	}
	return "xdg-open", []string{url}
}
