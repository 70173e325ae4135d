//go:build windows

package utils

import (
	"os/exec"
	"syscall"
)

// ShellHosts are the interpreters that can host a launched console.
var ShellHosts = []string{"cmd.exe", "powershell.exe", "pwsh.exe", "conhost.exe", "windowsterminal.exe"}

// SetNewPG detaches the child into a new process group.
func SetNewPG(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CreationFlags |= syscall.CREATE_NEW_PROCESS_GROUP
}

// SetRawCmdLine passes line to CreateProcess untouched; cmd.exe quoting
// doesn't survive the default argument escaping.
func SetRawCmdLine(cmd *exec.Cmd, line string) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.CmdLine = line
}

func BrowserCommand(url string) (string, []string) {
	return "rundll32", []string{"url.dll,FileProtocolHandler", url}
}
