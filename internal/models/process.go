package models

import "time"

type RunStatus string

const (
	ProcRunning RunStatus = "running"
	ProcExited  RunStatus = "exited"
	ProcError   RunStatus = "error"
	ProcStopped RunStatus = "stopped"
)

type ProcessDetail struct {
	Title          string    `json:"title"`
	Command        string    `json:"command"`
	Args           []string  `json:"args"`
	WorkDir        string    `json:"workDir"`
	Pid            int       `json:"pid"`
	Status         RunStatus `json:"status"`
	ExitCode       int       `json:"exitCode"`
	StartTime      time.Time `json:"startTime"`
	LastExitTime   time.Time `json:"lastExitTime"`
	LastExitReason string    `json:"lastExitReason"`
}
