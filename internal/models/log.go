package models

import "time"

type LogAction string

const (
	ActionLaunch           LogAction = "launch"
	ActionStop             LogAction = "stop"
	ActionStatusUpdate     LogAction = "status_update"
	ActionStatusCheckError LogAction = "status_check_error"
)

// ExecutionLog is an append-only audit record owned by one target.
type ExecutionLog struct {
	ID        int64     `json:"id"`
	TargetID  int64     `json:"target_id"`
	Action    LogAction `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
