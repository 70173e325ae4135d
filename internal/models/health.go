package models

// HealthResponse is returned by /healthz
// @Description service readiness summary
type HealthResponse struct {
	Version   string  `json:"version" example:"1.0.0"`
	StartTime string  `json:"startTime" example:"2024-01-01T10:00:00Z"`
	Status    string  `json:"status" example:"UP"`
	Uptime    string  `json:"uptime" example:"1h30m45s"`
	Metrics   Metrics `json:"metrics"`
}

type Metrics struct {
	TotalRequests  int64 `json:"totalRequests" example:"1000"`
	ErrorRequests  int64 `json:"errorRequests" example:"5"`
	TotalTargets   int   `json:"totalTargets" example:"12"`
	RunningTargets int   `json:"runningTargets" example:"3"`
	PortsInUse     int   `json:"portsInUse" example:"2"`
}
