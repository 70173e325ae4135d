package models

// Registration is the input shape for cataloguing a target, produced by the
// discovery scanner and the YAML catalog.
type Registration struct {
	Name        string  `json:"name" yaml:"name"`
	Path        string  `json:"path" yaml:"path"`
	Type        AppType `json:"type" yaml:"type"`
	Description string  `json:"description" yaml:"description,omitempty"`
	UserGuide   string  `json:"user_guide" yaml:"user_guide,omitempty"`
}

// LaunchResult is returned by a launch.
type LaunchResult struct {
	Success bool   `json:"success"`
	Pid     int    `json:"pid"`
	Output  string `json:"output"`
	URL     string `json:"url,omitempty"`
}

type StopResult struct {
	Success        bool  `json:"success"`
	TerminatedPids []int `json:"terminated_pids"`
}

type StatusResult struct {
	Status AppStatus `json:"status"`
	Port   *int      `json:"port"`
	URL    string    `json:"url,omitempty"`
}

type DiscoverResult struct {
	Found      []Registration `json:"found"`
	Registered []*Target      `json:"registered"`
	Skipped    int            `json:"skipped"`
	Log        []string       `json:"log,omitempty"`
}
