package models

// EnvironmentInfo describes an isolated interpreter found next to a target.
type EnvironmentInfo struct {
	Root     string `json:"root"`
	Python   string `json:"python"`
	Activate string `json:"activate"`
}

type Framework string

const (
	FrameworkNone   Framework = ""
	FrameworkDjango Framework = "django"
	FrameworkFlask  Framework = "flask"
)

// Classification is the content-based verdict on a target's entry point.
type Classification struct {
	IsWeb     bool      `json:"is_web"`
	Framework Framework `json:"framework"`
}
