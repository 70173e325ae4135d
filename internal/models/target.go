package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AppType is the declared kind of a target.
type AppType string

const (
	TypeExecutable AppType = "executable"
	TypeScript     AppType = "script"
	TypeWeb        AppType = "web"
)

func (t AppType) Valid() bool {
	switch t {
	case TypeExecutable, TypeScript, TypeWeb:
		return true
	}
	return false
}

type AppStatus string

const (
	StatusStopped AppStatus = "Stopped"
	StatusRunning AppStatus = "Running"
)

/**
 * Target is a catalogued launchable item
 * @property {int64} id - Store-assigned identifier
 * @property {string} path - Absolute path to the executable, script or entry point
 * @property {AppStatus} status - Last known state
 * @property {int} port - Bound port for web entry points, 0 when none
 * @property {int} pid - Process recorded at the last launch, 0 when none
 * @property {int} rating - 1..5, 0 when unrated
 */
type Target struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        AppType   `json:"type"`
	Status      AppStatus `json:"status"`
	Port        int       `json:"port"`
	Pid         int       `json:"pid"`
	Description string    `json:"description"`
	UserGuide   string    `json:"user_guide"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MarshalJSON reports an unassigned port or rating as null.
func (t Target) MarshalJSON() ([]byte, error) {
	type plain Target
	out := struct {
		plain
		Port   *int `json:"port"`
		Rating *int `json:"rating"`
	}{plain: plain(t)}
	if t.Port != 0 {
		out.Port = &t.Port
	}
	if t.Rating != 0 {
		out.Rating = &t.Rating
	}
	return json.Marshal(out)
}

// URL is the local address of a web target that holds a port.
func (t *Target) URL() string {
	if t.Port == 0 {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", t.Port)
}

func (t *Target) IsRunning() bool {
	return t.Status == StatusRunning
}

// TargetUpdate carries editable catalog fields; nil leaves a field unchanged.
type TargetUpdate struct {
	Name        *string  `json:"name"`
	Path        *string  `json:"path"`
	Type        *AppType `json:"type"`
	Description *string  `json:"description"`
	UserGuide   *string  `json:"user_guide"`
}

func (u *TargetUpdate) Apply(t *Target) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Path != nil {
		t.Path = *u.Path
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.UserGuide != nil {
		t.UserGuide = *u.UserGuide
	}
}
