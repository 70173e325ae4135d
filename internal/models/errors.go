package models

import "errors"

var (
	ErrTargetNotFound              = errors.New("target not found")
	ErrPathNotFound                = errors.New("target path not found")
	ErrNoPortsAvailable            = errors.New("no ports available")
	ErrEnvironmentActivationFailed = errors.New("environment activation failed")
	ErrDependencyInstallFailed     = errors.New("dependency installation failed")
	ErrProcessNotFound             = errors.New("process not found")
	ErrProbe                       = errors.New("process probe failed")
	ErrInvalidRating               = errors.New("rating must be between 1 and 5")
	ErrUnsupportedTarget           = errors.New("unsupported target on this platform")
	ErrAlreadyRunning              = errors.New("target is already running")
	ErrInvalidTarget               = errors.New("invalid target")
)
