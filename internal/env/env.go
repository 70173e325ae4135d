package env

import (
	"os"
	"path/filepath"
)

// (default: %USERPROFILE%/.launchdeck on Windows, $HOME/.launchdeck on Linux)
var LaunchdeckDir string = GetLaunchdeckDir()

/**
 * Get launchdeck directory path
 * @returns {string} Returns launchdeck directory path
 * @description
 * - LAUNCHDECK_HOME overrides the default location
 */
func GetLaunchdeckDir() string {
	if dir := os.Getenv("LAUNCHDECK_HOME"); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".launchdeck")
}

// RunDir holds lock files and the server socket.
func RunDir() string {
	return filepath.Join(LaunchdeckDir, "run")
}

// Version is set at build time with -ldflags "-X launchdeck/internal/env.Version=..."
var Version = "dev"
