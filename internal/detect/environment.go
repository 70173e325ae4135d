package detect

import (
	"os"
	"path/filepath"
	"runtime"

	"launchdeck/internal/models"
)

// EnvDirNames are the virtual environment directories probed, in order.
var EnvDirNames = []string{"venv", ".venv", "env", ".env"}

/**
 * Locate an isolated interpreter next to a target
 * @param {string} targetPath - Path of the script or entry point
 * @returns {*models.EnvironmentInfo} First environment whose interpreter exists, nil for "use the system interpreter"
 */
func ResolveEnvironment(targetPath string) *models.EnvironmentInfo {
	return ResolveEnvironmentFor(targetPath, runtime.GOOS)
}

// ResolveEnvironmentFor resolves against an explicit OS family layout.
func ResolveEnvironmentFor(targetPath, goos string) *models.EnvironmentInfo {
	dir := filepath.Dir(targetPath)
	for _, name := range EnvDirNames {
		root := filepath.Join(dir, name)
		var python, activate string
		if goos == "windows" {
			python = filepath.Join(root, "Scripts", "python.exe")
			activate = filepath.Join(root, "Scripts", "activate.bat")
		} else {
			python = filepath.Join(root, "bin", "python")
			activate = filepath.Join(root, "bin", "activate")
		}
		if fileExists(python) {
			return &models.EnvironmentInfo{Root: root, Python: python, Activate: activate}
		}
	}
	return nil
}

// IsEnvDir reports whether a directory name is one of the probed environment names.
func IsEnvDir(name string) bool {
	for _, n := range EnvDirNames {
		if n == name {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
