package detect

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var settingsAssignment = regexp.MustCompile(`os\.environ\.setdefault\(\s*["']DJANGO_SETTINGS_MODULE["']\s*,\s*["']([^"']+)["']\s*\)`)

/**
 * Find the Django settings module for an entry point
 * @param {string} entryPoint - Path of manage.py
 * @returns {string} Dotted module name, empty when nothing was found
 * @description
 * - An explicit os.environ.setdefault assignment in the entry point wins
 * - Otherwise probes settings.py, core/, config/, <project>/, <lower(project)>/ and the same under src/
 * - Falls back to <project>.settings when <project>/__init__.py exists
 */
func SettingsModule(entryPoint string) string {
	if content, err := ReadText(entryPoint); err == nil {
		if m := settingsAssignment.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}

	root := filepath.Dir(entryPoint)
	project := filepath.Base(root)
	candidates := []string{"", "core", "config", project}
	if lower := strings.ToLower(project); lower != project {
		candidates = append(candidates, lower)
	}
	for _, prefix := range []string{"", "src"} {
		for _, pkg := range candidates {
			rel := filepath.Join(prefix, pkg, "settings.py")
			if fileExists(filepath.Join(root, rel)) {
				return moduleName(rel)
			}
		}
	}
	if fileExists(filepath.Join(root, project, "__init__.py")) {
		return project + ".settings"
	}
	return ""
}

func moduleName(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".py")
	return strings.ReplaceAll(rel, "/", ".")
}

// HasRequirements reports a requirements.txt next to the target.
func HasRequirements(targetPath string) bool {
	_, err := os.Stat(filepath.Join(filepath.Dir(targetPath), "requirements.txt"))
	return err == nil
}
