package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"launchdeck/internal/detect"
	"launchdeck/internal/logger"
	"launchdeck/internal/models"
)

var (
	skipDirs = map[string]bool{
		".git": true, "__pycache__": true, "node_modules": true, "build": true, "dist": true,
	}
	backupParts = map[string]bool{
		"backup": true, "bak": true, ".bak": true, "old": true, ".old": true,
	}
	docFiles = []string{
		"readme.txt", "readme.md", "help.txt", "guide.txt", "manual.txt", "instructions.txt", "about.txt",
	}
	guideFiles = []string{
		"userguide.txt", "user_guide.txt", "guide.md", "instructions.md",
	}
	flaskScanNames = []string{"app.py", "run.py", "main.py"}
)

type Options struct {
	// MaxDepth bounds the number of path parts below the scan root.
	MaxDepth int
	// Progress receives one line per visited or skipped directory.
	Progress func(message string)
}

type Scanner struct {
	opts Options
}

func NewScanner(opts Options) *Scanner {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 10
	}
	return &Scanner{opts: opts}
}

func (s *Scanner) progress(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Debug(msg)
	if s.opts.Progress != nil {
		s.opts.Progress(msg)
	}
}

/**
 * Walk a directory tree and collect web app registrations
 * @param {context.Context} ctx - Cancels the walk between directories
 * @param {string} root - Directory to scan
 * @returns {[]models.Registration} One registration per entry point, deduplicated by path
 * @returns {error} Error if root isn't a readable directory
 * @description
 * - Backup-like paths, repeated path parts and paths deeper than MaxDepth are skipped with their subtree
 * - VCS, cache, build and virtual environment directories are never entered
 * - A Django manage.py wins over Flask files of the same directory, at most one Flask app per directory
 * - Registrations are enriched from the first documentation file of their directory
 */
func (s *Scanner) Scan(ctx context.Context, root string) ([]models.Registration, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	s.progress("Starting discovery in: %s", abs)
	found := []models.Registration{}
	seen := map[string]bool{}
	err = s.walk(ctx, abs, abs, seen, &found)
	s.progress("Discovery complete. Found %d applications.", len(found))
	return found, err
}

func (s *Scanner) walk(ctx context.Context, root, dir string, seen map[string]bool, found *[]models.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isBackupPath(root, dir) {
		s.progress("Skipping backup/nested path: %s", dir)
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debugf("Cannot read %s: %v", dir, err)
		return nil
	}
	s.progress("Scanning directory: %s", dir)

	files := map[string]string{}
	var subdirs []string
	hasEnv := false
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if detect.IsEnvDir(name) {
				hasEnv = true
				continue
			}
			if skipDirs[strings.ToLower(name)] || backupParts[strings.ToLower(name)] {
				continue
			}
			subdirs = append(subdirs, name)
			continue
		}
		files[strings.ToLower(name)] = name
	}

	if reg, ok := s.detectApp(dir, files, hasEnv); ok && !seen[reg.Path] {
		seen[reg.Path] = true
		*found = append(*found, reg)
		s.progress("Added application: %s", reg.Name)
	}

	sort.Strings(subdirs)
	for _, sub := range subdirs {
		if err := s.walk(ctx, root, filepath.Join(dir, sub), seen, found); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) isBackupPath(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) > s.opts.MaxDepth {
		return true
	}
	counts := map[string]int{}
	for _, p := range parts {
		if backupParts[strings.ToLower(p)] {
			return true
		}
		counts[p]++
		if counts[p] > 1 {
			return true
		}
	}
	return false
}

func (s *Scanner) detectApp(dir string, files map[string]string, hasEnv bool) (models.Registration, bool) {
	suffix := ""
	if hasEnv {
		suffix = " (with venv)"
	}
	if name, ok := files["manage.py"]; ok {
		path := filepath.Join(dir, name)
		if content, err := detect.ReadText(path); err == nil && detect.IsDjangoEntry(path, content) {
			s.progress("Found Django application: %s", path)
			return s.enrich(dir, files, models.Registration{
				Name:        filepath.Base(dir),
				Path:        path,
				Type:        models.TypeWeb,
				Description: "Django web application" + suffix,
			}), true
		}
	}
	for _, candidate := range flaskScanNames {
		name, ok := files[candidate]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if content, err := detect.ReadText(path); err == nil && detect.IsFlaskEntry(path, content) {
			s.progress("Found Flask application: %s", path)
			return s.enrich(dir, files, models.Registration{
				Name:        filepath.Base(dir),
				Path:        path,
				Type:        models.TypeWeb,
				Description: "Flask web application" + suffix,
			}), true
		}
	}
	return models.Registration{}, false
}

// enrich fills description and user guide from the first documentation file found.
func (s *Scanner) enrich(dir string, files map[string]string, reg models.Registration) models.Registration {
	for _, doc := range docFiles {
		name, ok := files[doc]
		if !ok {
			continue
		}
		content, err := detect.ReadText(filepath.Join(dir, name))
		if err != nil || strings.TrimSpace(content) == "" {
			continue
		}
		s.progress("Found documentation: %s", name)
		lines := strings.SplitN(content, "\n", 4)
		if len(lines) > 3 {
			lines = lines[:3]
		}
		reg.Description = strings.TrimSpace(strings.Join(lines, "\n"))
		reg.UserGuide = content
		return reg
	}
	for _, guide := range guideFiles {
		name, ok := files[guide]
		if !ok {
			continue
		}
		content, err := detect.ReadText(filepath.Join(dir, name))
		if err == nil && strings.TrimSpace(content) != "" {
			s.progress("Found user guide: %s", name)
			reg.UserGuide = content
			return reg
		}
	}
	return reg
}
