package detect

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"launchdeck/internal/models"

	"golang.org/x/text/encoding/charmap"
)

// MaxReadBytes caps every content inspection.
const MaxReadBytes = 100000

const djangoMarker = "DJANGO_SETTINGS_MODULE"

// FlaskEntryNames are the file names accepted as Flask entry points.
var FlaskEntryNames = []string{"app.py", "run.py", "main.py", "wsgi.py", "server.py"}

/**
 * Read the head of a text file
 * @param {string} path - File to read
 * @returns {string} At most MaxReadBytes bytes decoded as UTF-8, or Latin-1 when not valid UTF-8
 * @returns {error} Open or read error
 */
func ReadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, MaxReadBytes))
	if err != nil {
		return "", err
	}
	if utf8.Valid(buf) {
		return string(buf), nil
	}
	// a multi-byte rune may be cut at the limit
	if len(buf) == MaxReadBytes {
		for cut := 1; cut < utf8.UTFMax; cut++ {
			if utf8.Valid(buf[:len(buf)-cut]) {
				return string(buf[:len(buf)-cut]), nil
			}
		}
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// IsDjangoEntry reports a manage.py that mentions the settings variable.
func IsDjangoEntry(path, content string) bool {
	return strings.EqualFold(filepath.Base(path), "manage.py") && strings.Contains(content, djangoMarker)
}

// IsFlaskEntry reports a recognized entry file that imports flask.
func IsFlaskEntry(path, content string) bool {
	base := strings.ToLower(filepath.Base(path))
	named := false
	for _, n := range FlaskEntryNames {
		if base == n {
			named = true
			break
		}
	}
	if !named {
		return false
	}
	if strings.Contains(content, "from flask import") {
		return true
	}
	return strings.Contains(strings.ToLower(content), "import flask")
}

/**
 * Classify a target by name and content
 * @param {string} targetPath - Entry point path
 * @returns {models.Classification} Web verdict and framework
 * @description
 * - Both the file name and a content marker must match
 * - Unreadable files are treated as plain, non-web targets
 */
func Classify(targetPath string) models.Classification {
	if !strings.EqualFold(filepath.Ext(targetPath), ".py") {
		return models.Classification{}
	}
	content, err := ReadText(targetPath)
	if err != nil {
		return models.Classification{}
	}
	switch {
	case IsDjangoEntry(targetPath, content):
		return models.Classification{IsWeb: true, Framework: models.FrameworkDjango}
	case IsFlaskEntry(targetPath, content):
		return models.Classification{IsWeb: true, Framework: models.FrameworkFlask}
	}
	return models.Classification{}
}

// DetectType guesses the declared kind from the file extension.
func DetectType(path string) models.AppType {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "exe", "com", "app", "":
		return models.TypeExecutable
	case "py", "bat", "cmd", "ps1", "vbs", "sh":
		return models.TypeScript
	case "url", "html", "htm":
		return models.TypeWeb
	}
	return models.TypeExecutable
}
