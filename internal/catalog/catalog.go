package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"launchdeck/internal/models"

	"gopkg.in/yaml.v3"
)

// FormatVersion is written to every exported file.
const FormatVersion = 1

/**
 * File is the YAML document holding a set of registrations
 * @property {int} version - Format version, currently 1
 * @property {[]models.Registration} apps - Registrations in catalog order
 */
type File struct {
	Version int                   `yaml:"version"`
	Apps    []models.Registration `yaml:"apps"`
}

// FromTargets keeps only the registration fields of stored targets.
func FromTargets(targets []*models.Target) *File {
	f := &File{Version: FormatVersion, Apps: make([]models.Registration, 0, len(targets))}
	for _, t := range targets {
		f.Apps = append(f.Apps, models.Registration{
			Name:        t.Name,
			Path:        t.Path,
			Type:        t.Type,
			Description: t.Description,
			UserGuide:   t.UserGuide,
		})
	}
	return f
}

func Encode(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

/**
 * Decode a catalog document
 * @param {io.Reader} r - YAML source
 * @returns {*File} Parsed document
 * @returns {error} Parse error, unknown version or an entry without name/path
 * @description
 * - Relative paths are kept as written, callers resolve them
 */
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &File{Version: FormatVersion}, nil
		}
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if f.Version == 0 {
		f.Version = FormatVersion
	}
	if f.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported catalog version %d", f.Version)
	}
	for i, app := range f.Apps {
		if app.Name == "" || app.Path == "" {
			return nil, fmt.Errorf("catalog entry %d: %w: name and path are required", i+1, models.ErrInvalidTarget)
		}
		if app.Type != "" && !app.Type.Valid() {
			return nil, fmt.Errorf("catalog entry %d: %w: unknown type %q", i+1, models.ErrInvalidTarget, app.Type)
		}
	}
	return &f, nil
}

func WriteFile(path string, f *File) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadFile decodes path and resolves relative entry paths against the file's directory.
func ReadFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	f, err := Decode(in)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	for i := range f.Apps {
		if !filepath.IsAbs(f.Apps[i].Path) {
			f.Apps[i].Path = filepath.Join(base, f.Apps[i].Path)
		}
	}
	return f, nil
}
