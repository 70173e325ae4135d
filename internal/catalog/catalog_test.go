package catalog

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"launchdeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportThenImport(t *testing.T) {
	targets := []*models.Target{
		{ID: 1, Name: "blog", Path: "/srv/blog/manage.py", Type: models.TypeWeb, Port: 9000, Rating: 4,
			Description: "Blog", UserGuide: "Run it\nthen open it"},
		{ID: 2, Name: "backup", Path: "/opt/backup.sh", Type: models.TypeScript},
	}
	path := filepath.Join(t.TempDir(), "export", "apps.yaml")
	require.NoError(t, WriteFile(path, FromTargets(targets)))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, f.Version)
	require.Len(t, f.Apps, 2)
	assert.Equal(t, "Run it\nthen open it", f.Apps[0].UserGuide)
	assert.Equal(t, models.TypeScript, f.Apps[1].Type)
}

func TestDecodeResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, &File{Version: 1, Apps: []models.Registration{{Name: "tool", Path: "tools/tool.py"}}}))
	path := filepath.Join(dir, "apps.yaml")
	require.NoError(t, WriteFile(path, &File{Version: 1, Apps: []models.Registration{{Name: "tool", Path: "tools/tool.py"}}}))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tools", "tool.py"), f.Apps[0].Path)
	assert.Contains(t, buf.String(), "path: tools/tool.py")
}

func TestDecodeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"version":  "version: 2\napps: []\n",
		"no path":  "apps:\n  - name: x\n",
		"bad type": "apps:\n  - name: x\n    path: /x\n    type: daemon\n",
		"unknown":  "apps:\n  - name: x\n    path: /x\n    port: 9000\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	f, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Apps)
}
