package launch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"launchdeck/internal/detect"
	"launchdeck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0755))
	return path
}

func kinds(steps []Step) []StepKind {
	var out []StepKind
	for _, s := range steps {
		if s.Kind != StepEcho {
			out = append(out, s.Kind)
		}
	}
	return out
}

func TestPlanScriptWithoutEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "tool.py"), "print('hi')\n")
	b := NewBuilder(Options{Platform: PlatformUnix})
	tg := &models.Target{ID: 7, Name: "tool", Path: path, Type: models.TypeScript}

	spec, err := b.Plan(tg, detect.ResolveEnvironment(path), detect.Classify(path), 0, true)
	require.NoError(t, err)

	assert.Equal(t, VariantPythonScript, spec.Variant)
	assert.False(t, spec.HasStep(StepActivate))
	assert.False(t, spec.HasStep(StepInstall))
	assert.Equal(t, []StepKind{StepChdir, StepRun}, kinds(spec.Steps))

	run := spec.Steps[len(spec.Steps)-1]
	assert.Equal(t, []string{"python3", "tool.py"}, run.Argv)
	assert.True(t, run.KeepOpenOnError)
	assert.Empty(t, spec.URL)
}

func TestPlanDjangoWithEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "manage.py"),
		"import os\nos.environ.setdefault('DJANGO_SETTINGS_MODULE', 'myproj.settings')\n")
	writeFile(t, filepath.Join(dir, "requirements.txt"), "django\n")
	env := &models.EnvironmentInfo{Root: filepath.Join(dir, "venv"), Activate: filepath.Join(dir, "venv", "bin", "activate")}
	tg := &models.Target{ID: 1, Name: "blog", Path: path, Type: models.TypeWeb}

	spec, err := NewBuilder(Options{Platform: PlatformUnix}).Plan(tg, env, detect.Classify(path), 9000, true)
	require.NoError(t, err)

	assert.Equal(t, VariantDjango, spec.Variant)
	assert.Equal(t, "http://localhost:9000", spec.URL)
	assert.Equal(t, []StepKind{StepChdir, StepActivate, StepInstall, StepSetEnv, StepSetEnv, StepRun}, kinds(spec.Steps))

	var setenv []Step
	for _, s := range spec.Steps {
		if s.Kind == StepSetEnv {
			setenv = append(setenv, s)
		}
	}
	assert.Equal(t, "DJANGO_SETTINGS_MODULE", setenv[0].Key)
	assert.Equal(t, "myproj.settings", setenv[0].Value)
	assert.Equal(t, "PYTHONUNBUFFERED", setenv[1].Key)

	run := spec.Steps[len(spec.Steps)-1]
	assert.Equal(t, []string{"python", "-W", "ignore", "manage.py", "runserver", "127.0.0.1:9000", "--noreload", "--nothreading"}, run.Argv)
}

func TestPlanSkipsInstallWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "app.py"), "from flask import Flask\n")
	writeFile(t, filepath.Join(dir, "requirements.txt"), "flask\n")
	env := &models.EnvironmentInfo{Root: filepath.Join(dir, ".venv"), Activate: filepath.Join(dir, ".venv", "bin", "activate")}
	tg := &models.Target{ID: 2, Name: "api", Path: path}

	spec, err := NewBuilder(Options{Platform: PlatformUnix}).Plan(tg, env, detect.Classify(path), 9001, false)
	require.NoError(t, err)
	assert.Equal(t, VariantFlask, spec.Variant)
	assert.False(t, spec.HasStep(StepInstall))
	assert.Equal(t, []string{"python", "app.py", "--host", "127.0.0.1", "--port", "9001"}, spec.Steps[len(spec.Steps)-1].Argv)
}

func TestPlanWebWithoutPort(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "app.py"), "from flask import Flask\n")

	_, err := NewBuilder(Options{Platform: PlatformUnix}).Plan(&models.Target{Path: path}, nil, detect.Classify(path), 0, false)
	assert.ErrorIs(t, err, models.ErrInvalidTarget)
}

func TestPlanNativeScripts(t *testing.T) {
	dir := t.TempDir()
	unix := NewBuilder(Options{Platform: PlatformUnix})
	win := NewBuilder(Options{Platform: PlatformWindows})

	sh := &models.Target{ID: 3, Name: "deploy", Path: filepath.Join(dir, "deploy.sh")}
	spec, err := unix.Plan(sh, nil, models.Classification{}, 0, true)
	require.NoError(t, err)
	assert.Equal(t, VariantNativeScript, spec.Variant)
	assert.Equal(t, []StepKind{StepChdir, StepRun}, kinds(spec.Steps))

	bat := &models.Target{ID: 4, Name: "backup", Path: filepath.Join(dir, "backup.bat")}
	_, err = unix.Plan(bat, nil, models.Classification{}, 0, true)
	assert.ErrorIs(t, err, models.ErrUnsupportedTarget)

	spec, err = win.Plan(bat, nil, models.Classification{}, 0, true)
	require.NoError(t, err)
	assert.Equal(t, "call", spec.Steps[len(spec.Steps)-1].Argv[0])

	exe := &models.Target{ID: 5, Name: "calc", Path: filepath.Join(dir, "calc.exe")}
	spec, err = win.Plan(exe, nil, models.Classification{}, 0, true)
	require.NoError(t, err)
	assert.Equal(t, VariantExecutable, spec.Variant)
	assert.Equal(t, []string{exe.Path}, spec.Steps[len(spec.Steps)-1].Argv)
}

func TestRenderersAgreeOnFailurePoints(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "manage.py"), "DJANGO_SETTINGS_MODULE\n")
	writeFile(t, filepath.Join(dir, "requirements.txt"), "")
	env := &models.EnvironmentInfo{Root: filepath.Join(dir, "venv"), Activate: filepath.Join(dir, "venv", "bin", "activate")}
	tg := &models.Target{ID: 9, Name: "site", Path: path}

	spec, err := NewBuilder(Options{Platform: PlatformUnix}).Plan(tg, env, detect.Classify(path), 9005, true)
	require.NoError(t, err)

	shell := RenderShell(spec)
	batch := RenderBatch(spec)

	assert.Contains(t, shell, "exit 2;")
	assert.Contains(t, shell, "exit 3;")
	assert.Contains(t, batch, "exit /b 2")
	assert.Contains(t, batch, "exit /b 3")
	assert.True(t, strings.Index(shell, "exit 2;") < strings.Index(shell, "exit 3;"))
	assert.True(t, strings.Index(batch, "exit /b 2") < strings.Index(batch, "exit /b 3"))
	assert.Contains(t, batch, `set "PYTHONUNBUFFERED=1"`)
	assert.Contains(t, shell, "export PYTHONUNBUFFERED=1")
	assert.Contains(t, batch, "title Django Server - site")
	assert.Contains(t, shell, "runserver 127.0.0.1:9005 --noreload --nothreading")
	assert.Contains(t, batch, "runserver 127.0.0.1:9005 --noreload --nothreading")
}

func TestBuildWritesScript(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "job.sh"), "echo hi\n")
	tg := &models.Target{ID: 11, Name: "job", Path: path}
	b := NewBuilder(Options{Platform: PlatformUnix, Shell: "/bin/sh"})

	first, err := b.Build(tg, nil, models.Classification{}, 0, true)
	require.NoError(t, err)
	assert.FileExists(t, first.ScriptPath)
	assert.FileExists(t, first.OutputPath)
	assert.True(t, first.Headless)
	assert.Equal(t, "/bin/sh", first.Command)
	assert.Equal(t, []string{first.ScriptPath}, first.Args)

	second, err := b.Build(tg, nil, models.Classification{}, 0, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ScriptPath, second.ScriptPath)
	assert.NoFileExists(t, first.ScriptPath)

	match := CommandLineMatcher(tg, PlatformUnix)
	assert.True(t, match("/bin/sh "+second.ScriptPath))
	assert.False(t, match("/bin/sh /elsewhere/other.sh"))
	assert.False(t, match(""))
}

func TestBuildMissingPath(t *testing.T) {
	tg := &models.Target{ID: 1, Path: filepath.Join(t.TempDir(), "gone.py")}
	_, err := NewBuilder(Options{Platform: PlatformUnix}).Build(tg, nil, models.Classification{}, 0, true)
	assert.ErrorIs(t, err, models.ErrPathNotFound)
}

func TestBuildTerminalWrapper(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "job.sh"), "echo hi\n")
	tg := &models.Target{ID: 12, Name: "job", Path: path}
	b := NewBuilder(Options{Platform: PlatformUnix, Shell: "/bin/bash", Terminal: "gnome-terminal"})

	spec, err := b.Build(tg, nil, models.Classification{}, 0, true)
	require.NoError(t, err)
	assert.False(t, spec.Headless)
	assert.Equal(t, "gnome-terminal", spec.Command)
	assert.Equal(t, []string{"--", "/bin/bash", spec.ScriptPath}, spec.Args)
}

func TestFailureFromOutput(t *testing.T) {
	assert.NoError(t, FailureFromOutput("Starting...\n"))
	assert.ErrorIs(t, FailureFromOutput("x\n"+MarkerActivationFailed+"\n"), models.ErrEnvironmentActivationFailed)
	assert.ErrorIs(t, FailureFromOutput(MarkerInstallFailed), models.ErrDependencyInstallFailed)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "plain/path.py", shellQuote("plain/path.py"))
	assert.Equal(t, "'with space'", shellQuote("with space"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
}
