package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"launchdeck/internal/detect"
	"launchdeck/internal/models"
	"launchdeck/internal/utils"

	"github.com/google/uuid"
)

// ScriptPrefix starts the name of every generated launch script.
const ScriptPrefix = "_launchdeck_run_"

type Options struct {
	Platform     Platform
	Python       string
	Shell        string
	Terminal     string
	TerminalArgs []string
}

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if opts.Platform == "" {
		opts.Platform = CurrentPlatform()
	}
	if opts.Python == "" {
		if opts.Platform == PlatformWindows {
			opts.Python = "python"
		} else {
			opts.Python = "python3"
		}
	}
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	return &Builder{opts: opts}
}

func (b *Builder) Platform() Platform {
	return b.opts.Platform
}

// OutputPath is where a target's console output is captured.
func OutputPath(t *models.Target) string {
	return filepath.Join(filepath.Dir(t.Path), fmt.Sprintf("_launchdeck_%d_output.txt", t.ID))
}

func scriptGlob(t *models.Target) string {
	return filepath.Join(filepath.Dir(t.Path), fmt.Sprintf("%s%d_*", ScriptPrefix, t.ID))
}

// RemoveScripts deletes the generated launch scripts of a target.
func RemoveScripts(t *models.Target) {
	matches, _ := filepath.Glob(scriptGlob(t))
	for _, m := range matches {
		os.Remove(m)
	}
}

func variantOf(path string, cls models.Classification) Variant {
	switch cls.Framework {
	case models.FrameworkDjango:
		return VariantDjango
	case models.FrameworkFlask:
		return VariantFlask
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return VariantPythonScript
	case ".sh", ".bat", ".cmd", ".ps1", ".vbs":
		return VariantNativeScript
	case ".html", ".htm", ".url":
		return VariantDocument
	}
	return VariantExecutable
}

/**
 * Plan the step sequence for a target without touching the file system
 * @param {*models.Target} t - Target to launch
 * @param {*models.EnvironmentInfo} env - Resolved environment, nil for the system interpreter
 * @param {models.Classification} cls - Content classification
 * @param {int} port - Port for web entry points, ignored otherwise
 * @param {bool} installDeps - Run the requirements install step when possible
 * @returns {*Spec} Spec with Steps filled in, not yet rendered
 * @returns {error} ErrUnsupportedTarget, or ErrInvalidTarget for a web entry point without a port
 */
func (b *Builder) Plan(t *models.Target, env *models.EnvironmentInfo, cls models.Classification, port int, installDeps bool) (*Spec, error) {
	variant := variantOf(t.Path, cls)
	dir := filepath.Dir(t.Path)
	file := filepath.Base(t.Path)
	spec := &Spec{
		TargetID:   t.ID,
		Title:      title(t, variant),
		Variant:    variant,
		Platform:   b.opts.Platform,
		WorkDir:    dir,
		OutputPath: OutputPath(t),
	}
	if variant.IsWeb() {
		if port <= 0 {
			return nil, fmt.Errorf("%w: web entry point %s has no port", models.ErrInvalidTarget, t.Path)
		}
		spec.Port = port
		spec.URL = fmt.Sprintf("http://localhost:%d", port)
	}

	steps := []Step{
		{Kind: StepEcho, Message: fmt.Sprintf("Starting %s...", t.Name)},
		{Kind: StepChdir, Dir: dir},
	}

	switch variant {
	case VariantDjango, VariantFlask, VariantPythonScript:
		python := b.opts.Python
		if env != nil {
			python = "python"
			steps = append(steps,
				Step{Kind: StepEcho, Message: "Using virtual environment: " + env.Root},
				Step{Kind: StepActivate, Path: env.Activate})
			if installDeps && detect.HasRequirements(t.Path) {
				steps = append(steps,
					Step{Kind: StepEcho, Message: "Installing dependencies..."},
					Step{Kind: StepInstall, Path: "requirements.txt",
						Argv: []string{python, "-m", "pip", "install", "-r", "requirements.txt"}})
			}
		} else {
			steps = append(steps, Step{Kind: StepEcho, Message: "No virtual environment found, using system Python"})
		}
		switch variant {
		case VariantDjango:
			if module := detect.SettingsModule(t.Path); module != "" {
				steps = append(steps, Step{Kind: StepSetEnv, Key: "DJANGO_SETTINGS_MODULE", Value: module})
			}
			steps = append(steps,
				Step{Kind: StepSetEnv, Key: "PYTHONUNBUFFERED", Value: "1"},
				Step{Kind: StepEcho, Message: "Server URL: " + spec.URL},
				Step{Kind: StepRun, Argv: []string{python, "-W", "ignore", file, "runserver",
					"127.0.0.1:" + strconv.Itoa(port), "--noreload", "--nothreading"}})
		case VariantFlask:
			steps = append(steps,
				Step{Kind: StepSetEnv, Key: "PYTHONUNBUFFERED", Value: "1"},
				Step{Kind: StepEcho, Message: "Server URL: " + spec.URL},
				Step{Kind: StepRun, Argv: []string{python, file, "--host", "127.0.0.1", "--port", strconv.Itoa(port)}})
		default:
			steps = append(steps, Step{Kind: StepRun, Argv: []string{python, file}, KeepOpenOnError: true})
		}
	case VariantNativeScript:
		argv, err := b.scriptHost(t.Path)
		if err != nil {
			return nil, err
		}
		steps = append(steps, Step{Kind: StepRun, Argv: argv, KeepOpenOnError: true})
	case VariantDocument:
		opener, args := utils.BrowserCommand(t.Path)
		if b.opts.Platform == PlatformWindows {
			opener, args = "start", []string{"", t.Path}
		}
		steps = append(steps, Step{Kind: StepRun, Argv: append([]string{opener}, args...)})
	default:
		steps = append(steps, Step{Kind: StepRun, Argv: []string{t.Path}})
	}
	spec.Steps = steps
	return spec, nil
}

func (b *Builder) scriptHost(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if b.opts.Platform == PlatformWindows {
		switch ext {
		case ".bat", ".cmd":
			return []string{"call", path}, nil
		case ".ps1":
			return []string{"powershell", "-ExecutionPolicy", "Bypass", "-File", path}, nil
		case ".vbs":
			return []string{"cscript", "//nologo", path}, nil
		}
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedTarget, path)
	}
	switch ext {
	case ".sh":
		return []string{"/bin/sh", path}, nil
	case ".ps1":
		return []string{"pwsh", "-File", path}, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedTarget, path)
}

func title(t *models.Target, v Variant) string {
	switch v {
	case VariantDjango:
		return "Django Server - " + t.Name
	case VariantFlask:
		return "Flask Server - " + t.Name
	}
	return t.Name
}

/**
 * Plan, render and materialize a launch
 * @returns {*Spec} Spec ready to spawn
 * @returns {error} ErrPathNotFound if the target path is missing, plan or write errors otherwise
 * @description
 * - Writes the rendered script next to the target under a fresh unique name
 * - Truncates the output capture file
 * - Removes scripts left over from the target's previous launches
 */
func (b *Builder) Build(t *models.Target, env *models.EnvironmentInfo, cls models.Classification, port int, installDeps bool) (*Spec, error) {
	if _, err := os.Stat(t.Path); err != nil {
		return nil, fmt.Errorf("%s: %w", t.Path, models.ErrPathNotFound)
	}
	spec, err := b.Plan(t, env, cls, port, installDeps)
	if err != nil {
		return nil, err
	}

	ext := ".sh"
	if spec.Platform == PlatformWindows {
		ext = ".bat"
		spec.Script = RenderBatch(spec)
	} else {
		spec.Script = RenderShell(spec)
	}

	RemoveScripts(t)
	spec.ScriptPath = filepath.Join(spec.WorkDir,
		fmt.Sprintf("%s%d_%s%s", ScriptPrefix, t.ID, uuid.NewString()[:8], ext))
	if err := os.WriteFile(spec.ScriptPath, []byte(spec.Script), 0755); err != nil {
		return nil, fmt.Errorf("failed to write launch script: %w", err)
	}
	if err := os.WriteFile(spec.OutputPath, nil, 0644); err != nil {
		return nil, fmt.Errorf("failed to reset output file: %w", err)
	}
	if err := b.wrap(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

type wrapperData struct {
	Script string
	Title  string
	Shell  string
	Dir    string
}

func (b *Builder) wrap(spec *Spec) error {
	if spec.Platform == PlatformWindows {
		spec.Command = "cmd.exe"
		spec.Args = []string{"/C", "start", `"` + spec.Title + `"`, "/min", "cmd", "/k", "call", `"` + spec.ScriptPath + `"`}
		spec.RawCmdLine = spec.Command + " " + strings.Join(spec.Args, " ")
		return nil
	}
	if b.opts.Terminal == "" {
		spec.Command = b.opts.Shell
		spec.Args = []string{spec.ScriptPath}
		spec.Headless = true
		return nil
	}
	args := b.opts.TerminalArgs
	if len(args) == 0 {
		args = []string{"--", "{{.Shell}}", "{{.Script}}"}
	}
	cmd, expanded, err := utils.GetCommandLine(b.opts.Terminal, args, wrapperData{
		Script: spec.ScriptPath,
		Title:  spec.Title,
		Shell:  b.opts.Shell,
		Dir:    spec.WorkDir,
	})
	if err != nil {
		return err
	}
	spec.Command = cmd
	spec.Args = expanded
	return nil
}

/**
 * Build a command line matcher for a target's console processes
 * @returns {func(string) bool} True for command lines naming the target path or one of its launch scripts
 */
func CommandLineMatcher(t *models.Target, p Platform) func(string) bool {
	needles := []string{t.Path, filepath.Join(filepath.Dir(t.Path), fmt.Sprintf("%s%d_", ScriptPrefix, t.ID))}
	fold := p == PlatformWindows
	if fold {
		for i := range needles {
			needles[i] = strings.ToLower(needles[i])
		}
	}
	return func(cmdline string) bool {
		if cmdline == "" {
			return false
		}
		if fold {
			cmdline = strings.ToLower(cmdline)
		}
		for _, n := range needles {
			if strings.Contains(cmdline, n) {
				return true
			}
		}
		return false
	}
}
