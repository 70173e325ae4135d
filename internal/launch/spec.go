package launch

import (
	"runtime"
	"strings"
)

type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformUnix    Platform = "unix"
)

func CurrentPlatform() Platform {
	return PlatformFor(runtime.GOOS)
}

func PlatformFor(goos string) Platform {
	if goos == "windows" {
		return PlatformWindows
	}
	return PlatformUnix
}

// Variant is the closed set of launchable target shapes.
type Variant string

const (
	VariantDjango       Variant = "django"
	VariantFlask        Variant = "flask"
	VariantPythonScript Variant = "python-script"
	VariantNativeScript Variant = "native-script"
	VariantExecutable   Variant = "executable"
	VariantDocument     Variant = "document"
)

func (v Variant) IsWeb() bool {
	return v == VariantDjango || v == VariantFlask
}

type StepKind string

const (
	StepChdir    StepKind = "chdir"
	StepActivate StepKind = "activate"
	StepInstall  StepKind = "install"
	StepSetEnv   StepKind = "setenv"
	StepEcho     StepKind = "echo"
	StepRun      StepKind = "run"
)

// Exit codes the generated scripts use for their fallible steps.
const (
	ExitChdirFailed      = 1
	ExitActivationFailed = 2
	ExitInstallFailed    = 3
)

// Markers written to the output file when a fallible step fails.
const (
	MarkerActivationFailed = "[launchdeck] ERROR: failed to activate virtual environment"
	MarkerInstallFailed    = "[launchdeck] ERROR: failed to install dependencies"
)

/**
 * Step is one platform-neutral action of a launch
 * @property {StepKind} kind - What the step does
 * @property {string} dir - chdir target
 * @property {string} path - Activation script (activate) or requirements file (install)
 * @property {string} key - Variable name (setenv)
 * @property {string} value - Variable value (setenv)
 * @property {string} message - Progress text (echo)
 * @property {[]string} argv - Program and arguments (run, install)
 * @property {bool} keepOpenOnError - run: report a non-zero exit and wait before closing
 */
type Step struct {
	Kind            StepKind `json:"kind"`
	Dir             string   `json:"dir,omitempty"`
	Path            string   `json:"path,omitempty"`
	Key             string   `json:"key,omitempty"`
	Value           string   `json:"value,omitempty"`
	Message         string   `json:"message,omitempty"`
	Argv            []string `json:"argv,omitempty"`
	KeepOpenOnError bool     `json:"keep_open_on_error,omitempty"`
}

// Fallible steps abort the launch with their own exit code.
func (s Step) Fallible() bool {
	return s.Kind == StepChdir || s.Kind == StepActivate || s.Kind == StepInstall
}

/**
 * Spec is everything needed to start one target
 * @description
 * - Steps is the structured sequence, Script is its rendering for Platform
 * - Command/Args (or RawCmdLine on Windows) start the wrapper that runs Script
 * - Headless wrappers get their stdout/stderr appended to OutputPath
 */
type Spec struct {
	TargetID   int64    `json:"target_id"`
	Title      string   `json:"title"`
	Variant    Variant  `json:"variant"`
	Platform   Platform `json:"platform"`
	WorkDir    string   `json:"work_dir"`
	Steps      []Step   `json:"steps"`
	Port       int      `json:"port,omitempty"`
	URL        string   `json:"url,omitempty"`
	Script     string   `json:"script"`
	ScriptPath string   `json:"script_path"`
	OutputPath string   `json:"output_path"`
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	RawCmdLine string   `json:"raw_cmd_line,omitempty"`
	Headless   bool     `json:"headless"`
}

// HasStep reports whether the sequence contains a step of kind k.
func (s *Spec) HasStep(k StepKind) bool {
	for _, st := range s.Steps {
		if st.Kind == k {
			return true
		}
	}
	return false
}

// CommandLine is the wrapper invocation as a single string, for logging.
func (s *Spec) CommandLine() string {
	if s.RawCmdLine != "" {
		return s.RawCmdLine
	}
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}
