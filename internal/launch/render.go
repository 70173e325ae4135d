package launch

import (
	"fmt"
	"strings"
)

const (
	pausePrompt  = "Press Enter to close..."
	chdirFailure = "[launchdeck] ERROR: cannot enter working directory"
)

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@,+", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shellArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellFail(message string, code int, pause bool) string {
	body := fmt.Sprintf(`echo %s >> "$OUT"; `, shellQuote(message))
	if pause {
		body += fmt.Sprintf("printf %s; read _; ", shellQuote(pausePrompt))
	}
	return fmt.Sprintf("{ %sexit %d; }", body, code)
}

/**
 * Render a spec as a POSIX shell script
 * @param {*Spec} spec - Planned launch
 * @returns {string} Script whose steps are chained with &&
 * @description
 * - Fallible steps short-circuit the chain with their own exit code and a marker line in the output file
 */
func RenderShell(spec *Spec) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# %s\n", spec.Title)
	fmt.Fprintf(&b, "OUT=%s\n", shellQuote(spec.OutputPath))

	lines := make([]string, 0, len(spec.Steps))
	for _, st := range spec.Steps {
		switch st.Kind {
		case StepEcho:
			lines = append(lines, fmt.Sprintf(`echo %s >> "$OUT"`, shellQuote(st.Message)))
		case StepChdir:
			lines = append(lines, fmt.Sprintf("cd %s || %s", shellQuote(st.Dir), shellFail(chdirFailure, ExitChdirFailed, false)))
		case StepActivate:
			lines = append(lines, fmt.Sprintf(". %s >/dev/null 2>&1 || %s", shellQuote(st.Path),
				shellFail(MarkerActivationFailed, ExitActivationFailed, false)))
		case StepInstall:
			lines = append(lines, fmt.Sprintf(`%s >> "$OUT" 2>&1 || %s`, shellArgv(st.Argv),
				shellFail(MarkerInstallFailed, ExitInstallFailed, true)))
		case StepSetEnv:
			lines = append(lines, fmt.Sprintf("export %s=%s", st.Key, shellQuote(st.Value)))
		case StepRun:
			line := shellArgv(st.Argv)
			if st.KeepOpenOnError {
				line += fmt.Sprintf(` || { code=$?; echo "[launchdeck] process exited with code $code" >> "$OUT"; printf %s; read _; exit $code; }`,
					shellQuote(pausePrompt))
			}
			lines = append(lines, line)
		}
	}
	b.WriteString(strings.Join(lines, " &&\n"))
	b.WriteString("\n")
	return b.String()
}

var batchEscaper = strings.NewReplacer(
	"^", "^^", "&", "^&", "|", "^|", "<", "^<", ">", "^>", "(", "^(", ")", "^)", "%", "%%",
)

func batchArg(s string) string {
	s = strings.ReplaceAll(s, "%", "%%")
	if s == "" || strings.ContainsAny(s, " \t&|<>()^,;=") {
		return `"` + s + `"`
	}
	return s
}

func batchArgv(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = batchArg(a)
	}
	return strings.Join(quoted, " ")
}

func batchFail(message string, code int, pause bool) []string {
	lines := []string{
		"if errorlevel 1 (",
		`    >>"%OUT%" echo ` + batchEscaper.Replace(message),
	}
	if pause {
		lines = append(lines, "    pause")
	}
	return append(lines, fmt.Sprintf("    exit /b %d", code), ")")
}

/**
 * Render a spec as a Windows batch file
 * @param {*Spec} spec - Planned launch
 * @returns {string} Batch text with CRLF line endings
 * @description
 * - Each fallible step is followed by an errorlevel check with the same exit code as the shell rendering
 */
func RenderBatch(spec *Spec) string {
	lines := []string{
		"@echo off",
		"title " + batchEscaper.Replace(spec.Title),
		`set "OUT=` + strings.ReplaceAll(spec.OutputPath, "%", "%%") + `"`,
	}
	for _, st := range spec.Steps {
		switch st.Kind {
		case StepEcho:
			lines = append(lines, `>>"%OUT%" echo `+batchEscaper.Replace(st.Message))
		case StepChdir:
			lines = append(lines, `cd /d "`+st.Dir+`"`)
			lines = append(lines, batchFail(chdirFailure, ExitChdirFailed, false)...)
		case StepActivate:
			lines = append(lines, `call "`+st.Path+`" >nul 2>&1`)
			lines = append(lines, batchFail(MarkerActivationFailed, ExitActivationFailed, false)...)
		case StepInstall:
			lines = append(lines, batchArgv(st.Argv)+` >>"%OUT%" 2>&1`)
			lines = append(lines, batchFail(MarkerInstallFailed, ExitInstallFailed, true)...)
		case StepSetEnv:
			lines = append(lines, fmt.Sprintf(`set "%s=%s"`, st.Key, strings.ReplaceAll(st.Value, "%", "%%")))
		case StepRun:
			lines = append(lines, batchArgv(st.Argv))
			if st.KeepOpenOnError {
				lines = append(lines,
					"if errorlevel 1 (",
					`    >>"%OUT%" echo [launchdeck] process exited with code %errorlevel%`,
					"    pause",
					")")
			}
		}
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}
