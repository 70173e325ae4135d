package utils

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

/**
 * Expand a command and its arguments as templates
 * @param {string} command - Program, may contain template actions
 * @param {[]string} args - Argument templates
 * @param {interface{}} data - Template data
 * @returns {string} Expanded program
 * @returns {[]string} Expanded arguments
 * @returns {error} Template parse or execution error
 * @example
 * cmd, args, err := GetCommandLine("gnome-terminal", []string{"--title={{.Title}}", "--", "bash", "{{.Script}}"}, data)
 */
func GetCommandLine(command string, args []string, data interface{}) (string, []string, error) {
	cmd, err := expand("command", command, data)
	if err != nil {
		return "", nil, err
	}

	var processedArgs []string
	for _, arg := range args {
		v, err := expand("arg", arg, data)
		if err != nil {
			return "", nil, err
		}
		processedArgs = append(processedArgs, strings.TrimSpace(v))
	}
	return cmd, processedArgs, nil
}

func expand(name, text string, data interface{}) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template '%s': %w", name, text, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template '%s': %w", name, text, err)
	}
	return buf.String(), nil
}
