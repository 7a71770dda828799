package utils

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

/**
 * Render a command and its arguments as Go templates
 * @param {string} command - Command template
 * @param {[]string} args - Argument templates
 * @param {interface{}} data - Template data
 * @returns {string, []string, error} Rendered command, rendered arguments, error
 * @description
 * - Arguments rendering to an empty string are dropped
 */
func GetCommandLine(command string, args []string, data interface{}) (string, []string, error) {
	cmd, err := render("command", command, data)
	if err != nil {
		return "", nil, err
	}

	var processedArgs []string
	for _, arg := range args {
		s, err := render("arg", arg, data)
		if err != nil {
			return "", nil, err
		}
		if s = strings.TrimSpace(s); s != "" {
			processedArgs = append(processedArgs, s)
		}
	}
	return cmd, processedArgs, nil
}

func render(name, text string, data interface{}) (string, error) {
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
