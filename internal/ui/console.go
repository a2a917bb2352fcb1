// Package ui renders user-facing launcher messages, keeping them apart
// from the structured logs and from the contained process's own output.
package ui

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type ConsoleStyle int

const (
	StyleNormal ConsoleStyle = iota
	StyleError
	StyleWarning
	StyleSuccess
	StyleInfo
	StyleStep
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Console writes launcher messages to stderr so stdout stays reserved for
// the contained process.
type Console struct {
	useColors bool
}

func NewConsole() *Console {
	return &Console{
		useColors: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (c *Console) formatMessage(style ConsoleStyle, message string) string {
	if !c.useColors {
		return message
	}

	var color string
	switch style {
	case StyleError:
		color = colorRed + colorBold
	case StyleWarning:
		color = colorYellow
	case StyleSuccess:
		color = colorGreen
	case StyleInfo:
		color = colorBlue
	case StyleStep:
		color = colorCyan
	default:
		return message
	}

	return color + message + colorReset
}

func (c *Console) PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleError, "Error: "+message))
}

func (c *Console) PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleWarning, "Warning: "+message))
}

func (c *Console) PrintSuccess(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleSuccess, message))
}

func (c *Console) PrintInfo(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleInfo, message))
}

// PrintStep announces a launch phase (resolve, run).
func (c *Console) PrintStep(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", c.formatMessage(StyleStep, message))
}

func (c *Console) FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, context)
	}
	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}
	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}
