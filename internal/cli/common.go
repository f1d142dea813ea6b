package cli

import (
	"fmt"
)

// FormatError formats an error message for CLI output, followed by a hint
// when one is known.
func FormatError(err error) string {
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\n" + FormatWarning(hint)
	}
	return msg
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}
