package host

import (
	"fmt"

	"scriptbot/internal/logging"
)

// PrintLevel classifies script print output.
type PrintLevel string

const (
	PrintInfo    PrintLevel = "INFO"
	PrintSuccess PrintLevel = "SUCCESS"
	PrintError   PrintLevel = "ERROR"
)

// Print writes a leveled message from a script through the script log
// category. Scripts use this instead of writing to stdout, which belongs
// to the transport.
func (b *Bot) Print(level PrintLevel, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case PrintError:
		logging.ScriptError("%s", msg)
	case PrintSuccess:
		logging.Script("[SUCCESS] %s", msg)
	default:
		logging.Script("%s", msg)
	}
}

// Printf is Print at INFO level.
func (b *Bot) Printf(format string, args ...any) {
	b.Print(PrintInfo, format, args...)
}
