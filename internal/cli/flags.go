package cli

import (
	"fmt"

	"stubrunner/internal/config"

	"github.com/spf13/cobra"
)

// CommandFlags holds the flag values shared by every stubrunner command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, plain, json, yaml)
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Quiet suppresses progress indicators and log output
	Quiet bool
	// Debug enables debug logging
	Debug bool
	// ConfigPath specifies a configuration file or directory
	ConfigPath string
}

// RegisterCommonFlags registers the flags shared by every command as
// persistent flags of cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, plain, json, yaml), default: "table"
//   - --no-headers: Suppress header row in table output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --config-path: Configuration file or directory
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(OutputFormatTable), "Output format (table, plain, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPath(), "Configuration file or directory")
}

// Validate checks the flag combination.
func (f *CommandFlags) Validate() error {
	if err := ValidateOutputFormat(f.OutputFormat); err != nil {
		return err
	}
	if f.Quiet && f.Debug {
		return fmt.Errorf("--quiet and --debug cannot be combined")
	}
	return nil
}

// PrinterOptions converts the flags into options for NewPrinter.
func (f *CommandFlags) PrinterOptions() PrinterOptions {
	return PrinterOptions{
		Format:    OutputFormat(f.OutputFormat),
		NoHeaders: f.NoHeaders,
	}
}
