package cmd

import (
	"fmt"
	"os"

	"stubrunner/internal/app"
	"stubrunner/internal/cli"

	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags shared by every subcommand.
var rootFlags cli.CommandFlags

// rootCmd represents the base command for the stubrunner application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stubrunner",
		Short: "Run HTTP stubs of your service's collaborators",
		Long: `stubrunner fetches a stubs artifact from a repository, starts one mock
HTTP server per declared collaborator and publishes each server's address
in a coordination service, so the service under test finds its
collaborators exactly as it would in production.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		// Errors are printed by Execute together with a hint.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rootFlags.Validate()
		},
	}
	cli.RegisterCommonFlags(cmd, &rootFlags)
	cmd.SetVersionTemplate(`{{printf "stubrunner version %s\n" .Version}}`)

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. It exits the
// process with the code cli.ExitCode assigns to the command's error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(cli.ExitCode(err))
	}
}

// newAppConfig builds the application configuration from the persistent
// flags.
func newAppConfig() *app.Config {
	return app.NewConfig(rootFlags.Debug, rootFlags.Quiet, rootFlags.ConfigPath)
}

// newPrinter returns a printer for the command's stdout.
func newPrinter(cmd *cobra.Command) *cli.Printer {
	return cli.NewPrinter(cmd.OutOrStdout(), rootFlags.PrinterOptions())
}
