package cmd

import (
	"context"
	"fmt"

	"stubrunner/internal/app"
	"stubrunner/internal/cli"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var useLocal bool
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the stubs artifact and print where it is cached",
		Long: `Resolves the configured stubs artifact exactly like 'run' does, downloading it
into the local cache when needed, and prints its location. Nothing is
unpacked or started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := newAppConfig()
			if cmd.Flags().Changed("use-local") {
				cfg.UseLocal = &useLocal
			}
			application, err := app.NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			progress := cli.StartProgress("Resolving stubs artifact...", rootFlags.Quiet)
			loc, err := application.Resolve(ctx)
			if err != nil {
				progress.Fail("Failed to resolve stubs artifact")
				return err
			}
			progress.Done("")

			coords := application.StubRunnerConfig().Repository.Coordinates()
			return newPrinter(cmd).PrintLocation(coords, loc)
		},
	}
	cmd.Flags().BoolVar(&useLocal, "use-local", false, "Resolve from the local cache only")
	return cmd
}
