package cmd

import (
	"context"
	"errors"
	"fmt"

	"stubrunner/internal/app"
	"stubrunner/internal/registry"

	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [alias]",
		Short: "Show collaborators registered in the coordination service",
		Long: `Connects to the configured coordination service and prints the registered
address of one collaborator, or of every collaborator under the configured
base path when no alias is given. Use it against a running 'stubrunner run'
to find where a collaborator is served.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(newAppConfig())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			sc := application.StubRunnerConfig()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			reg, err := registry.Connect(ctx, sc.Registry, sc.BasePath)
			if err != nil {
				return fmt.Errorf("failed to connect to coordination service: %w", err)
			}
			defer reg.Close()

			var regs []*registry.Registration
			if len(args) == 1 {
				r, err := reg.Lookup(ctx, args[0])
				if errors.Is(err, registry.ErrNotFound) {
					return fmt.Errorf("collaborator %q is not registered", args[0])
				}
				if err != nil {
					return err
				}
				regs = append(regs, r)
			} else {
				regs, err = reg.List(ctx)
				if err != nil {
					return err
				}
			}
			return newPrinter(cmd).PrintRegistrations(regs)
		},
	}
}
