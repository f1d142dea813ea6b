package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stubrunner/internal/app"
	"stubrunner/internal/cli"
	"stubrunner/pkg/logging"

	"github.com/spf13/cobra"
)

const (
	readyTimeout    = 10 * time.Second
	shutdownTimeout = 30 * time.Second
)

type runOptions struct {
	useLocal  bool
	minPort   int
	maxPort   int
	adminAddr string
	once      bool
	tempDir   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a mock server for every collaborator",
		Long: `Resolves the stubs artifact, unpacks it and starts one mock HTTP server per
collaborator listed under 'dependencies'. Every server is registered in the
coordination service under its alias and stays up until the process is
interrupted (Ctrl+C or SIGTERM).

A collaborator that fails to start does not stop the others. The exit code
tells what happened:
  0  every collaborator was served
  1  configuration or unexpected error
  2  the stubs artifact could not be resolved or unpacked
  3  some collaborators failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStubs(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.useLocal, "use-local", false, "Resolve the stubs artifact from the local cache only")
	cmd.Flags().IntVar(&opts.minPort, "min-port", 0, "Lowest port a mock server may bind (overrides portRange.min)")
	cmd.Flags().IntVar(&opts.maxPort, "max-port", 0, "Highest port a mock server may bind (overrides portRange.max)")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-addr", "", "Serve /metrics and /collaborators on this address (disabled when empty)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Stop again right after every collaborator was started")
	cmd.Flags().StringVar(&opts.tempDir, "temp-dir", "", "Directory the stubs artifact is unpacked below (default: system temp dir)")
	return cmd
}

func runStubs(cmd *cobra.Command, opts *runOptions) error {
	cfg := newAppConfig()
	if cmd.Flags().Changed("use-local") {
		useLocal := opts.useLocal
		cfg.UseLocal = &useLocal
	}
	cfg.MinPort = opts.minPort
	cfg.MaxPort = opts.maxPort

	var appOpts []app.Option
	if opts.tempDir != "" {
		appOpts = append(appOpts, app.WithTempDir(opts.tempDir))
	}
	application, err := app.NewApplication(cfg, appOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := cli.StartProgress("Starting collaborators...", rootFlags.Quiet)
	report, err := application.Start(ctx)
	if err != nil {
		progress.Fail("Failed to start collaborators")
		_ = application.Stop(context.Background())
		return err
	}

	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	err = application.WaitForReady(readyCtx)
	cancel()
	if err != nil {
		logging.Warn("Run", "Not every mock server accepted connections within %s: %v", readyTimeout, err)
	}
	progress.Done(fmt.Sprintf("%d collaborator(s) running", len(report.Started)))

	if err := newPrinter(cmd).PrintReport("Collaborators", report); err != nil {
		logging.WarnErr("Run", err, "Failed to print report")
	}

	var admin *http.Server
	if opts.adminAddr != "" {
		admin, err = startAdminServer(opts.adminAddr, application)
		if err != nil {
			_ = application.Stop(context.Background())
			return err
		}
	}

	if !opts.once {
		logging.Info("Run", "Serving %d collaborator(s), press Ctrl+C to stop", len(report.Started))
		<-ctx.Done()
		logging.Info("Run", "Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if admin != nil {
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logging.WarnErr("Run", err, "Admin server did not shut down cleanly")
		}
	}
	stopErr := application.Stop(shutdownCtx)

	if report.HasFailures() {
		return &cli.PartialFailureError{Report: report}
	}
	return stopErr
}

func startAdminServer(addr string, application *app.Application) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on admin address %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           application.AdminHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Run", err, "Admin server stopped")
		}
	}()
	logging.Info("Run", "Admin endpoints listening on http://%s", listener.Addr())
	return srv, nil
}
