// Package app wires the stub runner together and owns its lifecycle.
//
// An Application is created from a Config, started once and stopped once:
//
//	cfg := app.NewConfig(false, false, "/path/to/config")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	defer application.Stop(context.Background())
//
//	report, err := application.Start(ctx)
//	if err != nil {
//	    // resolution or unpacking failed, nothing is running
//	    return err
//	}
//	if report.HasFailures() {
//	    // some collaborators did not start, the others are usable
//	}
//
// # Start sequence
//
//  1. Start the embedded coordination service (redis backend only).
//  2. Connect the registry client.
//  3. Resolve the stub artifact and unpack it into a fresh temp directory.
//     With repository.stubsDir set this step is skipped.
//  4. Build one StubRunner per dependency and run the batch.
//
// Failures in step 3 abort Start with an error; nothing is bound. Failures
// of single collaborators in step 4 are returned in the report.
//
// # Stop sequence
//
// Stop closes the batch, closes the registry client, stops the embedded
// coordination service and removes the unpacked directory. It is safe to call
// after a failed Start or without any Start.
package app
