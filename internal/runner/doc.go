// Package runner starts and stops the mock servers of a batch of
// collaborators.
//
// A StubRunner owns one collaborator: it reserves a port, binds the
// collaborator's mock server and registers it under its alias. Its states are
//
//	Created --Run--> Running --Stop--> Stopped
//	Created --Run (port or bind failure)--> Failed
//
// A Batch runs a set of StubRunners as one unit. RunAll gives every runner a
// chance to start and reports failures next to the collaborators that did
// start; CloseAll gives every runner a chance to stop. One failing runner
// never keeps the others from starting or stopping.
package runner
