// Package bootstrap establishes the worker agent on a running VM over SSH.
//
// A bootstrap run is a linear stage machine:
//
//	Connecting → Authenticating → VerifyingChannel → TransferringAgent →
//	StartingAgent → Attached
//
// with a universal Failed terminal reachable from every stage. Run drives
// the machine for one launch: it opens the transport connection (bounded
// retries with a fixed backoff), authenticates with username/password
// (failure is fatal, never retried — credential errors are not transient),
// verifies the shell produces no output for a no-op command (a noisy shell
// profile would corrupt the agent protocol), transfers the agent binary
// (SFTP first, SCP only when the SFTP service is missing), starts the agent
// process, and hands its stdio back as a Channel.
//
// Every failure path closes whatever transport was opened before
// propagating; this is a guaranteed side effect, not best-effort.
//
// The concrete SSH transport lives in sshshell.go. The stage machine works
// against the consumer-side interfaces in interfaces.go so tests can drive
// it with mocks; see mocks_test.go.
package bootstrap
