package bootstrap

import "errors"

// Bootstrap failures fall into two classes. Transport connect failures are
// transient and retried within the configured budget. Everything else is a
// configuration, credential, or remote-side problem and is surfaced
// immediately; retrying would only repeat the same outcome.
var (
	// ErrConnect wraps transport-level connect failures after the retry
	// budget is exhausted.
	ErrConnect = errors.New("transport connect failed")

	// ErrAuthentication wraps a rejected username/password. Never retried.
	ErrAuthentication = errors.New("authentication failed")

	// ErrChannelVerification indicates the remote shell produced output
	// for a no-op command, or the verification command itself failed.
	ErrChannelVerification = errors.New("channel verification failed")

	// ErrTransferUnavailable marks the remote side as lacking the primary
	// file-transfer service. It is the only transfer failure that routes
	// to the fallback method.
	ErrTransferUnavailable = errors.New("file transfer service unavailable")

	// ErrTransfer wraps any other failure to place the agent binary.
	ErrTransfer = errors.New("agent transfer failed")

	// ErrAgentStart wraps a failure to start the agent process.
	ErrAgentStart = errors.New("agent start failed")

	// ErrAttach wraps a failure to hand the live channel back, including
	// interruption between agent start and hand-off.
	ErrAttach = errors.New("channel attach failed")
)
