package bootstrap

import (
	"context"
	"io"
	"os"
)

// connector is the transport-level connection to the node, split from the
// shell so that connect failures (retried) and authentication failures
// (fatal) stay distinguishable.
//
// In production this is satisfied by *sshConnector.
// In tests it is satisfied by mock implementations.
type connector interface {
	// Dial opens the transport connection. Safe to call again after a
	// failed attempt.
	Dial(ctx context.Context) error

	// Handshake authenticates and returns the remote shell. Only valid
	// after a successful Dial.
	Handshake(username, password string) (shell, error)

	// Close tears down whatever the connector holds open. Safe to call
	// at any point, including repeatedly.
	Close() error
}

// shell is an authenticated session factory on the remote host.
type shell interface {
	// Output runs cmd and returns its combined output.
	Output(cmd string) ([]byte, error)

	// Run runs cmd, streaming its combined output to out. A non-zero
	// exit status is returned as an error.
	Run(cmd string, out io.Writer) error

	// FileTransfer opens the primary file-transfer channel. When the
	// remote side lacks the service, the error wraps
	// ErrTransferUnavailable.
	FileTransfer() (fileTransfer, error)

	// Put writes data to path with the given mode using the secondary
	// put-file operation.
	Put(data []byte, path string, perm os.FileMode) error

	// StartAgent starts the long-lived agent process, wiring its stderr
	// to the given writer, and returns its stdio as a Channel.
	StartAgent(cmd string, stderr io.Writer) (*Channel, error)

	// Close closes the shell and its transport connection.
	Close() error
}

// fileTransfer is the primary (SFTP-style) transfer channel.
type fileTransfer interface {
	Stat(path string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	WriteFile(path string, data []byte, perm os.FileMode) error
	Close() error
}
