package bootstrap

import (
	"io"
	"time"
)

// Channel is the duplex byte channel attached to a running agent process.
// The host speaks the agent protocol over Stdin/Stdout; Close tears down
// both the remote session and the transport connection beneath it.
type Channel struct {
	Stdin  io.WriteCloser
	Stdout io.Reader

	// RegistryID identifies the channel in the process-wide registry once
	// attached, so the host can force-close it on node deregistration.
	RegistryID string

	closeFn   func() error
	outcomeFn func(wait time.Duration) string
}

// Close closes the channel and the connection carrying it. Safe to call
// more than once.
func (c *Channel) Close() error {
	if c.closeFn == nil {
		return nil
	}
	fn := c.closeFn
	c.closeFn = nil
	return fn()
}

// Outcome waits up to the given duration for the agent process to report
// how it ended and describes the result. Used for diagnostics when the
// channel dies early; the agent protocol itself never calls this.
func (c *Channel) Outcome(wait time.Duration) string {
	if c.outcomeFn == nil {
		return "agent process state unknown"
	}
	return c.outcomeFn(wait)
}
