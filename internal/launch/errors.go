package launch

import (
	"errors"
	"fmt"

	"github.com/tetherci/tether/internal/ovirt"
)

// ErrSnapshotNotFound is returned when no snapshot on the VM matches the
// configured description.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// StateTransitionTimeoutError reports a VM that did not reach the requested
// power state within the polling budget. Last carries the final observed
// state for diagnostics.
type StateTransitionTimeoutError struct {
	VM       string
	Target   ovirt.PowerState
	Last     ovirt.PowerState
	Attempts int
}

func (e *StateTransitionTimeoutError) Error() string {
	return fmt.Sprintf("vm %s did not reach state %s after %d attempts, last state %s",
		e.VM, e.Target, e.Attempts, e.Last)
}

// AddressDiscoveryTimeoutError reports that no guest-reported device carried
// an address within the polling budget.
type AddressDiscoveryTimeoutError struct {
	VM       string
	Attempts int
}

func (e *AddressDiscoveryTimeoutError) Error() string {
	return fmt.Sprintf("vm %s reported no address after %d attempts", e.VM, e.Attempts)
}

// SnapshotCommitError reports a failed snapshot revert. Previewed
// distinguishes the two halves of the two-phase operation: when true, the
// preview was applied but the commit failed, and the VM is left in a
// previewed state that needs operator attention. There is no automatic
// rollback.
type SnapshotCommitError struct {
	VM        string
	Snapshot  string
	Previewed bool
	Err       error
}

func (e *SnapshotCommitError) Error() string {
	if e.Previewed {
		return fmt.Sprintf("failed to commit snapshot %q on vm %s, the preview is still applied: %v",
			e.Snapshot, e.VM, e.Err)
	}
	return fmt.Sprintf("failed to preview snapshot %q on vm %s: %v", e.Snapshot, e.VM, e.Err)
}

func (e *SnapshotCommitError) Unwrap() error { return e.Err }

// LaunchError is the single failure outcome a launch reports to the host.
// It names the pipeline stage that failed and wraps the causing error.
type LaunchError struct {
	Node  string
	Stage string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch of node %q failed at %s: %v", e.Node, e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
