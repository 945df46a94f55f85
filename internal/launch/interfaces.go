package launch

import (
	"context"

	"github.com/tetherci/tether/internal/ovirt"
)

// hypervisorClient is the slice of the engine client the launch pipeline
// consumes. Defined here, on the consumer side, so the pipeline can be
// tested without an engine.
type hypervisorClient interface {
	VMByName(ctx context.Context, name string) (*ovirt.VM, error)
	PowerState(ctx context.Context, vmID string) (ovirt.PowerState, error)
	Start(ctx context.Context, vmID string) error
	Shutdown(ctx context.Context, vmID string) error
	Snapshots(ctx context.Context, vmID string) ([]ovirt.Snapshot, error)
	PreviewSnapshot(ctx context.Context, vmID, snapshotID string, restoreMemory bool) error
	CommitSnapshot(ctx context.Context, vmID string) error
	NICs(ctx context.Context, vmID string) ([]ovirt.NIC, error)
	ReportedDevices(ctx context.Context, vmID, nicID string) ([]ovirt.ReportedDevice, error)
}
