package launch

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/tetherci/tether/internal/config"
	"github.com/tetherci/tether/internal/ovirt"
)

// session is the per-invocation state of one launch. It is created when the
// pipeline starts and discarded when it ends; nothing in it outlives the
// launch except the agent channel handed back on success.
type session struct {
	hv   hypervisorClient
	node *config.NodeConfig
	vm   *ovirt.VM
	log  logr.Logger

	// snapshot caches the resolved snapshot reference for this session
	// only. Snapshots can be added, removed, or renamed between launches,
	// so a new session always re-resolves.
	snapshot *ovirt.Snapshot
}

func newSession(hv hypervisorClient, node *config.NodeConfig, vm *ovirt.VM, log logr.Logger) *session {
	return &session{hv: hv, node: node, vm: vm, log: log}
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
