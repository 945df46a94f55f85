package launch

import (
	"context"
	"fmt"

	"github.com/tetherci/tether/internal/ovirt"
)

// resolveSnapshot finds the snapshot whose description matches the node's
// configured name exactly. The result is cached for the remainder of this
// session.
func (s *session) resolveSnapshot(ctx context.Context) (*ovirt.Snapshot, error) {
	if s.snapshot != nil {
		return s.snapshot, nil
	}

	snaps, err := s.hv.Snapshots(ctx, s.vm.ID)
	if err != nil {
		return nil, err
	}
	for i := range snaps {
		if snaps[i].Description == s.node.Snapshot {
			s.snapshot = &snaps[i]
			return s.snapshot, nil
		}
	}
	return nil, fmt.Errorf("snapshot %q on vm %s: %w", s.node.Snapshot, s.vm.Name, ErrSnapshotNotFound)
}

// revert restores the VM to the configured snapshot with a preview followed
// by a commit. The VM must already be down; that is the caller's
// responsibility and is not re-checked here.
//
// A prior image lock may still be draining when the revert starts, so the
// unlock wait comes first. If the commit fails after a successful preview
// the VM is left previewed; the returned error says so.
func (s *session) revert(ctx context.Context) error {
	snap, err := s.resolveSnapshot(ctx)
	if err != nil {
		return err
	}

	if err := s.waitUntilUnlocked(ctx); err != nil {
		return err
	}

	s.log.Info("reverting vm to snapshot", "vm", s.vm.Name, "snapshot", snap.Description)
	if err := s.hv.PreviewSnapshot(ctx, s.vm.ID, snap.ID, false); err != nil {
		return &SnapshotCommitError{VM: s.vm.Name, Snapshot: snap.Description, Previewed: false, Err: err}
	}
	if err := s.hv.CommitSnapshot(ctx, s.vm.ID); err != nil {
		return &SnapshotCommitError{VM: s.vm.Name, Snapshot: snap.Description, Previewed: true, Err: err}
	}

	s.log.Info("snapshot revert committed", "vm", s.vm.Name, "snapshot", snap.Description)
	return nil
}
