package launch

import (
	"context"
	"fmt"

	"github.com/tetherci/tether/internal/ovirt"
)

// ensureDown brings the VM to the down state. The current state is read
// first; a VM that is already down gets no engine command at all. Otherwise
// a single shutdown is issued and the state is polled within the node's
// retry budget.
func (s *session) ensureDown(ctx context.Context) error {
	state, err := s.hv.PowerState(ctx, s.vm.ID)
	if err != nil {
		return err
	}
	if state == ovirt.StateDown {
		s.log.Info("vm is already down", "vm", s.vm.Name)
		return nil
	}

	s.log.Info("shutting vm down", "vm", s.vm.Name, "state", string(state))
	if err := s.hv.Shutdown(ctx, s.vm.ID); err != nil {
		return err
	}
	return s.waitForState(ctx, ovirt.StateDown)
}

// ensureUp brings the VM to the up state, with the same idempotence guard
// and polling budget as ensureDown.
func (s *session) ensureUp(ctx context.Context) error {
	state, err := s.hv.PowerState(ctx, s.vm.ID)
	if err != nil {
		return err
	}
	if state == ovirt.StateUp {
		s.log.Info("vm is already up", "vm", s.vm.Name)
		return nil
	}

	s.log.Info("starting vm", "vm", s.vm.Name, "state", string(state))
	if err := s.hv.Start(ctx, s.vm.ID); err != nil {
		return err
	}
	return s.waitForState(ctx, ovirt.StateUp)
}

// waitForState polls the VM's power state every wait interval, up to the
// node's retry count. The state is fetched fresh on every poll; nothing is
// decided on a cached value.
func (s *session) waitForState(ctx context.Context, target ovirt.PowerState) error {
	var last ovirt.PowerState
	for attempt := 1; attempt <= s.node.Retries; attempt++ {
		if err := sleep(ctx, s.node.WaitInterval()); err != nil {
			return err
		}

		state, err := s.hv.PowerState(ctx, s.vm.ID)
		if err != nil {
			return err
		}
		if state == target {
			s.log.Info("vm reached state", "vm", s.vm.Name, "state", string(state))
			return nil
		}
		last = state
		s.log.V(1).Info("vm not yet in target state",
			"vm", s.vm.Name,
			"state", string(state),
			"target", string(target),
			"attempt", attempt)
	}
	return &StateTransitionTimeoutError{
		VM:       s.vm.Name,
		Target:   target,
		Last:     last,
		Attempts: s.node.Retries,
	}
}

// waitUntilUnlocked blocks until the VM leaves the image-locked state. The
// loop has no retry cap: image locks are engine-internal operations with no
// defined upper bound, so the context is the only way out.
func (s *session) waitUntilUnlocked(ctx context.Context) error {
	for {
		state, err := s.hv.PowerState(ctx, s.vm.ID)
		if err != nil {
			return err
		}
		if state != ovirt.StateImageLocked {
			return nil
		}

		s.log.Info("vm image is locked, waiting", "vm", s.vm.Name)
		if err := sleep(ctx, s.node.WaitInterval()); err != nil {
			return fmt.Errorf("interrupted while waiting for vm %s image to unlock: %w", s.vm.Name, err)
		}
	}
}
