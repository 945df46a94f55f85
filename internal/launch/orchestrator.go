package launch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/tetherci/tether/internal/bootstrap"
	"github.com/tetherci/tether/internal/config"
)

// Launcher bootstraps the worker agent on a node reachable at addr and
// hands back the agent's channel. BeforeDisconnect and AfterDisconnect are
// invoked by the host around node teardown.
type Launcher interface {
	Launch(ctx context.Context, node *config.NodeConfig, addr string, log logr.Logger) (*bootstrap.Channel, error)
	BeforeDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error
	AfterDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error
}

// VMLauncher runs the full launch pipeline: resolve the VM, drive its power
// state, revert it to the configured snapshot, find its address, and
// delegate the agent bootstrap. It composes a Launcher rather than being
// one itself; the delegate only ever sees a reachable address.
type VMLauncher struct {
	hv       hypervisorClient
	delegate Launcher
}

// NewVMLauncher returns a VMLauncher that bootstraps through delegate.
func NewVMLauncher(hv hypervisorClient, delegate Launcher) *VMLauncher {
	return &VMLauncher{hv: hv, delegate: delegate}
}

// Launch runs one launch of the node and returns the attached agent
// channel. Any stage failure is logged to the launch's log sink and
// surfaced as a single LaunchError; there is no cross-stage recovery.
func (l *VMLauncher) Launch(ctx context.Context, node *config.NodeConfig, log logr.Logger) (*bootstrap.Channel, error) {
	fail := func(stage string, err error) (*bootstrap.Channel, error) {
		log.Error(err, "launch failed", "node", node.Name, "stage", stage)
		return nil, &LaunchError{Node: node.Name, Stage: stage, Err: err}
	}

	vm, err := l.hv.VMByName(ctx, node.VM)
	if err != nil {
		return fail("vm resolution", err)
	}
	log.Info("resolved vm", "vm", vm.Name, "id", vm.ID)

	s := newSession(l.hv, node, vm, log)

	if node.Snapshot != "" {
		if err := s.ensureDown(ctx); err != nil {
			return fail("power down", err)
		}
		if err := s.revert(ctx); err != nil {
			return fail("snapshot revert", err)
		}
		// The commit itself can leave the image locked for a while.
		if err := s.waitUntilUnlocked(ctx); err != nil {
			return fail("snapshot revert", err)
		}
	}

	if err := s.ensureUp(ctx); err != nil {
		return fail("power up", err)
	}

	addr := node.SSH.Host
	if addr == "" {
		addr, err = s.discoverAddress(ctx)
		if err != nil {
			return fail("address discovery", err)
		}
	}

	ch, err := l.delegate.Launch(ctx, node, addr, log)
	if err != nil {
		return fail("bootstrap", err)
	}
	return ch, nil
}

// BeforeDisconnect forwards to the delegate.
func (l *VMLauncher) BeforeDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error {
	return l.delegate.BeforeDisconnect(ctx, node, log)
}

// AfterDisconnect forwards to the delegate.
func (l *VMLauncher) AfterDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error {
	return l.delegate.AfterDisconnect(ctx, node, log)
}

// SSHLauncher is the Launcher that bootstraps the agent over SSH.
type SSHLauncher struct {
	// readFile loads the local agent binary.
	readFile func(path string) ([]byte, error)

	// run executes one bootstrap.
	run func(ctx context.Context, cfg bootstrap.Config, log logr.Logger) (*bootstrap.Channel, error)
}

// NewSSHLauncher returns an SSHLauncher.
func NewSSHLauncher() *SSHLauncher {
	return &SSHLauncher{readFile: os.ReadFile, run: bootstrap.Run}
}

// Launch bootstraps the agent on the node, bounded by the node's launch
// timeout. The bootstrap itself runs on its own goroutine; when the bound
// elapses first the launch fails and the worker is abandoned. It may keep
// running briefly after that, and cleans up its own connection when it
// notices the cancellation.
func (l *SSHLauncher) Launch(ctx context.Context, node *config.NodeConfig, addr string, log logr.Logger) (*bootstrap.Channel, error) {
	binary, err := l.readFile(node.Agent.Binary)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent binary %s: %w", node.Agent.Binary, err)
	}

	cfg := bootstrap.Config{
		Host:         addr,
		Port:         node.SSH.Port,
		Username:     node.SSH.Username,
		Password:     node.SSH.Password,
		WorkingDir:   node.WorkingDir,
		AgentFile:    node.Agent.File,
		AgentCommand: node.Agent.Command,
		AgentBinary:  binary,
		Retries:      node.Retries,
		RetryWait:    node.WaitInterval(),
	}

	bctx, cancel := context.WithCancel(ctx)

	type result struct {
		ch  *bootstrap.Channel
		err error
	}
	done := make(chan result, 1)
	go func() {
		ch, err := l.run(bctx, cfg, log)
		done <- result{ch: ch, err: err}
	}()

	t := time.NewTimer(node.LaunchTimeout())
	defer t.Stop()

	select {
	case res := <-done:
		cancel()
		return res.ch, res.err
	case <-t.C:
		cancel()
		// If the abandoned worker still manages to attach, close the late
		// channel rather than leak it.
		go func() {
			if res := <-done; res.ch != nil {
				bootstrap.DefaultRegistry.Deregister(res.ch.RegistryID)
				_ = res.ch.Close()
			}
		}()
		return nil, fmt.Errorf("bootstrap of node %q did not finish within %s", node.Name, node.LaunchTimeout())
	}
}

// BeforeDisconnect logs the upcoming teardown. The channel itself is closed
// by the host through the connection registry.
func (l *SSHLauncher) BeforeDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error {
	log.Info("node disconnecting", "node", node.Name)
	return nil
}

// AfterDisconnect logs the completed teardown.
func (l *SSHLauncher) AfterDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error {
	log.Info("node disconnected", "node", node.Name)
	return nil
}
