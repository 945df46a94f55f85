package launch

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/tetherci/tether/internal/bootstrap"
	"github.com/tetherci/tether/internal/config"
	"github.com/tetherci/tether/internal/ovirt"
)

// mockHypervisor is a mock implementation of the hypervisorClient interface
// for testing.
type mockHypervisor struct {
	// Configurable behavior
	vmByNameFunc        func(ctx context.Context, name string) (*ovirt.VM, error)
	powerStateFunc      func(ctx context.Context, vmID string) (ovirt.PowerState, error)
	startFunc           func(ctx context.Context, vmID string) error
	shutdownFunc        func(ctx context.Context, vmID string) error
	snapshotsFunc       func(ctx context.Context, vmID string) ([]ovirt.Snapshot, error)
	previewFunc         func(ctx context.Context, vmID, snapshotID string, restoreMemory bool) error
	commitFunc          func(ctx context.Context, vmID string) error
	nicsFunc            func(ctx context.Context, vmID string) ([]ovirt.NIC, error)
	reportedDevicesFunc func(ctx context.Context, vmID, nicID string) ([]ovirt.ReportedDevice, error)

	// Call tracking
	vmByNameCalls        int
	powerStateCalls      int
	startCalls           int
	shutdownCalls        int
	snapshotsCalls       int
	previewCalls         int
	commitCalls          int
	nicsCalls            int
	reportedDevicesCalls []string

	// events records state-changing commands in issue order.
	events []string
}

func newMockHypervisor() *mockHypervisor {
	m := &mockHypervisor{}
	m.vmByNameFunc = func(ctx context.Context, name string) (*ovirt.VM, error) {
		return &ovirt.VM{ID: "vm-id-1", Name: name, State: ovirt.StateDown}, nil
	}
	m.powerStateFunc = func(ctx context.Context, vmID string) (ovirt.PowerState, error) {
		return ovirt.StateDown, nil
	}
	m.startFunc = func(ctx context.Context, vmID string) error { return nil }
	m.shutdownFunc = func(ctx context.Context, vmID string) error { return nil }
	m.snapshotsFunc = func(ctx context.Context, vmID string) ([]ovirt.Snapshot, error) { return nil, nil }
	m.previewFunc = func(ctx context.Context, vmID, snapshotID string, restoreMemory bool) error { return nil }
	m.commitFunc = func(ctx context.Context, vmID string) error { return nil }
	m.nicsFunc = func(ctx context.Context, vmID string) ([]ovirt.NIC, error) { return nil, nil }
	m.reportedDevicesFunc = func(ctx context.Context, vmID, nicID string) ([]ovirt.ReportedDevice, error) {
		return nil, nil
	}
	return m
}

func (m *mockHypervisor) VMByName(ctx context.Context, name string) (*ovirt.VM, error) {
	m.vmByNameCalls++
	return m.vmByNameFunc(ctx, name)
}

func (m *mockHypervisor) PowerState(ctx context.Context, vmID string) (ovirt.PowerState, error) {
	m.powerStateCalls++
	return m.powerStateFunc(ctx, vmID)
}

func (m *mockHypervisor) Start(ctx context.Context, vmID string) error {
	m.startCalls++
	m.events = append(m.events, "start")
	return m.startFunc(ctx, vmID)
}

func (m *mockHypervisor) Shutdown(ctx context.Context, vmID string) error {
	m.shutdownCalls++
	m.events = append(m.events, "shutdown")
	return m.shutdownFunc(ctx, vmID)
}

func (m *mockHypervisor) Snapshots(ctx context.Context, vmID string) ([]ovirt.Snapshot, error) {
	m.snapshotsCalls++
	return m.snapshotsFunc(ctx, vmID)
}

func (m *mockHypervisor) PreviewSnapshot(ctx context.Context, vmID, snapshotID string, restoreMemory bool) error {
	m.previewCalls++
	m.events = append(m.events, "preview")
	return m.previewFunc(ctx, vmID, snapshotID, restoreMemory)
}

func (m *mockHypervisor) CommitSnapshot(ctx context.Context, vmID string) error {
	m.commitCalls++
	m.events = append(m.events, "commit")
	return m.commitFunc(ctx, vmID)
}

func (m *mockHypervisor) NICs(ctx context.Context, vmID string) ([]ovirt.NIC, error) {
	m.nicsCalls++
	return m.nicsFunc(ctx, vmID)
}

func (m *mockHypervisor) ReportedDevices(ctx context.Context, vmID, nicID string) ([]ovirt.ReportedDevice, error) {
	m.reportedDevicesCalls = append(m.reportedDevicesCalls, nicID)
	return m.reportedDevicesFunc(ctx, vmID, nicID)
}

// scriptStates returns a PowerState func that pops states from the script
// in order and keeps returning the final one once the script is exhausted.
func scriptStates(states ...ovirt.PowerState) func(ctx context.Context, vmID string) (ovirt.PowerState, error) {
	i := 0
	return func(ctx context.Context, vmID string) (ovirt.PowerState, error) {
		if i >= len(states) {
			return states[len(states)-1], nil
		}
		s := states[i]
		i++
		return s, nil
	}
}

// mockDelegate is a mock implementation of the Launcher interface for
// testing.
type mockDelegate struct {
	launchFunc func(ctx context.Context, node *config.NodeConfig, addr string, log logr.Logger) (*bootstrap.Channel, error)
	beforeFunc func(ctx context.Context, node *config.NodeConfig, log logr.Logger) error
	afterFunc  func(ctx context.Context, node *config.NodeConfig, log logr.Logger) error

	launchCalls []string
	beforeCalls int
	afterCalls  int
}

func newMockDelegate() *mockDelegate {
	m := &mockDelegate{}
	m.launchFunc = func(ctx context.Context, node *config.NodeConfig, addr string, log logr.Logger) (*bootstrap.Channel, error) {
		return &bootstrap.Channel{}, nil
	}
	m.beforeFunc = func(ctx context.Context, node *config.NodeConfig, log logr.Logger) error { return nil }
	m.afterFunc = func(ctx context.Context, node *config.NodeConfig, log logr.Logger) error { return nil }
	return m
}

func (m *mockDelegate) Launch(ctx context.Context, node *config.NodeConfig, addr string, log logr.Logger) (*bootstrap.Channel, error) {
	m.launchCalls = append(m.launchCalls, addr)
	return m.launchFunc(ctx, node, addr, log)
}

func (m *mockDelegate) BeforeDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error {
	m.beforeCalls++
	return m.beforeFunc(ctx, node, log)
}

func (m *mockDelegate) AfterDisconnect(ctx context.Context, node *config.NodeConfig, log logr.Logger) error {
	m.afterCalls++
	return m.afterFunc(ctx, node, log)
}

// testNode returns a node configuration with waits short enough for tests.
func testNode() *config.NodeConfig {
	return &config.NodeConfig{
		Name:       "node01",
		VM:         "builder-01",
		WorkingDir: "/var/lib/tether",
		Agent: config.AgentConfig{
			Binary:  "/opt/tether/agent",
			File:    "tether-agent",
			Command: "./tether-agent",
		},
		SSH: config.SSHConfig{
			Host:     "198.51.100.7",
			Port:     22,
			Username: "worker",
			Password: "secret",
		},
		Retries:           3,
		WaitSecs:          0,
		LaunchTimeoutSecs: 5,
	}
}

func testVM() *ovirt.VM {
	return &ovirt.VM{ID: "vm-id-1", Name: "builder-01", State: ovirt.StateDown}
}
