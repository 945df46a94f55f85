package ovirt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ovirtsdk "github.com/ovirt/go-ovirt"
)

// ErrNotFound is returned when a lookup by name matches nothing.
var ErrNotFound = errors.New("not found")

// Config holds the connection settings for one engine endpoint.
type Config struct {
	// URL is the engine API endpoint, e.g.
	// "https://engine.example.com/ovirt-engine/api".
	URL      string
	Username string
	Password string

	// Insecure disables TLS certificate verification.
	Insecure bool

	// Cluster optionally scopes VM lookups to a named cluster.
	Cluster string

	// Timeout applies to individual engine requests. Zero means the
	// SDK default.
	Timeout time.Duration
}

// Client talks to one oVirt engine. The underlying connection is created
// lazily on first use and shared by all operations; creation is serialized
// so concurrent launches against the same endpoint are safe.
type Client struct {
	cfg Config

	mu        sync.Mutex
	conn      *ovirtsdk.Connection
	clusterID string
}

// NewClient returns a Client for the given endpoint. No connection is
// opened until the first operation.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// api returns the shared engine connection, creating it if needed.
func (c *Client) api(ctx context.Context) (*ovirtsdk.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	builder := ovirtsdk.NewConnectionBuilder().
		URL(c.cfg.URL).
		Username(c.cfg.Username).
		Password(c.cfg.Password).
		Insecure(c.cfg.Insecure)
	if c.cfg.Timeout > 0 {
		builder = builder.Timeout(c.cfg.Timeout)
	}

	conn, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine at %s: %w", c.cfg.URL, err)
	}

	c.conn = conn
	return c.conn, nil
}

// Close closes the engine connection. It is safe to call Close multiple
// times, including on a Client that never connected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close engine connection: %w", err)
	}
	return nil
}

// Test verifies the endpoint and credentials by issuing a request that
// requires authentication.
func (c *Client) Test(ctx context.Context) error {
	conn, err := c.api(ctx)
	if err != nil {
		return err
	}

	if _, err := conn.SystemService().VmsService().List().Send(); err != nil {
		return fmt.Errorf("engine connection test failed: %w", err)
	}
	return nil
}

// VMs lists the VMs visible on the engine. When a cluster is configured,
// only VMs belonging to that cluster are returned.
func (c *Client) VMs(ctx context.Context) ([]VM, error) {
	conn, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.SystemService().VmsService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list VMs: %w", err)
	}

	sdkVMs, ok := resp.Vms()
	if !ok {
		return nil, nil
	}

	vms := make([]VM, 0, len(sdkVMs.Slice()))
	for _, sdkVM := range sdkVMs.Slice() {
		vms = append(vms, vmFromSDK(sdkVM))
	}

	if c.cfg.Cluster == "" {
		return vms, nil
	}

	clusterID, err := c.resolveClusterID(ctx)
	if err != nil {
		return nil, err
	}
	return filterVMsByCluster(vms, clusterID), nil
}

// VMByName resolves a VM by its engine name within the configured scope.
// Returns ErrNotFound if no VM matches.
func (c *Client) VMByName(ctx context.Context, name string) (*VM, error) {
	vms, err := c.VMs(ctx)
	if err != nil {
		return nil, err
	}

	for i := range vms {
		if vms[i].Name == name {
			return &vms[i], nil
		}
	}
	return nil, fmt.Errorf("vm %q: %w", name, ErrNotFound)
}

// PowerState reads the VM's current power state from the engine. The state
// is always fetched fresh; callers must not cache it across decisions.
func (c *Client) PowerState(ctx context.Context, vmID string) (PowerState, error) {
	conn, err := c.api(ctx)
	if err != nil {
		return StateOther, err
	}

	resp, err := conn.SystemService().VmsService().VmService(vmID).Get().Send()
	if err != nil {
		return StateOther, fmt.Errorf("failed to get vm %s: %w", vmID, err)
	}

	sdkVM, ok := resp.Vm()
	if !ok {
		return StateOther, fmt.Errorf("vm %s: %w", vmID, ErrNotFound)
	}

	status, ok := sdkVM.Status()
	if !ok {
		return StateOther, nil
	}
	return stateFromSDK(status), nil
}

// Start asks the engine to power the VM up.
func (c *Client) Start(ctx context.Context, vmID string) error {
	conn, err := c.api(ctx)
	if err != nil {
		return err
	}

	if _, err := conn.SystemService().VmsService().VmService(vmID).Start().Send(); err != nil {
		return fmt.Errorf("failed to start vm %s: %w", vmID, err)
	}
	return nil
}

// Shutdown asks the engine to shut the VM down gracefully.
func (c *Client) Shutdown(ctx context.Context, vmID string) error {
	conn, err := c.api(ctx)
	if err != nil {
		return err
	}

	if _, err := conn.SystemService().VmsService().VmService(vmID).Shutdown().Send(); err != nil {
		return fmt.Errorf("failed to shut down vm %s: %w", vmID, err)
	}
	return nil
}

// Snapshots lists the VM's snapshots.
func (c *Client) Snapshots(ctx context.Context, vmID string) ([]Snapshot, error) {
	conn, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.SystemService().VmsService().VmService(vmID).
		SnapshotsService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for vm %s: %w", vmID, err)
	}

	sdkSnaps, ok := resp.Snapshots()
	if !ok {
		return nil, nil
	}

	snaps := make([]Snapshot, 0, len(sdkSnaps.Slice()))
	for _, sdkSnap := range sdkSnaps.Slice() {
		snaps = append(snaps, snapshotFromSDK(sdkSnap))
	}
	return snaps, nil
}

// PreviewSnapshot overlays the snapshot's disk state onto the VM without
// making it permanent. restoreMemory selects whether the saved memory
// state is restored as well.
func (c *Client) PreviewSnapshot(ctx context.Context, vmID, snapshotID string, restoreMemory bool) error {
	conn, err := c.api(ctx)
	if err != nil {
		return err
	}

	snap, err := ovirtsdk.NewSnapshotBuilder().Id(snapshotID).Build()
	if err != nil {
		return fmt.Errorf("failed to build snapshot reference %s: %w", snapshotID, err)
	}

	_, err = conn.SystemService().VmsService().VmService(vmID).
		PreviewSnapshot().
		Snapshot(snap).
		RestoreMemory(restoreMemory).
		Send()
	if err != nil {
		return fmt.Errorf("failed to preview snapshot %s on vm %s: %w", snapshotID, vmID, err)
	}
	return nil
}

// CommitSnapshot makes the currently previewed snapshot permanent.
func (c *Client) CommitSnapshot(ctx context.Context, vmID string) error {
	conn, err := c.api(ctx)
	if err != nil {
		return err
	}

	_, err = conn.SystemService().VmsService().VmService(vmID).
		CommitSnapshot().Send()
	if err != nil {
		return fmt.Errorf("failed to commit snapshot on vm %s: %w", vmID, err)
	}
	return nil
}

// NICs lists the VM's virtual network interfaces.
func (c *Client) NICs(ctx context.Context, vmID string) ([]NIC, error) {
	conn, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.SystemService().VmsService().VmService(vmID).
		NicsService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list NICs for vm %s: %w", vmID, err)
	}

	sdkNics, ok := resp.Nics()
	if !ok {
		return nil, nil
	}

	nics := make([]NIC, 0, len(sdkNics.Slice()))
	for _, sdkNic := range sdkNics.Slice() {
		nic := NIC{}
		if id, ok := sdkNic.Id(); ok {
			nic.ID = id
		}
		if name, ok := sdkNic.Name(); ok {
			nic.Name = name
		}
		nics = append(nics, nic)
	}
	return nics, nil
}

// ReportedDevices lists the guest-reported devices on one NIC, including
// whatever IP address information the guest agent published.
func (c *Client) ReportedDevices(ctx context.Context, vmID, nicID string) ([]ReportedDevice, error) {
	conn, err := c.api(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := conn.SystemService().VmsService().VmService(vmID).
		NicsService().NicService(nicID).
		ReportedDevicesService().List().Send()
	if err != nil {
		return nil, fmt.Errorf("failed to list reported devices for nic %s: %w", nicID, err)
	}

	sdkDevs, ok := resp.ReportedDevice()
	if !ok {
		return nil, nil
	}

	devs := make([]ReportedDevice, 0, len(sdkDevs.Slice()))
	for _, sdkDev := range sdkDevs.Slice() {
		devs = append(devs, reportedDeviceFromSDK(sdkDev))
	}
	return devs, nil
}

// resolveClusterID looks up the configured cluster's id, caching it for the
// lifetime of the Client. Cluster ids are stable on the engine.
func (c *Client) resolveClusterID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.clusterID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	conn, err := c.api(ctx)
	if err != nil {
		return "", err
	}

	resp, err := conn.SystemService().ClustersService().List().
		Search("name=" + c.cfg.Cluster).
		CaseSensitive(false).
		Send()
	if err != nil {
		return "", fmt.Errorf("failed to look up cluster %q: %w", c.cfg.Cluster, err)
	}

	clusters, ok := resp.Clusters()
	if !ok || len(clusters.Slice()) == 0 {
		return "", fmt.Errorf("cluster %q: %w", c.cfg.Cluster, ErrNotFound)
	}

	id, ok := clusters.Slice()[0].Id()
	if !ok {
		return "", fmt.Errorf("cluster %q has no id", c.cfg.Cluster)
	}

	c.mu.Lock()
	c.clusterID = id
	c.mu.Unlock()
	return id, nil
}

// filterVMsByCluster returns the VMs belonging to the given cluster.
func filterVMsByCluster(vms []VM, clusterID string) []VM {
	filtered := make([]VM, 0, len(vms))
	for _, vm := range vms {
		if vm.ClusterID == clusterID {
			filtered = append(filtered, vm)
		}
	}
	return filtered
}

// vmFromSDK converts an SDK VM into the package's domain type.
func vmFromSDK(sdkVM *ovirtsdk.Vm) VM {
	vm := VM{State: StateOther}
	if id, ok := sdkVM.Id(); ok {
		vm.ID = id
	}
	if name, ok := sdkVM.Name(); ok {
		vm.Name = name
	}
	if status, ok := sdkVM.Status(); ok {
		vm.State = stateFromSDK(status)
	}
	if cluster, ok := sdkVM.Cluster(); ok {
		if id, ok := cluster.Id(); ok {
			vm.ClusterID = id
		}
	}
	return vm
}

// snapshotFromSDK converts an SDK snapshot into the package's domain type.
func snapshotFromSDK(sdkSnap *ovirtsdk.Snapshot) Snapshot {
	snap := Snapshot{}
	if id, ok := sdkSnap.Id(); ok {
		snap.ID = id
	}
	if desc, ok := sdkSnap.Description(); ok {
		snap.Description = desc
	}
	if status, ok := sdkSnap.SnapshotStatus(); ok {
		snap.Locked = status == ovirtsdk.SNAPSHOTSTATUS_LOCKED
	}
	return snap
}

// reportedDeviceFromSDK converts an SDK reported device. An IP entry whose
// address was absent is kept with an empty Address so callers can apply the
// same presence checks the engine exposes.
func reportedDeviceFromSDK(sdkDev *ovirtsdk.ReportedDevice) ReportedDevice {
	dev := ReportedDevice{}
	if id, ok := sdkDev.Id(); ok {
		dev.ID = id
	}
	if name, ok := sdkDev.Name(); ok {
		dev.Name = name
	}
	if ips, ok := sdkDev.Ips(); ok {
		for _, sdkIP := range ips.Slice() {
			ip := IP{}
			if addr, ok := sdkIP.Address(); ok {
				ip.Address = addr
			}
			dev.IPs = append(dev.IPs, ip)
		}
	}
	return dev
}

// stateFromSDK maps an engine VM status onto the launch-relevant states.
func stateFromSDK(status ovirtsdk.VmStatus) PowerState {
	switch status {
	case ovirtsdk.VMSTATUS_DOWN:
		return StateDown
	case ovirtsdk.VMSTATUS_UP:
		return StateUp
	case ovirtsdk.VMSTATUS_POWERING_UP:
		return StatePoweringUp
	case ovirtsdk.VMSTATUS_IMAGE_LOCKED:
		return StateImageLocked
	default:
		return StateOther
	}
}
