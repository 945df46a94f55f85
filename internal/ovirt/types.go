package ovirt

// PowerState is the engine-reported power state of a VM.
//
// The engine knows many more states than a launch cares about; everything
// that is not down, up, powering up, or image-locked maps to StateOther.
type PowerState string

const (
	StateDown        PowerState = "down"
	StateUp          PowerState = "up"
	StatePoweringUp  PowerState = "powering_up"
	StateImageLocked PowerState = "image_locked"
	StateOther       PowerState = "other"
)

// VM is a read-only snapshot of a virtual machine as reported by the engine.
// It is fetched fresh on each query; never use a held VM's State for a
// decision, only for logging.
type VM struct {
	ID        string
	Name      string
	State     PowerState
	ClusterID string
}

// Snapshot identifies one snapshot of a VM. Description is the
// human-chosen key snapshots are looked up by.
type Snapshot struct {
	ID          string
	Description string
	Locked      bool
}

// NIC is a virtual network interface attached to a VM.
type NIC struct {
	ID   string
	Name string
}

// ReportedDevice is a guest-reported endpoint on a NIC, carrying the IP
// address information the guest agent published for it.
type ReportedDevice struct {
	ID   string
	Name string
	IPs  []IP
}

// IP is one address entry on a reported device. Address is empty when the
// device reported an IP entry without an address.
type IP struct {
	Address string
}
