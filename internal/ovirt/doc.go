// Package ovirt provides a client wrapper for the oVirt engine API.
//
// This package wraps github.com/ovirt/go-ovirt to provide:
//   - Connection management (lazy connect, test, close)
//   - VM lookup by name, optionally scoped to a cluster
//   - Power state reads and start/shutdown commands
//   - Snapshot listing and two-phase (preview/commit) revert
//   - NIC and guest-reported device enumeration
//
// SDK objects never leave this package. Every operation converts them into
// the plain domain types defined in types.go, so consumers can define
// narrow interfaces over those types and mock them in tests.
//
// Connection Management:
//
// The underlying engine connection is created lazily on first use and shared
// by every operation on the same Client. Creation is guarded by a mutex, so
// concurrent launches against the same endpoint race safely on first use.
//
//	client := ovirt.NewClient(ovirt.Config{
//	    URL:      "https://engine.example.com/ovirt-engine/api",
//	    Username: "admin@internal",
//	    Password: "secret",
//	    Insecure: true,
//	})
//	defer client.Close()
//
//	vm, err := client.VMByName(ctx, "build-worker-01")
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Consumers (internal/launch)
// declare the subset of operations they need; *Client satisfies those
// interfaces implicitly. See internal/launch/interfaces.go.
package ovirt
