package launch

import (
	"context"
)

// discoverAddress polls the VM's guest-reported devices for an address,
// within the node's retry budget. No preference is applied between IPv4 and
// IPv6; whatever the guest agent reported first on the winning NIC is used.
func (s *session) discoverAddress(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= s.node.Retries; attempt++ {
		addr, err := s.scanAddress(ctx)
		if err != nil {
			return "", err
		}
		if addr != "" {
			s.log.Info("discovered vm address", "vm", s.vm.Name, "address", addr)
			return addr, nil
		}

		s.log.V(1).Info("vm reported no address", "vm", s.vm.Name, "attempt", attempt)
		if attempt < s.node.Retries {
			if err := sleep(ctx, s.node.WaitInterval()); err != nil {
				return "", err
			}
		}
	}
	return "", &AddressDiscoveryTimeoutError{VM: s.vm.Name, Attempts: s.node.Retries}
}

// scanAddress walks NICs in order and, within each NIC, stops at the first
// reported device carrying an address. The scan does not stop across NICs,
// so when several NICs report addresses the last one wins. Existing
// deployments rely on that order; do not change it.
func (s *session) scanAddress(ctx context.Context) (string, error) {
	nics, err := s.hv.NICs(ctx, s.vm.ID)
	if err != nil {
		return "", err
	}

	var candidate string
	for _, nic := range nics {
		devs, err := s.hv.ReportedDevices(ctx, s.vm.ID, nic.ID)
		if err != nil {
			return "", err
		}

	deviceScan:
		for _, dev := range devs {
			for _, ip := range dev.IPs {
				if ip.Address != "" {
					candidate = ip.Address
					break deviceScan
				}
			}
		}
	}
	return candidate, nil
}
