package output

import (
	"encoding/json"
	"fmt"

	"github.com/tetherci/tether/internal/ovirt"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatVMList formats a list of VMs as a JSON array.
func (f *JSONFormatter) FormatVMList(vms []ovirt.VM) (string, error) {
	if len(vms) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(vmRows(vms), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal VMs to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
