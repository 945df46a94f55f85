package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tetherci/tether/internal/ovirt"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatVMList formats a list of VMs as a single YAML document.
func (f *YAMLFormatter) FormatVMList(vms []ovirt.VM) (string, error) {
	if len(vms) == 0 {
		return "", nil
	}

	data, err := yaml.Marshal(vmRows(vms))
	if err != nil {
		return "", fmt.Errorf("failed to marshal VMs to YAML: %w", err)
	}

	return string(data), nil
}
