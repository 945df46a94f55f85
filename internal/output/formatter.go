// Package output provides formatters for displaying tether resources
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/tetherci/tether/internal/ovirt"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for declarative consumption.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats engine resources for output.
type Formatter interface {
	// FormatVMList formats a list of VMs.
	FormatVMList(vms []ovirt.VM) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}

// vmRow is the serialized shape of one VM in yaml/json output.
type vmRow struct {
	Name  string `json:"name" yaml:"name"`
	ID    string `json:"id" yaml:"id"`
	State string `json:"state" yaml:"state"`
}

func vmRows(vms []ovirt.VM) []vmRow {
	rows := make([]vmRow, 0, len(vms))
	for _, vm := range vms {
		rows = append(rows, vmRow{Name: vm.Name, ID: vm.ID, State: string(vm.State)})
	}
	return rows
}
