package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/tetherci/tether/internal/ovirt"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatVMList formats a list of VMs as a table.
func (f *TableFormatter) FormatVMList(vms []ovirt.VM) (string, error) {
	if len(vms) == 0 {
		return "No VMs found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tSTATE\tID")
	}

	for _, vm := range vms {
		state := string(vm.State)
		if state == "" {
			state = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", vm.Name, state, vm.ID)
	}

	_ = w.Flush()
	return buf.String(), nil
}
