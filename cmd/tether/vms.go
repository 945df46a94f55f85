package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tetherci/tether/internal/output"
	"github.com/tetherci/tether/internal/ovirt"
)

var (
	outputFormat string
	noHeaders    bool
)

func init() {
	vmsCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, yaml, json)")
	vmsCmd.Flags().BoolVar(&noHeaders, "no-headers", false, "omit headers in table output")
}

var vmsCmd = &cobra.Command{
	Use:   "vms",
	Short: "List VMs visible on the engine",
	Long: `List the virtual machines visible on the configured engine.

When a cluster is configured, only VMs in that cluster are shown.

Output formats:
  -o table  Human-readable table (default)
  -o yaml   YAML list
  -o json   JSON array`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := output.ValidateFormat(outputFormat); err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := ovirt.NewClient(engineConfig(cfg))
		defer closeClient(client)

		vms, err := client.VMs(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list VMs: %w", err)
		}

		formatter, err := output.NewFormatter(output.Options{
			Format:    output.Format(outputFormat),
			NoHeaders: noHeaders,
		})
		if err != nil {
			return err
		}

		result, err := formatter.FormatVMList(vms)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		fmt.Print(result)
		return nil
	},
}
