package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tetherci/tether/internal/ovirt"
)

var testConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test the engine connection",
	Long:  `Authenticate against the configured engine and issue a real request.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Testing connection to %s...\n", cfg.Hypervisor.URL)

		client := ovirt.NewClient(engineConfig(cfg))
		defer closeClient(client)

		if err := client.Test(context.Background()); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		fmt.Println("✓ Connection test successful!")
		return nil
	},
}
