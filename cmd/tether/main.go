package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/tetherci/tether/internal/config"
	"github.com/tetherci/tether/internal/ovirt"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	verbosity  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tether",
	Short: "Tether - oVirt build-node launcher",
	Long: `Tether turns existing oVirt-managed VMs into reachable build-farm nodes.

Given a node definition it drives the VM's power state, optionally reverts
it to a named snapshot, discovers an address for it, bootstraps the worker
agent over SSH, and attaches the agent's stdio to this process.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tether.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity (higher is chattier)")

	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(vmsCmd)
	rootCmd.AddCommand(testConnCmd)
}

// newLogger builds the log sink commands hand to the launch pipeline. All
// log output goes to stderr; stdout is reserved for command output and the
// agent channel.
func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", configPath, err)
	}
	return cfg, nil
}

func engineConfig(cfg *config.Config) ovirt.Config {
	return ovirt.Config{
		URL:      cfg.Hypervisor.URL,
		Username: cfg.Hypervisor.Username,
		Password: cfg.Hypervisor.Password,
		Insecure: cfg.Hypervisor.Insecure,
		Cluster:  cfg.Hypervisor.Cluster,
		Timeout:  time.Duration(cfg.Hypervisor.RequestTimeoutSecs) * time.Second,
	}
}

func closeClient(client *ovirt.Client) {
	if err := client.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close engine connection: %v\n", err)
	}
}
