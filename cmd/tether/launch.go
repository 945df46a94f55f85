package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tetherci/tether/internal/bootstrap"
	"github.com/tetherci/tether/internal/launch"
	"github.com/tetherci/tether/internal/ovirt"
)

var launchCmd = &cobra.Command{
	Use:   "launch <node>",
	Short: "Launch the worker agent on a node",
	Long: `Launch the worker agent on the named node.

The node's VM is driven to the up state (reverting to the configured
snapshot first, when one is set), an address is discovered for it, and the
agent is bootstrapped over SSH. Once attached, the agent's stdout is piped
to this process's stdout and stdin is forwarded to the agent; the command
runs until the agent's channel closes or the process is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		node, err := cfg.Node(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := ovirt.NewClient(engineConfig(cfg))
		defer closeClient(client)

		log := newLogger()
		launcher := launch.NewVMLauncher(client, launch.NewSSHLauncher())

		ch, err := launcher.Launch(ctx, node, log)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Agent running on node %s, channel attached\n", node.Name)

		// Bridge the agent channel to this process's stdio. The stdin copy
		// runs on its own goroutine; the command ends when the agent's
		// stdout closes.
		go func() {
			_, _ = io.Copy(ch.Stdin, os.Stdin)
			_ = ch.Stdin.Close()
		}()
		_, copyErr := io.Copy(os.Stdout, ch.Stdout)

		if err := launcher.BeforeDisconnect(ctx, node, log); err != nil {
			log.Error(err, "before-disconnect hook failed")
		}
		bootstrap.DefaultRegistry.Deregister(ch.RegistryID)
		closeErr := ch.Close()
		if err := launcher.AfterDisconnect(ctx, node, log); err != nil {
			log.Error(err, "after-disconnect hook failed")
		}

		if copyErr != nil {
			return fmt.Errorf("agent channel failed: %w", copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close agent channel: %w", closeErr)
		}
		return nil
	},
}
