// Package config defines the tether configuration file format.
//
// A configuration file names one engine endpoint and any number of nodes.
// Each node binds an existing VM on that engine to the settings needed to
// bootstrap the worker agent on it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultSSHPort           = 22
	defaultRetries           = 5
	defaultWaitSecs          = 30
	defaultLaunchTimeoutSecs = 300
	defaultAgentFile         = "tether-agent"
)

// Config is the complete tether configuration.
type Config struct {
	Hypervisor HypervisorConfig `yaml:"hypervisor"`
	Nodes      []NodeConfig     `yaml:"nodes"`
}

// HypervisorConfig holds the engine endpoint settings.
type HypervisorConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Insecure bool   `yaml:"insecure,omitempty"`

	// Cluster optionally scopes VM lookups to one cluster.
	Cluster string `yaml:"cluster,omitempty"`

	// RequestTimeoutSecs bounds individual engine requests. Zero uses the
	// SDK default.
	RequestTimeoutSecs int `yaml:"request_timeout_secs,omitempty"`
}

// NodeConfig binds one build node to a VM on the engine.
type NodeConfig struct {
	Name string `yaml:"name"`

	// VM is the engine name of the virtual machine backing this node.
	VM string `yaml:"vm"`

	// Snapshot, when set, names the snapshot (by description) the VM is
	// reverted to before each launch. Empty skips the revert stage.
	Snapshot string `yaml:"snapshot,omitempty"`

	// WorkingDir is the remote directory the agent binary is placed in
	// and started from.
	WorkingDir string `yaml:"working_dir"`

	Agent AgentConfig `yaml:"agent"`
	SSH   SSHConfig   `yaml:"ssh"`

	// Retries bounds power-state and address-discovery polling attempts.
	Retries int `yaml:"retries,omitempty"`

	// WaitSecs is the interval between polling attempts.
	WaitSecs int `yaml:"wait_secs,omitempty"`

	// LaunchTimeoutSecs is the wall-clock bound on the SSH bootstrap.
	LaunchTimeoutSecs int `yaml:"launch_timeout_secs,omitempty"`
}

// AgentConfig describes the worker agent binary.
type AgentConfig struct {
	// Binary is the local path of the agent binary to transfer.
	Binary string `yaml:"binary"`

	// File is the remote filename, placed under the node's working
	// directory. Defaults to "tether-agent".
	File string `yaml:"file,omitempty"`

	// Command is the remote command that starts the agent, executed from
	// the working directory. Defaults to "./<file>".
	Command string `yaml:"command,omitempty"`
}

// SSHConfig holds the remote shell credentials for a node.
type SSHConfig struct {
	// Host pins a static address for the node. Empty means the address
	// is discovered from the VM's guest-reported devices at launch time.
	Host string `yaml:"host,omitempty"`

	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WaitInterval returns the polling interval as a duration.
func (n *NodeConfig) WaitInterval() time.Duration {
	return time.Duration(n.WaitSecs) * time.Second
}

// LaunchTimeout returns the bootstrap wall-clock bound as a duration.
func (n *NodeConfig) LaunchTimeout() time.Duration {
	return time.Duration(n.LaunchTimeoutSecs) * time.Second
}

// AgentPath returns the remote path of the agent binary.
func (n *NodeConfig) AgentPath() string {
	return n.WorkingDir + "/" + n.Agent.File
}

// Node returns the node configuration with the given name.
func (c *Config) Node(name string) (*NodeConfig, error) {
	for i := range c.Nodes {
		if c.Nodes[i].Name == name {
			return &c.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node %q not found in configuration", name)
}

// Normalize fills defaults and sanitizes user input. Called automatically
// by LoadFromFile before validation.
func (c *Config) Normalize() {
	c.Hypervisor.URL = strings.TrimSpace(c.Hypervisor.URL)
	c.Hypervisor.Username = strings.TrimSpace(c.Hypervisor.Username)
	c.Hypervisor.Cluster = strings.TrimSpace(c.Hypervisor.Cluster)

	for i := range c.Nodes {
		n := &c.Nodes[i]
		n.Name = strings.TrimSpace(n.Name)
		n.VM = strings.TrimSpace(n.VM)
		n.Snapshot = strings.TrimSpace(n.Snapshot)

		// The agent start command is built relative to the working
		// directory, so trailing separators only get in the way.
		n.WorkingDir = strings.TrimSpace(n.WorkingDir)
		for strings.HasSuffix(n.WorkingDir, "/") {
			n.WorkingDir = strings.TrimSuffix(n.WorkingDir, "/")
		}

		if n.SSH.Port == 0 {
			n.SSH.Port = defaultSSHPort
		}
		if n.Retries == 0 {
			n.Retries = defaultRetries
		}
		if n.WaitSecs == 0 {
			n.WaitSecs = defaultWaitSecs
		}
		if n.LaunchTimeoutSecs == 0 {
			n.LaunchTimeoutSecs = defaultLaunchTimeoutSecs
		}
		if n.Agent.File == "" {
			n.Agent.File = defaultAgentFile
		}
		if n.Agent.Command == "" {
			n.Agent.Command = "./" + n.Agent.File
		}
	}
}

// Validate checks the configuration for errors. It validates structure
// only; engine-side resources (VMs, snapshots) are resolved at launch.
func (c *Config) Validate() error {
	if c.Hypervisor.URL == "" {
		return fmt.Errorf("hypervisor.url is required")
	}
	if c.Hypervisor.Username == "" {
		return fmt.Errorf("hypervisor.username is required")
	}
	if c.Hypervisor.RequestTimeoutSecs < 0 {
		return fmt.Errorf("hypervisor.request_timeout_secs must be >= 0, got %d", c.Hypervisor.RequestTimeoutSecs)
	}

	namesSeen := make(map[string]bool)
	for i := range c.Nodes {
		n := &c.Nodes[i]
		if err := n.Validate(); err != nil {
			return fmt.Errorf("nodes[%d]: %w", i, err)
		}
		if namesSeen[n.Name] {
			return fmt.Errorf("nodes[%d]: duplicate node name %q", i, n.Name)
		}
		namesSeen[n.Name] = true
	}
	return nil
}

// Validate checks a single node configuration.
func (n *NodeConfig) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("name is required")
	}
	if n.VM == "" {
		return fmt.Errorf("vm is required")
	}
	if n.WorkingDir == "" {
		return fmt.Errorf("working_dir is required")
	}
	if !strings.HasPrefix(n.WorkingDir, "/") {
		return fmt.Errorf("working_dir must be an absolute path, got %q", n.WorkingDir)
	}
	if n.Agent.Binary == "" {
		return fmt.Errorf("agent.binary is required")
	}
	if strings.Contains(n.Agent.File, "/") {
		return fmt.Errorf("agent.file must be a bare filename, got %q", n.Agent.File)
	}
	if n.SSH.Username == "" {
		return fmt.Errorf("ssh.username is required")
	}
	if n.SSH.Port < 1 || n.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port must be in 1..65535, got %d", n.SSH.Port)
	}
	if n.Retries < 1 {
		return fmt.Errorf("retries must be >= 1, got %d", n.Retries)
	}
	if n.WaitSecs < 1 {
		return fmt.Errorf("wait_secs must be >= 1, got %d", n.WaitSecs)
	}
	if n.LaunchTimeoutSecs < 1 {
		return fmt.Errorf("launch_timeout_secs must be >= 1, got %d", n.LaunchTimeoutSecs)
	}
	return nil
}

// LoadFromFile loads a configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}
