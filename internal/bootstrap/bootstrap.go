package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

const (
	// channelBufferSize is the enlarged buffer applied to the agent
	// channel. All host/agent traffic flows over this single channel, so
	// it is worth a big buffer to keep the pipe full over high-latency
	// links; the host drains it rapidly, so it rarely fills.
	channelBufferSize = 4 * 1024 * 1024

	// outcomeWait bounds how long a failed attach waits for the agent
	// process to report an exit status or signal.
	outcomeWait = 3 * time.Second

	// verifyCommand is the no-op used to prove the shell is quiet.
	verifyCommand = "true"

	defaultDialTimeout = 10 * time.Second
)

// Config holds everything one bootstrap run needs.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// WorkingDir is the remote directory the agent binary is placed in
	// and started from. Must not end in a separator.
	WorkingDir string

	// AgentFile is the binary's filename under WorkingDir.
	AgentFile string

	// AgentCommand starts the agent, executed from WorkingDir.
	AgentCommand string

	// AgentBinary is the binary's content.
	AgentBinary []byte

	// Retries bounds additional connect attempts after the first; each
	// failed attempt waits RetryWait before the next.
	Retries   int
	RetryWait time.Duration

	// DialTimeout bounds a single transport connect attempt. Zero means
	// a 10 second default.
	DialTimeout time.Duration
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) agentPath() string {
	return c.WorkingDir + "/" + c.AgentFile
}

// Run bootstraps the agent on the node and returns the attached channel.
// The returned channel is registered in DefaultRegistry; its RegistryID
// lets the host force-close the connection later.
func Run(ctx context.Context, cfg Config, log logr.Logger) (*Channel, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	conn := newSSHConnector(cfg.addr(), timeout)
	return runWithDeps(ctx, cfg, conn, DefaultRegistry, log)
}

// runWithDeps drives the bootstrap stage machine with injected
// dependencies. This allows for testing by accepting interfaces instead of
// concrete types.
func runWithDeps(ctx context.Context, cfg Config, conn connector, reg *Registry, log logr.Logger) (_ *Channel, err error) {
	stage := StageConnecting
	defer func() {
		if err != nil {
			log.Error(err, "bootstrap failed", "stage", string(stage))
			if closeErr := conn.Close(); closeErr != nil {
				log.Info("connection cleanup failed", "error", closeErr.Error())
			} else {
				log.Info("connection closed")
			}
		}
	}()

	advance := func(s Stage) Stage {
		next, nextErr := s.Next()
		if nextErr != nil {
			return s
		}
		log.V(1).Info("entering stage", "stage", string(next))
		return next
	}

	if err = dialWithRetries(ctx, cfg, conn, log); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	stage = advance(stage)
	sh, err := conn.Handshake(cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	log.Info("authentication successful")

	stage = advance(stage)
	if err = verifyChannel(sh, log); err != nil {
		return nil, err
	}
	if err = reportEnvironment(sh, log); err != nil {
		return nil, err
	}

	stage = advance(stage)
	if err = transferAgent(sh, cfg, log); err != nil {
		return nil, err
	}

	stage = advance(stage)
	ch, err := startAgent(sh, cfg, log)
	if err != nil {
		return nil, err
	}

	// An interrupt between process start and hand-off must not leak a
	// live agent session.
	if ctxErr := ctx.Err(); ctxErr != nil {
		outcome := ch.Outcome(outcomeWait)
		_ = ch.Close()
		err = fmt.Errorf("%w: %v (%s)", ErrAttach, ctxErr, outcome)
		return nil, err
	}

	stage = advance(stage)
	ch.RegistryID = reg.Register(ch)
	log.Info("agent channel attached", "registry_id", ch.RegistryID)
	return ch, nil
}

// dialWithRetries opens the transport connection, allowing cfg.Retries
// additional attempts after the first, each preceded by a fixed wait.
func dialWithRetries(ctx context.Context, cfg Config, conn connector, log logr.Logger) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			log.Info("connect failed, retrying",
				"error", lastErr.Error(),
				"wait", cfg.RetryWait.String(),
				"remaining", cfg.Retries-attempt+1)
			if err := sleepContext(ctx, cfg.RetryWait); err != nil {
				return err
			}
		}
		if lastErr = conn.Dial(ctx); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// verifyChannel runs a no-op command and requires it to produce no output.
// A noisy shell profile would corrupt the binary protocol the agent speaks
// over this connection.
func verifyChannel(sh shell, log logr.Logger) error {
	out, err := sh.Output(verifyCommand)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelVerification, err)
	}
	if len(out) != 0 {
		log.Info("shell produced unexpected output", "output", string(out))
		return fmt.Errorf("%w: shell profile wrote %d bytes for a no-op command", ErrChannelVerification, len(out))
	}
	return nil
}

// reportEnvironment dumps the remote environment into the launch log.
func reportEnvironment(sh shell, log logr.Logger) error {
	log.Info("remote environment:")
	if err := sh.Run("set", newLogWriter(log)); err != nil {
		return fmt.Errorf("failed to report remote environment: %w", err)
	}
	return nil
}

// transferAgent places the agent binary in the working directory using the
// primary transfer channel. The fallback is used only when the remote side
// lacks the primary service entirely; any other failure is fatal, so a
// flaky-but-present service is never masked.
func transferAgent(sh shell, cfg Config, log logr.Logger) error {
	ft, err := sh.FileTransfer()
	if err != nil {
		if errors.Is(err, ErrTransferUnavailable) {
			log.Info("primary transfer unavailable, using fallback", "cause", err.Error())
			return transferAgentFallback(sh, cfg, log)
		}
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer func() {
		if closeErr := ft.Close(); closeErr != nil {
			log.Info("transfer channel close failed", "error", closeErr.Error())
		}
	}()

	info, err := ft.Stat(cfg.WorkingDir)
	if err != nil {
		log.Info("working directory missing, creating it", "dir", cfg.WorkingDir)
		if err := ft.MkdirAll(cfg.WorkingDir, 0o700); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrTransfer, cfg.WorkingDir, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("%w: remote working directory %s is a regular file", ErrTransfer, cfg.WorkingDir)
	}

	// A stale copy may be longer than the one being written.
	_ = ft.Remove(cfg.agentPath())

	log.Info("copying agent binary", "path", cfg.agentPath(), "bytes", len(cfg.AgentBinary))
	if err := ft.WriteFile(cfg.agentPath(), cfg.AgentBinary, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return nil
}

// transferAgentFallback places the agent binary with the secondary
// put-file operation, shelling out for the directory handling the primary
// channel would have done.
func transferAgentFallback(sh shell, cfg Config, log logr.Logger) error {
	if err := sh.Run("test -d "+cfg.WorkingDir, io.Discard); err != nil {
		log.Info("working directory missing, creating it", "dir", cfg.WorkingDir)
		if err := sh.Run("mkdir -p "+cfg.WorkingDir, io.Discard); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrTransfer, cfg.WorkingDir, err)
		}
	}
	_ = sh.Run("rm "+cfg.agentPath(), io.Discard)

	log.Info("copying agent binary", "path", cfg.agentPath(), "bytes", len(cfg.AgentBinary))
	if err := sh.Put(cfg.AgentBinary, cfg.agentPath(), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return nil
}

// startAgent starts the agent process and returns its stdio channel.
func startAgent(sh shell, cfg Config, log logr.Logger) (*Channel, error) {
	cmd := fmt.Sprintf("cd %q && %s", cfg.WorkingDir, cfg.AgentCommand)
	log.Info("starting agent process", "cmd", cmd)

	ch, err := sh.StartAgent(cmd, newLogWriter(log))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAgentStart, err)
	}
	return ch, nil
}

// sleepContext waits for d or until ctx is cancelled, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// logWriter adapts a logr.Logger into an io.Writer for remote output.
type logWriter struct {
	log logr.Logger
}

func newLogWriter(log logr.Logger) io.Writer {
	return &logWriter{log: log}
}

func (w *logWriter) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	if text == "" {
		return len(p), nil
	}
	for _, line := range strings.Split(text, "\n") {
		w.log.Info(line)
	}
	return len(p), nil
}
