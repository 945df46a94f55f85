package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// sshConnector implements connector over a raw TCP connection that is
// upgraded to SSH during Handshake. Keeping the two steps apart lets the
// caller retry connect failures while treating a rejected handshake as
// fatal.
type sshConnector struct {
	addr    string
	timeout time.Duration

	netConn net.Conn
	client  *ssh.Client
}

func newSSHConnector(addr string, timeout time.Duration) *sshConnector {
	return &sshConnector{addr: addr, timeout: timeout}
}

func (c *sshConnector) Dial(ctx context.Context) error {
	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// The agent protocol is chatty with small frames.
		_ = tcp.SetNoDelay(true)
	}
	c.netConn = conn
	return nil
}

func (c *sshConnector) Handshake(username, password string) (shell, error) {
	if c.netConn == nil {
		return nil, fmt.Errorf("handshake before dial")
	}

	config := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.timeout,
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(c.netConn, c.addr, config)
	if err != nil {
		return nil, err
	}
	c.client = ssh.NewClient(sshConn, chans, reqs)
	return &sshShell{client: c.client}, nil
}

func (c *sshConnector) Close() error {
	if c.client != nil {
		client := c.client
		c.client = nil
		c.netConn = nil
		return client.Close()
	}
	if c.netConn != nil {
		conn := c.netConn
		c.netConn = nil
		return conn.Close()
	}
	return nil
}

// sshShell implements shell over an authenticated *ssh.Client.
type sshShell struct {
	client *ssh.Client
}

func (s *sshShell) Output(cmd string) ([]byte, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.CombinedOutput(cmd)
}

func (s *sshShell) Run(cmd string, out io.Writer) error {
	sess, err := s.client.NewSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.Stdout = out
	sess.Stderr = out
	return sess.Run(cmd)
}

func (s *sshShell) FileTransfer() (fileTransfer, error) {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		// The subsystem request is the structural probe: a host without
		// an SFTP service fails here, before any I/O happens.
		return nil, fmt.Errorf("%w: %v", ErrTransferUnavailable, err)
	}
	return &sftpTransfer{client: client}, nil
}

func (s *sshShell) Put(data []byte, path string, perm os.FileMode) error {
	return scpPut(s.client, data, path, perm)
}

func (s *sshShell) StartAgent(cmd string, stderr io.Writer) (*Channel, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, err
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	sess.Stderr = stderr

	if err := sess.Start(cmd); err != nil {
		_ = sess.Close()
		return nil, err
	}

	return &Channel{
		Stdin:  stdin,
		Stdout: bufio.NewReaderSize(stdout, channelBufferSize),
		closeFn: func() error {
			sessErr := sess.Close()
			clientErr := s.client.Close()
			if clientErr != nil {
				return clientErr
			}
			if sessErr != nil && !errors.Is(sessErr, io.EOF) {
				return sessErr
			}
			return nil
		},
		outcomeFn: func(wait time.Duration) string {
			return sessionOutcome(sess, wait)
		},
	}, nil
}

func (s *sshShell) Close() error {
	return s.client.Close()
}

// sessionOutcome waits up to the given duration for the session to report
// how the remote process ended. Exit codes and signals are differentiated
// in the SSH protocol.
func sessionOutcome(sess *ssh.Session, wait time.Duration) string {
	done := make(chan error, 1)
	go func() { done <- sess.Wait() }()

	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case err := <-done:
		if err == nil {
			return "agent process exited cleanly"
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			if sig := exitErr.Signal(); sig != "" {
				return fmt.Sprintf("agent process terminated by signal %s", sig)
			}
			return fmt.Sprintf("agent process exited with status %d", exitErr.ExitStatus())
		}
		return fmt.Sprintf("agent process ended: %v", err)
	case <-t.C:
		return "agent process has not reported an exit status; is it still running?"
	}
}

// sftpTransfer implements fileTransfer over an *sftp.Client.
type sftpTransfer struct {
	client *sftp.Client
}

func (t *sftpTransfer) Stat(path string) (os.FileInfo, error) {
	return t.client.Stat(path)
}

func (t *sftpTransfer) MkdirAll(path string, perm os.FileMode) error {
	if err := t.client.MkdirAll(path); err != nil {
		return err
	}
	return t.client.Chmod(path, perm)
}

func (t *sftpTransfer) Remove(path string) error {
	return t.client.Remove(path)
}

func (t *sftpTransfer) WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := t.client.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return t.client.Chmod(path, perm)
}

func (t *sftpTransfer) Close() error {
	return t.client.Close()
}
