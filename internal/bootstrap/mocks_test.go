package bootstrap

import (
	"context"
	"io"
	"os"
	"strings"
	"time"
)

// mockConnector is a mock implementation of the connector interface for
// testing.
type mockConnector struct {
	// Configurable behavior
	dialFunc      func(ctx context.Context) error
	handshakeFunc func(username, password string) (shell, error)
	closeFunc     func() error

	// Call tracking
	dialCalls      int
	handshakeCalls int
	closeCalls     int

	sh *mockShell
}

func newMockConnector() *mockConnector {
	m := &mockConnector{sh: newMockShell()}
	m.dialFunc = func(ctx context.Context) error { return nil }
	m.handshakeFunc = func(username, password string) (shell, error) { return m.sh, nil }
	m.closeFunc = func() error { return nil }
	return m
}

func (m *mockConnector) Dial(ctx context.Context) error {
	m.dialCalls++
	return m.dialFunc(ctx)
}

func (m *mockConnector) Handshake(username, password string) (shell, error) {
	m.handshakeCalls++
	return m.handshakeFunc(username, password)
}

func (m *mockConnector) Close() error {
	m.closeCalls++
	return m.closeFunc()
}

// mockShell is a mock implementation of the shell interface for testing.
type mockShell struct {
	outputFunc       func(cmd string) ([]byte, error)
	runFunc          func(cmd string, out io.Writer) error
	fileTransferFunc func() (fileTransfer, error)
	putFunc          func(data []byte, path string, perm os.FileMode) error
	startAgentFunc   func(cmd string, stderr io.Writer) (*Channel, error)
	closeFunc        func() error

	outputCalls       []string
	runCalls          []string
	fileTransferCalls int
	putCalls          []string
	startAgentCalls   []string
	closeCalls        int

	// channelClosed counts Close calls on channels handed out by the
	// default startAgentFunc.
	channelClosed int

	ft *mockFileTransfer
}

func newMockShell() *mockShell {
	m := &mockShell{ft: newMockFileTransfer()}

	// Default: quiet shell, all commands succeed.
	m.outputFunc = func(cmd string) ([]byte, error) { return nil, nil }
	m.runFunc = func(cmd string, out io.Writer) error { return nil }
	m.fileTransferFunc = func() (fileTransfer, error) { return m.ft, nil }
	m.putFunc = func(data []byte, path string, perm os.FileMode) error { return nil }
	m.startAgentFunc = func(cmd string, stderr io.Writer) (*Channel, error) {
		return &Channel{
			Stdin:  nopWriteCloser{},
			Stdout: strings.NewReader(""),
			closeFn: func() error {
				m.channelClosed++
				return nil
			},
			outcomeFn: func(time.Duration) string { return "agent process exited with status 1" },
		}, nil
	}
	m.closeFunc = func() error { return nil }
	return m
}

func (m *mockShell) Output(cmd string) ([]byte, error) {
	m.outputCalls = append(m.outputCalls, cmd)
	return m.outputFunc(cmd)
}

func (m *mockShell) Run(cmd string, out io.Writer) error {
	m.runCalls = append(m.runCalls, cmd)
	return m.runFunc(cmd, out)
}

func (m *mockShell) FileTransfer() (fileTransfer, error) {
	m.fileTransferCalls++
	return m.fileTransferFunc()
}

func (m *mockShell) Put(data []byte, path string, perm os.FileMode) error {
	m.putCalls = append(m.putCalls, path)
	return m.putFunc(data, path, perm)
}

func (m *mockShell) StartAgent(cmd string, stderr io.Writer) (*Channel, error) {
	m.startAgentCalls = append(m.startAgentCalls, cmd)
	return m.startAgentFunc(cmd, stderr)
}

func (m *mockShell) Close() error {
	m.closeCalls++
	return m.closeFunc()
}

// mockFileTransfer is a mock implementation of the fileTransfer interface
// for testing.
type mockFileTransfer struct {
	statFunc      func(path string) (os.FileInfo, error)
	mkdirAllFunc  func(path string, perm os.FileMode) error
	removeFunc    func(path string) error
	writeFileFunc func(path string, data []byte, perm os.FileMode) error
	closeFunc     func() error

	statCalls      []string
	mkdirAllCalls  []string
	removeCalls    []string
	writeFileCalls []string
	closeCalls     int
}

func newMockFileTransfer() *mockFileTransfer {
	m := &mockFileTransfer{}

	// Default: working directory exists and is a directory.
	m.statFunc = func(path string) (os.FileInfo, error) { return fakeFileInfo{dir: true}, nil }
	m.mkdirAllFunc = func(path string, perm os.FileMode) error { return nil }
	m.removeFunc = func(path string) error { return nil }
	m.writeFileFunc = func(path string, data []byte, perm os.FileMode) error { return nil }
	m.closeFunc = func() error { return nil }
	return m
}

func (m *mockFileTransfer) Stat(path string) (os.FileInfo, error) {
	m.statCalls = append(m.statCalls, path)
	return m.statFunc(path)
}

func (m *mockFileTransfer) MkdirAll(path string, perm os.FileMode) error {
	m.mkdirAllCalls = append(m.mkdirAllCalls, path)
	return m.mkdirAllFunc(path, perm)
}

func (m *mockFileTransfer) Remove(path string) error {
	m.removeCalls = append(m.removeCalls, path)
	return m.removeFunc(path)
}

func (m *mockFileTransfer) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.writeFileCalls = append(m.writeFileCalls, path)
	return m.writeFileFunc(path, data, perm)
}

func (m *mockFileTransfer) Close() error {
	m.closeCalls++
	return m.closeFunc()
}

type fakeFileInfo struct {
	dir bool
}

func (f fakeFileInfo) Name() string { return "tether" }
func (f fakeFileInfo) Size() int64  { return 0 }
func (f fakeFileInfo) Mode() os.FileMode {
	if f.dir {
		return os.ModeDir | 0o700
	}
	return 0o644
}
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return f.dir }
func (f fakeFileInfo) Sys() any           { return nil }

type nopWriteCloser struct{}

func (nopWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (nopWriteCloser) Close() error                { return nil }
