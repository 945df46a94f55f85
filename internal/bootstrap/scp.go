package bootstrap

import (
	"fmt"
	"io"
	"os"
	"path"

	"golang.org/x/crypto/ssh"
)

// scpPut writes data to the remote path using the SCP sink protocol: one
// C-record header (mode, length, filename), the file content, and a
// terminating zero byte. The remote's exit status is the success signal.
func scpPut(client *ssh.Client, data []byte, remotePath string, perm os.FileMode) error {
	dir, file := path.Split(remotePath)
	if dir == "" {
		dir = "."
	}

	sess, err := client.NewSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	stdin, err := sess.StdinPipe()
	if err != nil {
		return err
	}
	sess.Stdout = io.Discard
	sess.Stderr = io.Discard

	if err := sess.Start("scp -t " + dir); err != nil {
		return err
	}

	writeErr := func() error {
		defer stdin.Close()
		if _, err := fmt.Fprintf(stdin, "C%04o %d %s\n", perm.Perm(), len(data), file); err != nil {
			return err
		}
		if _, err := stdin.Write(data); err != nil {
			return err
		}
		if _, err := stdin.Write([]byte{0}); err != nil {
			return err
		}
		return nil
	}()

	if err := sess.Wait(); err != nil {
		return fmt.Errorf("scp to %s failed: %w", remotePath, err)
	}
	if writeErr != nil {
		return fmt.Errorf("scp to %s failed: %w", remotePath, writeErr)
	}
	return nil
}
