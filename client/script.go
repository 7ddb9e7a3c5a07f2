package client

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/pkg/sftp"
)

// Upload pushes a local file to remotePath over the SFTP subsystem, creating
// the parent directory when needed.
func (n *NativeClient) Upload(ctx context.Context, target Target, password, localPath, remotePath string) error {
	conn, err := n.dial(ctx, target, password)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("start sftp: %w", err)
	}
	defer client.Close()

	src, err := n.FS.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer src.Close()

	if err := client.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("create remote dir: %w", err)
	}

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	n.logger().WithField("remote", remotePath).Debug("uploaded file")
	return nil
}
