package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type sftpSink struct {
	target Target
	client *sftp.Client
	closer io.Closer // Underlying SSH connection, when owned.
}

func openSFTP(ctx context.Context, t Target, c Credentials) (*sftpSink, error) {
	var auths []ssh.AuthMethod
	switch {
	case c.SFTPKeyFile != "":
		pem, err := os.ReadFile(c.SFTPKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	case c.SFTPPassword != "":
		auths = append(auths, ssh.Password(c.SFTPPassword))
	default:
		return nil, errors.New("sftp upload needs PDFCOMPRESS_SFTP_KEY or PDFCOMPRESS_SFTP_PASSWORD")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if c.SFTPKnownHosts != "" {
		cb, err := knownhosts.New(c.SFTPKnownHosts)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts: %w", err)
		}
		hostKey = cb
	}

	config := &ssh.ClientConfig{
		User:            t.User,
		Auth:            auths,
		HostKeyCallback: hostKey,
		Timeout:         10 * time.Second,
	}
	addr := net.JoinHostPort(t.Bucket, t.Port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("create sftp client: %w", err)
	}
	return &sftpSink{target: t, client: client, closer: sshClient}, nil
}

func (s *sftpSink) Upload(ctx context.Context, localPath, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	remote := s.target.ObjectKey(key)
	if err := s.client.MkdirAll(path.Dir(remote)); err != nil {
		return fmt.Errorf("ensure remote dir %s: %w", path.Dir(remote), err)
	}
	rf, err := s.client.Create(remote)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remote, err)
	}
	if _, err := io.Copy(rf, f); err != nil {
		rf.Close()
		return fmt.Errorf("copy to remote file %s: %w", remote, err)
	}
	return rf.Close()
}

func (s *sftpSink) Close() error {
	err := s.client.Close()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *sftpSink) String() string { return s.target.String() }
