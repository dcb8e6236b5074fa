// Package ssh implements the remote execution channel over SSH.
//
// Each deployment node gets one client connection, established with retry
// because airgapped hosts are frequently still booting when the deployer
// reaches them. Commands capture exit status, stdout and stderr separately;
// file transfers ride the same connection via SFTP.
//
// Security: host key verification defaults to insecure-ignore, which matches
// freshly kicked machines whose keys are not yet distributed. Provide a
// HostKeyCallback for fleets with managed known_hosts.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/imamik/airgapctl/internal/remote"
	"github.com/imamik/airgapctl/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultDialRetries = 6
	defaultRetryDelay  = 5 * time.Second
	defaultMaxDelay    = 15 * time.Second
)

// DialerConfig holds connection behavior shared by all nodes in a run.
type DialerConfig struct {
	Port int

	// DialTimeout is the timeout for establishing the TCP connection.
	DialTimeout time.Duration

	// DialRetries is the total number of dial attempts per node.
	DialRetries int

	// RetryDelay is the initial delay between dial attempts.
	RetryDelay time.Duration

	// HostKeyCallback handles host key verification. If nil,
	// ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Dialer opens SSH sessions to deployment nodes. It implements
// remote.Dialer.
type Dialer struct {
	cfg DialerConfig
}

// NewDialer creates a dialer, applying defaults for zero-valued fields.
func NewDialer(cfg DialerConfig) *Dialer {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.DialRetries == 0 {
		cfg.DialRetries = defaultDialRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // airgapped hosts have no distributed host keys
	}
	return &Dialer{cfg: cfg}
}

// Dial connects to host as user, authenticating with the private key at
// keyPath. The returned session owns the connection and must be closed.
func (d *Dialer) Dial(ctx context.Context, host, user, keyPath string) (remote.Session, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &remote.ConnectionError{Host: host, Err: fmt.Errorf("reading ssh key %s: %w", keyPath, err)}
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, &remote.ConnectionError{Host: host, Err: fmt.Errorf("parsing ssh key %s: %w", keyPath, err)}
	}

	clientCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: d.cfg.HostKeyCallback,
		Timeout:         d.cfg.DialTimeout,
	}

	addr := fmt.Sprintf("%s:%d", host, d.cfg.Port)
	var client *ssh.Client
	err = retry.Do(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", addr, clientCfg)
		return dialErr
	},
		retry.WithMaxAttempts(d.cfg.DialRetries),
		retry.WithInitialDelay(d.cfg.RetryDelay),
		retry.WithMaxDelay(defaultMaxDelay),
	)
	if err != nil {
		return nil, &remote.ConnectionError{Host: host, Err: err}
	}

	return &Session{host: host, client: client}, nil
}

// Session is a live SSH connection to one node.
type Session struct {
	host   string
	client *ssh.Client
}

// Host returns the address this session is bound to.
func (s *Session) Host() string { return s.host }

// Run executes a command as the login user.
func (s *Session) Run(ctx context.Context, command string) (remote.CommandResult, error) {
	return s.run(ctx, command)
}

// RunElevated executes a command via sudo. The -n flag refuses interactive
// password prompts so credentials never cross the channel in command text;
// escalation must be configured passwordless on the target.
func (s *Session) RunElevated(ctx context.Context, command string) (remote.CommandResult, error) {
	return s.run(ctx, "sudo -n "+command)
}

func (s *Session) run(ctx context.Context, command string) (remote.CommandResult, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return remote.CommandResult{}, &remote.ExecutionError{Host: s.host, Command: command, Err: err}
	}
	defer func() { _ = sess.Close() }()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	if err := sess.Start(command); err != nil {
		return remote.CommandResult{}, &remote.ExecutionError{Host: s.host, Command: command, Err: err}
	}
	go func() { done <- sess.Wait() }()

	select {
	case <-ctx.Done():
		// A dispatched command runs to completion on the remote side;
		// the best we can do locally is signal and stop waiting.
		_ = sess.Signal(ssh.SIGKILL)
		return remote.CommandResult{}, &remote.ExecutionError{Host: s.host, Command: command, Err: ctx.Err()}
	case err = <-done:
	}

	result := remote.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		return result, &remote.ExecutionError{Host: s.host, Command: command, Err: err}
	}
	return result, nil
}

// Upload copies a local file to remotePath over SFTP.
func (s *Session) Upload(ctx context.Context, localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return &remote.TransferError{Host: s.host, LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer func() { _ = src.Close() }()

	ftp, err := sftp.NewClient(s.client)
	if err != nil {
		return &remote.TransferError{Host: s.host, LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	defer func() { _ = ftp.Close() }()

	dst, err := ftp.Create(remotePath)
	if err != nil {
		return &remote.TransferError{Host: s.host, LocalPath: localPath, RemotePath: remotePath, Err: err}
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return &remote.TransferError{Host: s.host, LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	if err := dst.Close(); err != nil {
		return &remote.TransferError{Host: s.host, LocalPath: localPath, RemotePath: remotePath, Err: err}
	}

	// Context is only consulted between operations; an in-flight SFTP
	// write is not interruptible.
	if err := ctx.Err(); err != nil {
		return &remote.TransferError{Host: s.host, LocalPath: localPath, RemotePath: remotePath, Err: err}
	}
	return nil
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.client.Close()
}
