// Package remote defines the command-execution contract between the
// deployment engine and a node reachable over SSH.
//
// The engine never talks to golang.org/x/crypto/ssh directly; it operates on
// the Session interface so tests can substitute recording fakes and so the
// transport can be swapped without touching sequencing logic.
package remote

import (
	"context"
	"fmt"
)

// CommandResult captures the outcome of a single remote command.
// A non-zero exit code is data, not an error: the caller decides whether
// it is fatal (see Classify).
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns combined stdout and stderr for diagnostics.
func (r CommandResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Session is a live connection to one node. It is exclusively owned by the
// code path currently operating on that node and must be closed on every
// exit path.
type Session interface {
	// Run executes a command as the login user.
	Run(ctx context.Context, command string) (CommandResult, error)

	// RunElevated executes a command through the node's privilege
	// escalation mechanism. Credentials are never embedded in the
	// command string.
	RunElevated(ctx context.Context, command string) (CommandResult, error)

	// Upload copies a local file to the given remote path.
	Upload(ctx context.Context, localPath, remotePath string) error

	// Host returns the address this session is bound to.
	Host() string

	Close() error
}

// Dialer opens sessions to nodes.
type Dialer interface {
	Dial(ctx context.Context, host, user, keyPath string) (Session, error)
}

// ConnectionError indicates the node could not be reached or authenticated.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ExecutionError indicates the transport failed while a command was in
// flight. It is distinct from a command that ran and exited non-zero.
type ExecutionError struct {
	Host    string
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command failed on %s: %v\nCommand: %s", e.Host, e.Err, e.Command)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TransferError indicates a file upload did not complete.
type TransferError struct {
	Host       string
	LocalPath  string
	RemotePath string
	Err        error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s -> %s:%s failed: %v", e.LocalPath, e.Host, e.RemotePath, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
