// Package testutil provides shared fakes for the remote execution channel,
// used by sequencer, bundle and service tests. The fakes record every
// command and connection attempt so tests can assert ordering invariants
// without a real SSH endpoint.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/imamik/airgapctl/internal/remote"
)

// Upload records one Upload call.
type Upload struct {
	LocalPath  string
	RemotePath string
}

// CannedResponse maps commands containing Match to a fixed result.
type CannedResponse struct {
	Match  string
	Result remote.CommandResult
	Err    error
}

// FakeSession implements remote.Session and records all activity.
type FakeSession struct {
	Hostname string

	// Responses are consulted in order; the first whose Match substring
	// appears in the command wins. Unmatched commands succeed with
	// empty output.
	Responses []CannedResponse

	mu         sync.Mutex
	Commands   []string
	Elevated   []string
	Uploads    []Upload
	CloseCount int
}

// NewFakeSession returns a session whose commands all succeed.
func NewFakeSession(host string) *FakeSession {
	return &FakeSession{Hostname: host}
}

// Respond registers a canned result for commands containing match.
func (f *FakeSession) Respond(match string, result remote.CommandResult) *FakeSession {
	f.Responses = append(f.Responses, CannedResponse{Match: match, Result: result})
	return f
}

// RespondErr registers a transport error for commands containing match.
func (f *FakeSession) RespondErr(match string, err error) *FakeSession {
	f.Responses = append(f.Responses, CannedResponse{Match: match, Err: err})
	return f
}

func (f *FakeSession) Host() string { return f.Hostname }

func (f *FakeSession) Run(_ context.Context, command string) (remote.CommandResult, error) {
	f.mu.Lock()
	f.Commands = append(f.Commands, command)
	f.mu.Unlock()
	return f.respond(command)
}

func (f *FakeSession) RunElevated(_ context.Context, command string) (remote.CommandResult, error) {
	f.mu.Lock()
	f.Commands = append(f.Commands, command)
	f.Elevated = append(f.Elevated, command)
	f.mu.Unlock()
	return f.respond(command)
}

func (f *FakeSession) Upload(_ context.Context, localPath, remotePath string) error {
	f.mu.Lock()
	f.Uploads = append(f.Uploads, Upload{LocalPath: localPath, RemotePath: remotePath})
	f.mu.Unlock()
	return nil
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	f.CloseCount++
	f.mu.Unlock()
	return nil
}

func (f *FakeSession) respond(command string) (remote.CommandResult, error) {
	for _, r := range f.Responses {
		if strings.Contains(command, r.Match) {
			return r.Result, r.Err
		}
	}
	return remote.CommandResult{}, nil
}

// CommandMatching returns the first recorded command containing match, or "".
func (f *FakeSession) CommandMatching(match string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Commands {
		if strings.Contains(c, match) {
			return c
		}
	}
	return ""
}

// FakeDialer implements remote.Dialer, handing out FakeSessions per host
// and counting connection attempts.
type FakeDialer struct {
	mu       sync.Mutex
	sessions map[string]*FakeSession
	Dials    []string
	Err      error
	ErrHosts map[string]error
}

// NewFakeDialer creates a dialer with no prepared sessions; unknown hosts
// get a fresh all-success session.
func NewFakeDialer() *FakeDialer {
	return &FakeDialer{sessions: make(map[string]*FakeSession), ErrHosts: make(map[string]error)}
}

// SessionFor pre-registers (or returns the existing) session for host.
func (d *FakeDialer) SessionFor(host string) *FakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sessions[host]; ok {
		return s
	}
	s := NewFakeSession(host)
	d.sessions[host] = s
	return s
}

// FailHost makes dials to host fail with err.
func (d *FakeDialer) FailHost(host string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ErrHosts[host] = err
}

func (d *FakeDialer) Dial(_ context.Context, host, _, _ string) (remote.Session, error) {
	d.mu.Lock()
	d.Dials = append(d.Dials, host)
	err, failed := d.ErrHosts[host]
	d.mu.Unlock()
	if failed {
		return nil, &remote.ConnectionError{Host: host, Err: err}
	}
	if d.Err != nil {
		return nil, &remote.ConnectionError{Host: host, Err: d.Err}
	}
	return d.SessionFor(host), nil
}

// DialCount returns the number of connection attempts made.
func (d *FakeDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Dials)
}
