package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// auditEntry is one JSONL line recorded per MCP tool call against the path
// engine. Unlike a generic request/response log, the fields here are the
// ones that actually matter for this engine's three tools: whether a name
// resolved, what kind of node it resolved to, and how many dependencies,
// dependants, or namespace members came back. There is no response-size or
// token-estimate field - an mpath call returns a handful of fully-qualified
// names, never an LLM-sized payload worth budgeting for.
type auditEntry struct {
	Ts              string  `json:"ts"`
	Tool            string  `json:"tool"`
	Name            string  `json:"name,omitempty"`
	Resolved        bool    `json:"resolved"`
	Kind            string  `json:"kind,omitempty"`
	DependencyCount int     `json:"dependency_count,omitempty"`
	DependantCount  int     `json:"dependant_count,omitempty"`
	UnresolvedCount int     `json:"unresolved_count,omitempty"`
	MemberCount     int     `json:"member_count,omitempty"`
	DurationMs      int64   `json:"duration_ms"`
	Error           *string `json:"error,omitempty"`
}

// auditLog appends auditEntry records to a JSONL file. It is safe for
// concurrent use since mcp-go may serve more than one in-flight request.
type auditLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// newAuditLog opens (or creates) the file at path for append-only writing,
// creating parent directories as needed. A nil *auditLog is a valid,
// disabled logger: callers skip recording rather than writing to it.
func newAuditLog(path string) (*auditLog, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("mcpserver: create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: open audit log: %w", err)
	}
	return &auditLog{f: f, enc: json.NewEncoder(f)}, nil
}

func (l *auditLog) write(entry auditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

func (l *auditLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// now is a replaceable clock for testing.
var now = func() time.Time { return time.Now() }

// record writes entry to l if l is non-nil and stamps its timestamp and
// duration from start. Write failures are swallowed: a broken audit log must
// never fail the tool call it is trying to describe.
func (l *auditLog) record(start time.Time, entry auditEntry) {
	if l == nil {
		return
	}
	entry.Ts = start.UTC().Format(time.RFC3339)
	entry.DurationMs = now().Sub(start).Milliseconds()
	_ = l.write(entry)
}

// errEntry builds the audit entry for a tool call that failed before it
// could reach the engine, e.g. a missing required argument.
func errEntry(tool string, err error) auditEntry {
	msg := err.Error()
	return auditEntry{Tool: tool, Error: &msg}
}
