package mcp

import "testing"

func TestParseServerStatus(t *testing.T) {
	known := []string{
		"healthy", "degraded", "crashed", "starting", "updating",
		"pending", "orphaned", "error", "stopped",
	}
	for _, s := range known {
		if got := ParseServerStatus(s); string(got) != s {
			t.Errorf("ParseServerStatus(%q) = %q", s, got)
		}
	}

	if got := ParseServerStatus("exploded"); got != StatusError {
		t.Errorf("unknown status should map to error, got %q", got)
	}
	if got := ParseServerStatus(""); got != StatusError {
		t.Errorf("empty status should map to error, got %q", got)
	}
}

func TestServerStatusIsRunning(t *testing.T) {
	running := []ServerStatus{StatusHealthy, StatusDegraded, StatusStarting, StatusUpdating}
	for _, s := range running {
		if !s.IsRunning() {
			t.Errorf("%s should be running", s)
		}
	}

	stopped := []ServerStatus{StatusCrashed, StatusPending, StatusOrphaned, StatusError, StatusStopped}
	for _, s := range stopped {
		if s.IsRunning() {
			t.Errorf("%s should not be running", s)
		}
	}
}

func TestServerStatusSymbol(t *testing.T) {
	// Every status renders something
	all := []ServerStatus{
		StatusHealthy, StatusDegraded, StatusCrashed, StatusStarting,
		StatusUpdating, StatusPending, StatusOrphaned, StatusError, StatusStopped,
	}
	for _, s := range all {
		if s.Symbol() == "" {
			t.Errorf("%s has no symbol", s)
		}
	}
}

func TestConflictStatusLabel(t *testing.T) {
	if ConflictNone.Label() != "" {
		t.Errorf("none should have empty label")
	}
	if ConflictDetected.Label() == "" {
		t.Errorf("conflict should have a label")
	}
	if ConflictUpdateAvailable.Label() == "" {
		t.Errorf("update_available should have a label")
	}
}
