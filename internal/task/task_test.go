package task

import (
	"io"
	"log/slog"
	"testing"
)

func newTracker() *Tracker {
	return NewTracker(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStartSingleFlight(t *testing.T) {
	tr := newTracker()

	if !tr.Start("s1", "build") {
		t.Fatal("first start refused")
	}
	if tr.Start("s1", "build") {
		t.Error("second start accepted while running")
	}

	// A different session or task is independent.
	if !tr.Start("s2", "build") {
		t.Error("start refused for another session")
	}
	if !tr.Start("s1", "test") {
		t.Error("start refused for another task")
	}
}

func TestStartRefusedWhileStopping(t *testing.T) {
	tr := newTracker()
	tr.Start("s1", "build")
	tr.BindChannel("s1", "build", "ch1")
	tr.RequestStop("s1", "build")

	if tr.Start("s1", "build") {
		t.Error("start accepted while stopping")
	}
}

func TestStopWaitsForExit(t *testing.T) {
	tr := newTracker()
	tr.Start("s1", "build")
	tr.BindChannel("s1", "build", "ch1")

	if ch := tr.RequestStop("s1", "build"); ch != "ch1" {
		t.Fatalf("RequestStop = %q, want ch1", ch)
	}

	r, _ := tr.Get("s1", "build")
	if r.Status != StatusStopping {
		t.Fatalf("status = %v, want stopping", r.Status)
	}
	if r.ExitCode != nil {
		t.Error("exit code set before the exit event")
	}

	resolved, ok := tr.OnExit("ch1", 0)
	if !ok {
		t.Fatal("exit event did not resolve")
	}
	if resolved.SessionID != "s1" || resolved.TaskName != "build" {
		t.Errorf("resolved %s/%s, want s1/build", resolved.SessionID, resolved.TaskName)
	}

	r, _ = tr.Get("s1", "build")
	if r.Status != StatusStopped || r.ExitCode == nil || *r.ExitCode != 0 {
		t.Errorf("after exit: status=%v code=%v", r.Status, r.ExitCode)
	}
}

func TestForceKillDeterministic(t *testing.T) {
	tr := newTracker()
	tr.Start("s1", "build")
	tr.BindChannel("s1", "build", "ch1")

	// Force-kill is only valid from stopping.
	if ch := tr.ForceKill("s1", "build"); ch != "" {
		t.Fatalf("ForceKill from running = %q, want refusal", ch)
	}

	tr.RequestStop("s1", "build")
	if ch := tr.ForceKill("s1", "build"); ch != "ch1" {
		t.Fatalf("ForceKill = %q, want ch1", ch)
	}

	r, _ := tr.Get("s1", "build")
	if r.Status != StatusStopped {
		t.Errorf("status = %v, want stopped", r.Status)
	}
	if r.ExitCode == nil || *r.ExitCode != ForceKillExitCode {
		t.Errorf("exit code = %v, want %d", r.ExitCode, ForceKillExitCode)
	}

	// The real exit event arrives later; it must not overwrite the
	// synchronous result.
	if _, ok := tr.OnExit("ch1", 1); ok {
		t.Error("late exit event resolved after force-kill")
	}
	r, _ = tr.Get("s1", "build")
	if *r.ExitCode != ForceKillExitCode {
		t.Errorf("late exit overwrote code: %d", *r.ExitCode)
	}
}

func TestOnExitUnknownChannelIsNoop(t *testing.T) {
	tr := newTracker()
	if _, ok := tr.OnExit("ghost", 0); ok {
		t.Error("resolved an unknown channel")
	}
}

func TestDiscardMakesExitNoop(t *testing.T) {
	tr := newTracker()
	tr.Start("s1", "build")
	tr.BindChannel("s1", "build", "ch1")

	tr.Discard("s1", "build")
	if _, ok := tr.OnExit("ch1", 0); ok {
		t.Error("exit resolved after discard")
	}
	if tr.Has("s1") {
		t.Error("record survives discard")
	}
}

func TestRestartAfterStop(t *testing.T) {
	tr := newTracker()
	tr.Start("s1", "build")
	tr.BindChannel("s1", "build", "ch1")
	tr.OnExit("ch1", 2)

	if !tr.Start("s1", "build") {
		t.Fatal("restart refused after stop")
	}
	r, _ := tr.Get("s1", "build")
	if r.ChannelID != "" || r.ExitCode != nil {
		t.Errorf("stale state on restart: %+v", r)
	}
}

func TestPruneReturnsAliveChannels(t *testing.T) {
	tr := newTracker()
	tr.Start("s1", "build")
	tr.BindChannel("s1", "build", "ch1")
	tr.Start("s1", "serve")
	tr.BindChannel("s1", "serve", "ch2")
	tr.OnExit("ch2", 0)
	tr.Start("s2", "build")
	tr.BindChannel("s2", "build", "ch3")

	alive := tr.Prune("s1")
	if len(alive) != 1 || alive[0] != "ch1" {
		t.Errorf("alive = %v, want [ch1]", alive)
	}
	if tr.Has("s1") {
		t.Error("records survive prune")
	}
	if !tr.Has("s2") {
		t.Error("prune crossed sessions")
	}

	// Exit events for pruned channels are no-ops.
	if _, ok := tr.OnExit("ch1", 0); ok {
		t.Error("exit resolved for pruned channel")
	}
}
