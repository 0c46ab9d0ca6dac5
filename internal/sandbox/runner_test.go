package sandbox

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses POSIX shell syntax")
	}
}

func TestRunner_CapturesStdout(t *testing.T) {
	r := NewRunner(30*time.Second, 10000)
	res := r.Run(context.Background(), "echo hello", "")
	if res.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d (output: %s)", res.ExitCode, res.Output)
	}
	if !strings.Contains(res.Output, "hello") {
		t.Fatalf("expected hello in output, got: %q", res.Output)
	}
	if res.TimedOut || res.Truncated {
		t.Fatalf("unexpected flags in result: %+v", res)
	}
}

func TestRunner_RunsInGivenDirectory(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	r := NewRunner(30*time.Second, 10000)
	res := r.Run(context.Background(), "pwd", dir)
	if !strings.Contains(res.Output, dir) {
		t.Fatalf("expected %q in output, got: %q", dir, res.Output)
	}
}

func TestRunner_LabelsStderr(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(30*time.Second, 10000)
	res := r.Run(context.Background(), "echo oops >&2", "")
	if !strings.Contains(res.Output, "STDERR:") {
		t.Fatalf("expected STDERR label, got: %q", res.Output)
	}
	if !strings.Contains(res.Output, "oops") {
		t.Fatalf("expected stderr text, got: %q", res.Output)
	}
}

func TestRunner_ReportsNonZeroExitAsData(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(30*time.Second, 10000)
	res := r.Run(context.Background(), "exit 3", "")
	if res.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", res.ExitCode)
	}
	if !strings.Contains(res.Output, "Exit code: 3") {
		t.Fatalf("expected exit code annotation, got: %q", res.Output)
	}
}

func TestRunner_NoOutputPlaceholder(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(30*time.Second, 10000)
	res := r.Run(context.Background(), "true", "")
	if res.Output != "(no output)" {
		t.Fatalf("expected placeholder, got: %q", res.Output)
	}
}

func TestRunner_TimeoutKillsProcessGroup(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(1*time.Second, 10000)

	start := time.Now()
	res := r.Run(context.Background(), "sleep 30", "")
	elapsed := time.Since(start)

	if !res.TimedOut {
		t.Fatalf("expected timeout, got: %+v", res)
	}
	if !strings.Contains(res.Output, "timed out after 1 seconds") {
		t.Fatalf("expected timeout message naming the duration, got: %q", res.Output)
	}
	// Well under the sleep duration: the group was killed, not waited out.
	if elapsed > 10*time.Second {
		t.Fatalf("run took %s, process group was not killed", elapsed)
	}
}

func TestRunner_TimeoutKillsDescendants(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(1*time.Second, 10000)

	start := time.Now()
	res := r.Run(context.Background(), "sh -c 'sleep 30' & sleep 30", "")
	if !res.TimedOut {
		t.Fatalf("expected timeout, got: %+v", res)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("run took %s, descendants were not killed with the group", elapsed)
	}
}

func TestRunner_CancellationStopsRun(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(60*time.Second, 10000)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := r.Run(ctx, "sleep 30", "")
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("run took %s after cancellation", elapsed)
	}
	if !strings.Contains(res.Output, "canceled") {
		t.Fatalf("expected cancellation message, got: %q", res.Output)
	}
}

func TestRunner_TruncatesLongOutput(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(30*time.Second, 100)

	res := r.Run(context.Background(), fmt.Sprintf("printf '%s'", strings.Repeat("a", 500)), "")
	if !res.Truncated {
		t.Fatalf("expected truncation, got: %+v", res)
	}
	if !strings.Contains(res.Output, "truncated, 400 more chars") {
		t.Fatalf("expected omitted count, got tail: %q", res.Output[len(res.Output)-60:])
	}
	if !strings.HasPrefix(res.Output, strings.Repeat("a", 100)) {
		t.Fatal("expected output capped at the configured limit")
	}
}

func TestRunner_SpawnFailureReportedAsText(t *testing.T) {
	r := NewRunner(30*time.Second, 10000)
	res := r.Run(context.Background(), "echo hi", "/nonexistent-dir-for-sure")
	if !res.SpawnError {
		t.Fatalf("expected spawn error, got: %+v", res)
	}
	if !strings.Contains(res.Output, "Error executing command:") {
		t.Fatalf("expected textual spawn error, got: %q", res.Output)
	}
}

func TestRunner_ConcurrentRunsIsolated(t *testing.T) {
	skipOnWindows(t)
	r := NewRunner(30*time.Second, 10000)

	results := make(chan Result, 2)
	go func() { results <- r.Run(context.Background(), "echo first", "") }()
	go func() { results <- r.Run(context.Background(), "echo second", "") }()

	var outputs []string
	for i := 0; i < 2; i++ {
		res := <-results
		if res.ExitCode != 0 {
			t.Fatalf("concurrent run failed: %+v", res)
		}
		outputs = append(outputs, res.Output)
	}
	combined := strings.Join(outputs, " ")
	if !strings.Contains(combined, "first") || !strings.Contains(combined, "second") {
		t.Fatalf("expected both outputs, got: %q", combined)
	}
}
