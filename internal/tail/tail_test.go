package tail

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// Helper function to create a temporary log file
func createTempLogFile(t *testing.T, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "test.log")

	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	return filePath
}

// Helper function to collect delivered lines (thread-safe)
func collectingLineFunc() (func(string, int) error, func() []string) {
	var mu sync.Mutex
	var lines []string

	onLine := func(line string, _ int) error {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		return nil
	}

	get := func() []string {
		mu.Lock()
		defer mu.Unlock()
		result := make([]string, len(lines))
		copy(result, lines)
		return result
	}

	return onLine, get
}

func appendToFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("Failed to open file for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestFollower_ReadsExistingContent(t *testing.T) {
	filePath := createTempLogFile(t, "line 1\nline 2\r\n\nline 4\n")

	var nums []int
	onLine, lines := collectingLineFunc()
	f := New(Options{
		FilePath: filePath,
		OnLine: func(line string, n int) error {
			nums = append(nums, n)
			return onLine(line, n)
		},
	})

	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"line 1", "line 2", "", "line 4"}
	got := lines()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if len(nums) != 4 || nums[3] != 4 {
		t.Errorf("line numbers = %v", nums)
	}
	if f.Lines() != 4 {
		t.Errorf("Lines() = %d, want 4", f.Lines())
	}
}

func TestFollower_DeliversUnterminatedLastLine(t *testing.T) {
	filePath := createTempLogFile(t, "complete\npartial")

	onLine, lines := collectingLineFunc()
	f := New(Options{FilePath: filePath, OnLine: onLine})

	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"complete", "partial"}
	if got := lines(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
	if f.Lines() != 2 {
		t.Errorf("Lines() = %d, want 2", f.Lines())
	}
}

func TestFollower_CancelDeliversHeldLine(t *testing.T) {
	filePath := createTempLogFile(t, "line 1\nline 2")

	onLine, lines := collectingLineFunc()
	f := New(Options{FilePath: filePath, Follow: true, OnLine: onLine})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Run(ctx)
	}()

	if !waitFor(t, func() bool { return len(lines()) == 1 }) {
		t.Fatalf("Expected the complete line, got %q", lines())
	}
	// The unterminated line waits while following.
	time.Sleep(100 * time.Millisecond)
	if got := lines(); len(got) != 1 {
		t.Fatalf("partial line delivered early: %q", got)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Follower did not stop within timeout")
	}

	want := []string{"line 1", "line 2"}
	if got := lines(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestFollower_FromEnd(t *testing.T) {
	filePath := createTempLogFile(t, "old 1\nold 2\n")

	onLine, lines := collectingLineFunc()
	f := New(Options{FilePath: filePath, FromEnd: true, OnLine: onLine})

	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(lines()) != 0 {
		t.Errorf("expected no lines, got %q", lines())
	}
}

func TestFollower_CallbackError(t *testing.T) {
	filePath := createTempLogFile(t, "a\nb\nc\n")
	stop := errors.New("stop")

	calls := 0
	f := New(Options{FilePath: filePath, OnLine: func(string, int) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	}})

	if err := f.Run(context.Background()); !errors.Is(err, stop) {
		t.Fatalf("Run() error = %v, want %v", err, stop)
	}
	if calls != 2 {
		t.Errorf("callback called %d times, want 2", calls)
	}
}

func TestFollower_Errors(t *testing.T) {
	if err := New(Options{FilePath: "/nonexistent/file.log", OnLine: func(string, int) error { return nil }}).Run(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	filePath := createTempLogFile(t, "x\n")
	if err := New(Options{FilePath: filePath}).Run(context.Background()); err == nil {
		t.Error("expected error without a callback")
	}
}

func TestFollower_FollowMode(t *testing.T) {
	filePath := createTempLogFile(t, "line 1\nline 2\n")

	onLine, lines := collectingLineFunc()
	f := New(Options{
		FilePath: filePath,
		Follow:   true,
		OnLine:   onLine,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Run(ctx)
	}()

	if !waitFor(t, func() bool { return len(lines()) == 2 }) {
		t.Fatalf("Expected 2 initial lines, got %d", len(lines()))
	}

	// Give the watcher time to register before appending.
	time.Sleep(100 * time.Millisecond)
	appendToFile(t, filePath, "line 3\nline ")

	if !waitFor(t, func() bool { return len(lines()) == 3 }) {
		t.Fatalf("Expected 3 lines after append, got %q", lines())
	}

	appendToFile(t, filePath, "4\n")
	if !waitFor(t, func() bool { return len(lines()) == 4 }) {
		t.Fatalf("Expected 4 lines after completing the partial line, got %q", lines())
	}
	if got := lines()[3]; got != "line 4" {
		t.Errorf("fourth line = %q, want %q", got, "line 4")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Follower did not stop within timeout")
	}
}

func TestFollower_RotationWithoutFollowRotate(t *testing.T) {
	filePath := createTempLogFile(t, "line 1\n")

	onLine, lines := collectingLineFunc()
	f := New(Options{FilePath: filePath, Follow: true, OnLine: onLine})

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Run(context.Background())
	}()

	if !waitFor(t, func() bool { return len(lines()) == 1 }) {
		t.Fatalf("Expected initial line, got %q", lines())
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.Rename(filePath, filePath+".1"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrRotated) {
			t.Errorf("Run() error = %v, want ErrRotated", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("Follower did not notice the rotation")
	}
}
