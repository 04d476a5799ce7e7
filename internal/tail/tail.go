// Package tail feeds the lines of a log file to a callback and keeps
// following the file for appended lines, like "tail -f".
//
// Lines are delivered on the goroutine that called Run, in file order, so
// the callback can mutate unsynchronized state. A trailing line without a
// newline is held back while following and delivered as is once reading
// stops.
package tail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrRotated is returned when the followed file is removed or renamed and
// FollowRotate is off.
var ErrRotated = errors.New("file rotated")

// rotateTimeout bounds how long a rotated file may take to reappear.
const rotateTimeout = 10 * time.Second

// Options configures the follower behavior.
type Options struct {
	FilePath     string                              // Path to the log file
	FromEnd      bool                                // Skip the existing content
	Follow       bool                                // Whether to follow the file for new content
	FollowRotate bool                                // Whether to follow through log rotations
	Logger       *slog.Logger                        // Receives rotation and truncation notices
	OnLine       func(line string, lineNum int) error // Called for each line
}

// Follower reads a log file and watches it for appended lines.
type Follower struct {
	opts    Options
	logger  *slog.Logger
	file    *os.File
	reader  *bufio.Reader
	offset  int64
	lineNum int
	watcher *fsnotify.Watcher
}

// New creates a new Follower with the given options.
func New(opts Options) *Follower {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Follower{opts: opts, logger: logger}
}

// Run reads the file and, when following, blocks until ctx is cancelled or
// an error occurs. Cancellation is not an error.
func (t *Follower) Run(ctx context.Context) error {
	if t.opts.OnLine == nil {
		return errors.New("tail requires a line callback")
	}

	if err := t.openFile(); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer t.close()

	if err := t.readNewContent(); err != nil {
		return err
	}

	// If not following, we're done
	if !t.opts.Follow {
		return t.flushPartial()
	}

	if err := t.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	return t.watch(ctx)
}

// Lines returns how many lines have been delivered.
func (t *Follower) Lines() int {
	return t.lineNum
}

// openFile opens the log file, positioned at the end when FromEnd is set.
func (t *Follower) openFile() error {
	f, err := os.Open(t.opts.FilePath)
	if err != nil {
		return err
	}
	t.file = f
	t.offset = 0

	if t.opts.FromEnd {
		stat, err := f.Stat()
		if err != nil {
			return err
		}
		t.offset = stat.Size()
	}

	return nil
}

// setupWatcher initializes the fsnotify watcher.
func (t *Follower) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	t.watcher = watcher

	return watcher.Add(t.opts.FilePath)
}

// watch monitors the file for changes and delivers new lines.
func (t *Follower) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return t.finish()

		case event, ok := <-t.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}

			if err := t.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a file system event.
func (t *Follower) handleEvent(ctx context.Context, event fsnotify.Event) error {
	switch {
	case event.Has(fsnotify.Write):
		return t.readNewContent()

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return t.handleRotation(ctx)
	}

	// Chmod and create events on the watched path carry no data.
	return nil
}

// readNewContent delivers every complete line after the last known offset.
func (t *Follower) readNewContent() error {
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() < t.offset {
		t.logger.Warn("file truncated, reading from start", "file", t.opts.FilePath)
		t.offset = 0
	}

	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}
	if t.reader == nil {
		t.reader = bufio.NewReaderSize(t.file, 64*1024)
	} else {
		t.reader.Reset(t.file)
	}

	for {
		line, err := t.reader.ReadString('\n')
		if err == io.EOF {
			// Incomplete line: leave it for the next write.
			return nil
		}
		if err != nil {
			return err
		}

		t.offset += int64(len(line))
		t.lineNum++
		line = strings.TrimRight(line, "\r\n")

		if err := t.opts.OnLine(line, t.lineNum); err != nil {
			return err
		}
	}
}

// finish delivers what is left in the current file, including a last
// line that was never terminated.
func (t *Follower) finish() error {
	if t.file == nil {
		return nil
	}
	if err := t.readNewContent(); err != nil {
		return err
	}
	return t.flushPartial()
}

// flushPartial delivers the bytes after the last complete line, if any.
func (t *Follower) flushPartial() error {
	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}
	rest, err := io.ReadAll(t.file)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return nil
	}

	t.offset += int64(len(rest))
	t.lineNum++
	return t.opts.OnLine(strings.TrimRight(string(rest), "\r\n"), t.lineNum)
}

// handleRotation reopens the file once it reappears after a rotation.
func (t *Follower) handleRotation(ctx context.Context) error {
	// Drain whatever the old file still holds.
	if err := t.finish(); err != nil {
		return err
	}
	if !t.opts.FollowRotate {
		t.logger.Warn("file rotated, no longer following", "file", t.opts.FilePath)
		return ErrRotated
	}
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	timeout := time.After(rotateTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file to reappear")
		case <-ticker.C:
			f, err := os.Open(t.opts.FilePath)
			if err != nil {
				continue
			}
			t.file = f
			t.offset = 0

			if err := t.watcher.Add(t.opts.FilePath); err != nil {
				return fmt.Errorf("failed to watch rotated file: %w", err)
			}

			t.logger.Info("file rotated, following new file", "file", t.opts.FilePath)
			return t.readNewContent()
		}
	}
}

// close closes all resources.
func (t *Follower) close() {
	if t.file != nil {
		t.file.Close()
	}
	if t.watcher != nil {
		t.watcher.Close()
	}
}
