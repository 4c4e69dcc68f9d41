// Package ffmpeg provides shared capture subprocess management utilities.
package ffmpeg

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

const (
	// InitialRetryDelay is the starting delay between restart attempts.
	InitialRetryDelay = 1000 * time.Millisecond
	// MaxRetryDelay is the maximum delay between restart attempts.
	MaxRetryDelay = 30000 * time.Millisecond
	// StableThreshold is the run time after which a process is considered stable.
	StableThreshold = 10000 * time.Millisecond
	// ShutdownTimeout is the duration to wait for graceful shutdown.
	ShutdownTimeout = 3000 * time.Millisecond
)

// maxStderrBytes bounds the stderr retained per process.
const maxStderrBytes = 16 * 1024

// ErrNoBinary is returned when the capture executable cannot be resolved.
var ErrNoBinary = errors.New("capture binary not found")

// Process represents a running capture subprocess.
type Process struct {
	Cmd    *exec.Cmd
	Stdout io.ReadCloser
	stderr *stderrTail
}

// Start launches name with args. The process is signalled gracefully when
// ctx is cancelled and killed after ShutdownTimeout.
func Start(ctx context.Context, name string, args []string) (*Process, error) {
	if name == "" {
		return nil, ErrNoBinary
	}

	cmd := exec.CommandContext(ctx, name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, util.WrapError("create stdin pipe", err)
	}

	// Go 1.20+: Declarative graceful shutdown - sends signal first, waits, then kills.
	// FFmpeg on Windows only stops cleanly through its stdin.
	cmd.Cancel = func() error {
		if err := util.StopFFmpegViaStdin(stdin); err != nil {
			slog.Debug("failed to stop capture via stdin", "name", name, "error", err)
		}
		return util.GracefulSignal(cmd.Process)
	}
	cmd.WaitDelay = ShutdownTimeout

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, util.WrapError("create stdout pipe", err)
	}

	stderr := &stderrTail{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, util.WrapError("start "+name, err)
	}

	return &Process{
		Cmd:    cmd,
		Stdout: stdout,
		stderr: stderr,
	}, nil
}

// Wait waits for the process to exit and returns the last stderr line with the exit error.
func (p *Process) Wait() (string, error) {
	err := p.Cmd.Wait()
	return util.ExtractLastError(p.stderr.String()), err
}

// TakeWarning returns the most recent complete stderr line not yet taken, if any.
func (p *Process) TakeWarning() string {
	return p.stderr.take()
}

// stderrTail retains the tail of a process's stderr and tracks its latest line.
// It is safe for concurrent use.
type stderrTail struct {
	mu      sync.Mutex
	buf     []byte
	partial string
	latest  string
}

// Write implements io.Writer.
func (s *stderrTail) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = append(s.buf, b...)
	if over := len(s.buf) - maxStderrBytes; over > 0 {
		s.buf = s.buf[over:]
	}

	text := s.partial + string(b)
	lines := strings.Split(text, "\n")
	s.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if line = strings.TrimSpace(line); line != "" {
			s.latest = line
		}
	}
	return len(b), nil
}

func (s *stderrTail) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buf)
}

func (s *stderrTail) take() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.latest
	s.latest = ""
	return line
}

// Supervise calls run until ctx is done, waiting with backoff between runs.
// A run that lasted at least StableThreshold resets the backoff.
func Supervise(ctx context.Context, name string, backoff *util.Backoff, run func(context.Context) (string, error)) {
	for attempt := 1; ; attempt++ {
		startTime := time.Now()
		stderrOutput, err := run(ctx)
		runDuration := time.Since(startTime)

		if ctx.Err() != nil {
			return
		}

		if runDuration >= StableThreshold {
			attempt = 1
			backoff.Reset()
		}

		errMsg := "exited"
		if err != nil {
			errMsg = err.Error()
		}
		if stderrOutput != "" {
			errMsg = stderrOutput
		}

		slog.Warn("capture process stopped, waiting before restart",
			"process", name, "error", errMsg, "delay", backoff.Current(), "attempt", attempt)
		if !backoff.Wait(ctx) {
			return
		}
	}
}
