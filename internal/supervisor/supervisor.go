// Package supervisor launches one dependent server process, gates on its
// readiness and tears its process tree down on request.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oremus-labs/bigbooks-relay/internal/events"
	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
	"github.com/oremus-labs/bigbooks-relay/internal/metrics"
)

// State is the lifecycle position of a Supervisor.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateReady
	StateFailed
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ReadinessMode selects how Start decides the process is usable.
type ReadinessMode int

const (
	// ReadinessPoll checks the captured output every PollInterval and returns
	// as soon as the confirmation text shows up, giving up after Delay.
	ReadinessPoll ReadinessMode = iota
	// ReadinessFixed waits the whole Delay and then checks once.
	ReadinessFixed
)

// ParseReadinessMode maps "poll" and "fixed" to a mode.
func ParseReadinessMode(value string) (ReadinessMode, error) {
	switch value {
	case "", "poll":
		return ReadinessPoll, nil
	case "fixed":
		return ReadinessFixed, nil
	default:
		return ReadinessPoll, fmt.Errorf("unknown readiness mode %q", value)
	}
}

var (
	ErrAlreadyRunning       = errors.New("supervised process already starting or running")
	ErrConfirmationNotFound = errors.New("confirmation text not found in process output")
	ErrStartAborted         = errors.New("start aborted by End")
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultKillWait     = 5 * time.Second
)

// LaunchSpec describes the process to run.
type LaunchSpec struct {
	// Command is run through the platform shell.
	Command string
	Dir     string
	Delay   time.Duration
	// Confirmation, when set, must appear in a stdout line before Delay elapses.
	Confirmation string
	Mode         ReadinessMode
	PollInterval time.Duration
}

// Publisher receives lifecycle events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

// Options configure a Supervisor.
type Options struct {
	Events Publisher
	// KillWait bounds how long End waits for the killed process to exit.
	KillWait time.Duration
}

// Supervisor owns at most one live child process.
type Supervisor struct {
	events   Publisher
	killWait time.Duration

	// swapped in tests
	startProcess func(command, dir string, onExit func(*child, error)) (*child, error)
	setLive      func(bool)

	mu    sync.Mutex
	state State
	err   error
	proc  *child
	// aborted records an End that arrived before the spawned child was handed over.
	aborted bool
}

// New returns an idle Supervisor.
func New(opts Options) *Supervisor {
	wait := opts.KillWait
	if wait <= 0 {
		wait = defaultKillWait
	}
	return &Supervisor{
		events:       opts.Events,
		killWait:     wait,
		startProcess: startChild,
		setLive:      metrics.SetProcessLive,
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the reason the last Start failed, or nil.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PID returns the supervised process id, or 0 when no handle is held.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.pid
}

// Start spawns spec.Command and blocks until the readiness gate decides. It
// returns false on any failure; Err explains why. A Start while another
// process is starting or ready is rejected and leaves that process alone.
func (s *Supervisor) Start(ctx context.Context, spec LaunchSpec) bool {
	s.mu.Lock()
	if s.state == StateStarting || s.state == StateReady {
		s.err = ErrAlreadyRunning
		state := s.state
		pid := 0
		if s.proc != nil {
			pid = s.proc.pid
		}
		s.mu.Unlock()
		logutil.Warn("start rejected", map[string]interface{}{"pid": pid, "state": state.String()})
		return false
	}
	stale := s.proc
	s.proc = nil
	s.state = StateStarting
	s.err = nil
	s.aborted = false
	s.mu.Unlock()

	if stale != nil {
		logutil.Info("terminating stale process", map[string]interface{}{"pid": stale.pid})
		stale.terminate(s.killWait)
	}

	fields := map[string]interface{}{"command": spec.Command, "dir": spec.Dir}
	logutil.Info("starting process", fields)

	c, err := s.spawn(spec)
	if err != nil {
		s.mu.Lock()
		if !s.aborted {
			s.state = StateFailed
		}
		s.aborted = false
		s.err = err
		s.mu.Unlock()
		logutil.Error("process spawn failed", err, fields)
		metrics.ObserveProcessStart("spawn_error", 0)
		s.publish(ctx, events.ProcessFailed, map[string]interface{}{"command": spec.Command, "error": err.Error()})
		return false
	}

	s.mu.Lock()
	if s.aborted {
		s.aborted = false
		s.err = ErrStartAborted
		s.mu.Unlock()
		logutil.Warn("start aborted before the process was ready", map[string]interface{}{"pid": c.pid})
		c.terminate(s.killWait)
		metrics.ObserveProcessStart("aborted", time.Since(c.spawned))
		return false
	}
	s.proc = c
	if !c.exited.Load() {
		s.setLive(true)
	}
	s.mu.Unlock()
	fields["pid"] = c.pid
	s.publish(ctx, events.ProcessStarting, map[string]interface{}{"pid": c.pid, "command": spec.Command})

	err = await(ctx, c, spec)
	c.release()

	s.mu.Lock()
	if s.proc != c {
		s.err = ErrStartAborted
		s.mu.Unlock()
		logutil.Warn("start aborted", fields)
		metrics.ObserveProcessStart("aborted", time.Since(c.spawned))
		return false
	}
	if err == nil {
		s.state = StateReady
		s.mu.Unlock()
		logutil.Info("process ready", fields)
		metrics.ObserveProcessStart("ready", time.Since(c.spawned))
		s.publish(ctx, events.ProcessReady, map[string]interface{}{"pid": c.pid})
		return true
	}

	s.state = StateFailed
	s.err = err
	cancelled := ctx.Err() != nil
	if cancelled {
		s.proc = nil
	}
	s.mu.Unlock()

	outcome := "not_confirmed"
	if cancelled {
		outcome = "cancelled"
		c.terminate(s.killWait)
		s.setLive(false)
	}
	logutil.Error("process readiness failed", err, fields)
	metrics.ObserveProcessStart(outcome, time.Since(c.spawned))
	s.publish(ctx, events.ProcessFailed, map[string]interface{}{"pid": c.pid, "error": err.Error()})
	return false
}

// End kills the supervised process and its descendants. Without a handle it
// does nothing.
func (s *Supervisor) End() {
	s.mu.Lock()
	c := s.proc
	if c == nil {
		if s.state == StateStarting {
			// Start is between spawning and taking ownership; it kills the child.
			s.aborted = true
			s.state = StateTerminated
			s.mu.Unlock()
			logutil.Info("ending a start in progress", nil)
			return
		}
		s.mu.Unlock()
		logutil.Debug("no supervised process to end", nil)
		return
	}
	s.proc = nil
	s.state = StateTerminated
	s.mu.Unlock()

	logutil.Info("terminating process", map[string]interface{}{"pid": c.pid})
	if !c.terminate(s.killWait) {
		logutil.Warn("process did not exit after kill", map[string]interface{}{"pid": c.pid, "wait": s.killWait.String()})
	}
	s.setLive(false)
	s.publish(context.Background(), events.ProcessTerminated, map[string]interface{}{"pid": c.pid})
}

func (s *Supervisor) spawn(spec LaunchSpec) (*child, error) {
	if spec.Dir != "" {
		info, err := os.Stat(spec.Dir)
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("working directory %s is not a directory", spec.Dir)
		}
	}
	return s.startProcess(spec.Command, spec.Dir, func(c *child, exitErr error) {
		s.mu.Lock()
		if s.proc == nil || s.proc == c {
			s.setLive(false)
		}
		s.mu.Unlock()
		fields := map[string]interface{}{"pid": c.pid}
		if exitErr != nil {
			fields["exit"] = exitErr.Error()
		}
		logutil.Info("process exited", fields)
		s.publish(context.Background(), events.ProcessExited, fields)
	})
}

// await applies the readiness gate to a freshly spawned child.
func await(ctx context.Context, c *child, spec LaunchSpec) error {
	deadline := time.NewTimer(spec.Delay)
	defer deadline.Stop()

	if spec.Confirmation == "" || spec.Mode == ReadinessFixed {
		select {
		case <-ctx.Done():
			return fmt.Errorf("readiness wait: %w", ctx.Err())
		case <-deadline.C:
		}
		if spec.Confirmation == "" || c.confirmed(spec.Confirmation) {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrConfirmationNotFound, spec.Confirmation)
	}

	interval := spec.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if c.confirmed(spec.Confirmation) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("readiness wait: %w", ctx.Err())
		case <-c.done:
			// output is complete once the process has exited
			if c.confirmed(spec.Confirmation) {
				return nil
			}
			return fmt.Errorf("%w: %q (process exited)", ErrConfirmationNotFound, spec.Confirmation)
		case <-deadline.C:
			if c.confirmed(spec.Confirmation) {
				return nil
			}
			return fmt.Errorf("%w: %q", ErrConfirmationNotFound, spec.Confirmation)
		case <-ticker.C:
		}
	}
}

func (s *Supervisor) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pubCtx, events.Event{Type: eventType, Data: data}); err != nil {
		logutil.Warn("failed to publish lifecycle event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
