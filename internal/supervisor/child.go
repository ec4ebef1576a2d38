package supervisor

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oremus-labs/bigbooks-relay/internal/logutil"
)

const maxLineBytes = 1 << 20

// child is one spawned process plus the goroutines draining its output.
type child struct {
	pid     int
	spawned time.Time
	done    chan struct{}
	// exited is set before the exit callback runs.
	exited atomic.Bool

	mu       sync.Mutex
	lines    []string
	released bool
}

func startChild(command, dir string, onExit func(c *child, err error)) (*child, error) {
	cmd := shellCommand(command)
	cmd.Dir = dir
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", command, err)
	}

	c := &child{
		pid:     cmd.Process.Pid,
		spawned: time.Now(),
		done:    make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		scanLines(stdout, func(line string) {
			c.mu.Lock()
			if !c.released {
				c.lines = append(c.lines, line)
			}
			c.mu.Unlock()
			logutil.Trace(line, map[string]interface{}{"pid": c.pid, "stream": "stdout"})
		})
	}()
	go func() {
		defer readers.Done()
		scanLines(stderr, func(line string) {
			logutil.Error(line, nil, map[string]interface{}{"pid": c.pid, "stream": "stderr"})
		})
	}()
	go func() {
		// Wait closes the pipes, so the readers must drain them first.
		readers.Wait()
		err := cmd.Wait()
		c.exited.Store(true)
		if onExit != nil {
			onExit(c, err)
		}
		close(c.done)
	}()
	return c, nil
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		fn(strings.TrimRight(scanner.Text(), "\r"))
	}
}

// confirmed reports whether any captured stdout line contains text.
func (c *child) confirmed(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range c.lines {
		if strings.Contains(line, text) {
			return true
		}
	}
	return false
}

// release drops the captured lines and stops buffering new ones once the
// readiness gate has decided.
func (c *child) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.released = true
}

// terminate kills the process tree and waits up to wait for the exit. It
// reports whether the process was reaped in time.
func (c *child) terminate(wait time.Duration) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	if err := killTree(c.pid); err != nil {
		logutil.Debug("kill process tree", map[string]interface{}{"pid": c.pid, "error": err.Error()})
	}
	select {
	case <-c.done:
		return true
	case <-time.After(wait):
		return false
	}
}
