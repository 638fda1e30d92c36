// Package job tracks background and suspended pipelines in a job table:
// a per-job state machine (Running/Stopped/Done), process-group
// signaling, a poll-based liveness fallback, and POSIX job designator
// resolution (%n, %+, %-).
package job

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Status is a Job's place in the Running/Stopped/Done state machine.
type Status int

const (
	Running Status = iota
	Stopped
	Done
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}

// Job tracks one pipeline under a unique id with a dedicated process
// group.
type Job struct {
	ID         uint32
	PID        int
	PGID       int
	Command    string
	Status     Status
	Background bool
	StartTime  time.Time
	EndTime    time.Time
	ExitCode   int
	Signal     int

	mu   sync.Mutex
	done chan struct{}
}

// Manager owns the job table. Mutations come only from the job manager;
// other components (the REPL, builtins) hold read-only views.
type Manager struct {
	mu       sync.Mutex
	jobs     map[uint32]*Job
	recency  []uint32
	nextID   uint32
	stopPoll chan struct{}
}

// New creates an empty job manager and starts its liveness poller.
func New() *Manager {
	m := &Manager{
		jobs:     make(map[uint32]*Job),
		stopPoll: make(chan struct{}),
	}
	go m.pollLoop()
	return m
}

// Register creates a new Running job for a freshly spawned process group
// leader. pid and pgid are equal for a process group leader; both are 0
// for an in-process (builtin) background job, which has no child to
// signal.
func (m *Manager) Register(command string, pid, pgid int, background bool) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	j := &Job{
		ID:         m.nextID,
		PID:        pid,
		PGID:       pgid,
		Command:    command,
		Status:     Running,
		Background: background,
		StartTime:  time.Now(),
		done:       make(chan struct{}),
	}
	m.jobs[j.ID] = j
	m.recency = append(m.recency, j.ID)
	return j
}

// MarkDone transitions a job to Done with the given exit code/signal and
// closes its done channel, waking any waitForJob callers.
func (m *Manager) MarkDone(id uint32, exitCode, signal int) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return
	}

	j.mu.Lock()
	if j.Status == Done {
		j.mu.Unlock()
		return
	}
	j.Status = Done
	j.ExitCode = exitCode
	j.Signal = signal
	j.EndTime = time.Now()
	done := j.done
	j.mu.Unlock()

	close(done)
	m.touchRecency(id)
}

// MarkStopped transitions a job to Stopped (SIGTSTP / suspend).
func (m *Manager) MarkStopped(id uint32) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	j.mu.Lock()
	j.Status = Stopped
	j.mu.Unlock()
	m.touchRecency(id)
}

// MarkRunning transitions a Stopped job back to Running (SIGCONT),
// optionally switching its foreground/background role.
func (m *Manager) MarkRunning(id uint32, background bool) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	j.mu.Lock()
	j.Status = Running
	j.Background = background
	j.mu.Unlock()
	m.touchRecency(id)
}

func (m *Manager) touchRecency(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, jid := range m.recency {
		if jid == id {
			m.recency = append(m.recency[:i], m.recency[i+1:]...)
			break
		}
	}
	m.recency = append(m.recency, id)
}

// TotalStarted reports how many jobs have ever been registered.
func (m *Manager) TotalStarted() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

// Get returns a snapshot copy of a job by id.
func (m *Manager) Get(id uint32) (Job, bool) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return Job{}, false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return *j, true
}

// All returns a snapshot of every job currently tracked, ordered by id.
func (m *Manager) All() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint32, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	// simple insertion sort; job counts are small
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}

	out := make([]Job, 0, len(ids))
	for _, id := range ids {
		j := m.jobs[id]
		j.mu.Lock()
		out = append(out, *j)
		j.mu.Unlock()
	}
	return out
}

// Remove drops a job from the table unconditionally, regardless of its
// status, without signaling or waiting on it. Used by the `disown`
// builtin.
func (m *Manager) Remove(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return false
	}
	delete(m.jobs, id)
	for i, jid := range m.recency {
		if jid == id {
			m.recency = append(m.recency[:i], m.recency[i+1:]...)
			break
		}
	}
	return true
}

// CleanupJobs drops every Done entry from the table.
func (m *Manager) CleanupJobs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		j.mu.Lock()
		done := j.Status == Done
		j.mu.Unlock()
		if done {
			delete(m.jobs, id)
		}
	}
}

// Resolve looks up a job by a POSIX designator: "%n" exact id, "%+"/"%%"
// current (most recent), "%-" previous, or a bare id.
func (m *Manager) Resolve(designator string) (*Job, error) {
	d := strings.TrimPrefix(designator, "%")

	m.mu.Lock()
	recency := append([]uint32(nil), m.recency...)
	m.mu.Unlock()

	switch d {
	case "+", "%", "":
		if len(recency) == 0 {
			return nil, fmt.Errorf("no current job")
		}
		return m.mustGetPtr(recency[len(recency)-1])
	case "-":
		if len(recency) < 2 {
			return nil, fmt.Errorf("no previous job")
		}
		return m.mustGetPtr(recency[len(recency)-2])
	default:
		n, err := strconv.Atoi(d)
		if err != nil {
			return nil, fmt.Errorf("krusty: %s: no such job", designator)
		}
		return m.mustGetPtr(uint32(n))
	}
}

func (m *Manager) mustGetPtr(id uint32) (*Job, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("krusty: %%%d: no such job", id)
	}
	return j, nil
}

// Signal sends sig to a job's process group. A job with no process
// group of its own (an in-process builtin job) cannot be signaled;
// kill(0, sig) would hit the shell's own group.
func Signal(j *Job, sig unix.Signal) error {
	if j.PGID <= 0 {
		return fmt.Errorf("job %d has no process group", j.ID)
	}
	return unix.Kill(-j.PGID, sig)
}

// WaitForJob blocks until the job transitions to Done, returning its
// final exit code.
func (m *Manager) WaitForJob(id uint32) (int, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("krusty: %%%d: no such job", id)
	}
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ExitCode, nil
}

// Shutdown terminates every Running/Stopped job with SIGTERM and stops
// the liveness poller.
func (m *Manager) Shutdown() {
	close(m.stopPoll)
	for _, j := range m.All() {
		if j.Status != Done && j.PGID > 0 {
			_ = unix.Kill(-j.PGID, unix.SIGTERM)
		}
	}
}

// pollLoop verifies liveness of tracked running jobs once a second via
// kill(pid, 0), as a fallback in case a SIGCHLD-driven Wait() is missed.
func (m *Manager) pollLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopPoll:
			return
		case <-ticker.C:
			for _, j := range m.All() {
				if j.Status == Done || j.PID <= 0 {
					continue
				}
				if err := unix.Kill(j.PID, 0); err != nil {
					m.MarkDone(j.ID, -1, 0)
				}
			}
		}
	}
}
