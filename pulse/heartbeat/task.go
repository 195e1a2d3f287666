package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/teranos/orion/errors"
)

// Action is the work a task performs. The returned value must be JSON
// serializable; it is recorded in the pulse log.
type Action func(ctx context.Context) (any, error)

// Task is an independently-scheduled unit of work.
// Run metadata is mutated only by Execute.
type Task struct {
	name     string
	interval time.Duration
	priority int
	action   Action
	timeout  time.Duration

	mu         sync.Mutex
	inFlight   bool
	lastRun    *time.Time
	runCount   uint64
	errorCount uint64
}

// TaskOption configures optional task behavior
type TaskOption func(*Task)

// WithTimeout bounds a single execution of the task's action.
// Zero defers to the heartbeat's default timeout.
func WithTimeout(d time.Duration) TaskOption {
	return func(t *Task) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// NewTask validates and creates a task. Interval must be positive.
func NewTask(name string, interval time.Duration, priority int, action Action, opts ...TaskOption) (*Task, error) {
	if name == "" {
		return nil, errors.NewInvalidTaskError("task name cannot be empty")
	}
	if interval <= 0 {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidInterval, "task %q: interval %s", name, interval),
			"a zero interval would run the task on every tick")
	}
	if action == nil {
		return nil, errors.NewInvalidTaskError("task %q: action cannot be nil", name)
	}

	t := &Task{
		name:     name,
		interval: interval,
		priority: priority,
		action:   action,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the task's unique name
func (t *Task) Name() string { return t.name }

// Interval returns the minimum spacing between executions
func (t *Task) Interval() time.Duration { return t.interval }

// Priority returns the within-tick ordering key (higher runs first)
func (t *Task) Priority() int { return t.priority }

// ShouldRun reports whether the task is due at now: it has never run, or at
// least one interval has elapsed since its last attempt.
func (t *Task) ShouldRun(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastRun == nil {
		return true
	}
	return now.Sub(*t.lastRun) >= t.interval
}

// Execute invokes the action once and records the attempt at now.
//
// Success increments the run count; failure (error, panic, timeout)
// increments the error count instead. Either way lastRun becomes now.
// While an abandoned timed-out action has not returned, the action is not
// invoked again and the attempt fails with ErrTaskStillRunning.
func (t *Task) Execute(ctx context.Context, now time.Time) Outcome {
	return t.execute(ctx, now, t.timeout)
}

func (t *Task) execute(ctx context.Context, now time.Time, timeout time.Duration) Outcome {
	t.mu.Lock()
	if t.inFlight {
		defer t.mu.Unlock()
		ran := now
		t.lastRun = &ran
		t.errorCount++
		err := errors.Wrapf(errors.ErrTaskStillRunning, "task %q: previous run has not returned", t.name)
		return Outcome{Success: false, Error: err.Error()}
	}
	t.inFlight = true
	t.mu.Unlock()

	started := time.Now()
	value, err := invoke(ctx, t.name, t.action, timeout, t.release)
	durationMs := time.Since(started).Milliseconds()

	t.mu.Lock()
	defer t.mu.Unlock()

	ran := now
	t.lastRun = &ran

	if err != nil {
		t.errorCount++
		return Outcome{Success: false, Error: err.Error(), DurationMs: durationMs}
	}
	t.runCount++
	return Outcome{Success: true, Value: value, DurationMs: durationMs}
}

// release marks the action as returned
func (t *Task) release() {
	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
}

// Busy reports whether an invocation of the action has not yet returned
func (t *Task) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Summary returns a consistent copy of the task's run metadata
func (t *Task) Summary() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lastRun *time.Time
	if t.lastRun != nil {
		lr := *t.lastRun
		lastRun = &lr
	}
	return TaskStatus{
		Name:            t.name,
		Interval:        t.interval,
		IntervalSeconds: int64(t.interval / time.Second),
		Priority:        t.priority,
		RunCount:        t.runCount,
		ErrorCount:      t.errorCount,
		LastRun:         lastRun,
	}
}

// invoke runs action, converting panics to errors and enforcing timeout when
// positive. finished is called once the action has actually returned, which
// after a timeout may be long after invoke itself.
func invoke(ctx context.Context, name string, action Action, timeout time.Duration, finished func()) (any, error) {
	if finished == nil {
		finished = func() {}
	}
	if timeout <= 0 {
		defer finished()
		return callAction(ctx, name, action)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value any
		err   error
	}
	// Buffered so an abandoned action can still deliver and exit
	done := make(chan result, 1)
	go func() {
		v, err := callAction(ctx, name, action)
		finished()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrapf(errors.ErrTaskTimeout, "task %q exceeded %s", name, timeout)
		}
		return nil, errors.Wrapf(ctx.Err(), "task %q cancelled", name)
	}
}

func callAction(ctx context.Context, name string, action Action) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("task %q panicked: %v", name, r)
		}
	}()
	return action(ctx)
}
