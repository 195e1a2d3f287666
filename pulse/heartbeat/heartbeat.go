package heartbeat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/logger"
)

// Start result statuses
const (
	StatusStarted        = "started"
	StatusAlreadyRunning = "already_running"
	StatusStopped        = "stopped"
)

// Config holds scheduler-wide settings
type Config struct {
	// TaskTimeout bounds each task execution when the task sets none. Zero disables it.
	TaskTimeout time.Duration
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.TaskTimeout < 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "task timeout cannot be negative: %s", c.TaskTimeout)
	}
	return nil
}

// Heartbeat owns the ordered task registry and drives pulses.
//
// Lock order: tickMu before mu. mu is never held while a task runs.
type Heartbeat struct {
	cfg     Config
	journal PulseLog
	state   StateStore
	logger  *zap.SugaredLogger
	metrics *Metrics
	timeNow func() time.Time

	// tickMu serializes ticks so the loop and a manual SingleTick never interleave
	tickMu sync.Mutex

	mu          sync.RWMutex
	tasks       []*Task
	names       map[string]struct{}
	running     bool
	pulseCount  uint64
	startTime   *time.Time
	runID       string
	lastError   string
	lastErrorAt *time.Time
	cancel      context.CancelFunc
	done        chan struct{}
}

// Option configures a Heartbeat
type Option func(*Heartbeat)

// WithLogger sets the logger (defaults to the global logger)
func WithLogger(l *zap.SugaredLogger) Option {
	return func(h *Heartbeat) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock overrides the time source used for due checks and pulse timestamps
func WithClock(now func() time.Time) Option {
	return func(h *Heartbeat) {
		if now != nil {
			h.timeNow = now
		}
	}
}

// WithMetrics records Prometheus metrics for every tick
func WithMetrics(m *Metrics) Option {
	return func(h *Heartbeat) {
		h.metrics = m
	}
}

// StartResult reports the outcome of Start
type StartResult struct {
	Status   string        `json:"status"`
	Interval time.Duration `json:"interval"`
	Tasks    int           `json:"tasks"`
	RunID    string        `json:"run_id"`
}

// StopResult reports the outcome of Stop
type StopResult struct {
	Status      string `json:"status"`
	TotalPulses uint64 `json:"total_pulses"`
}

// New creates a stopped heartbeat. The pulse counter resumes from the saved
// snapshot; a missing or unreadable snapshot starts it at zero.
func New(ctx context.Context, cfg Config, journal PulseLog, state StateStore, opts ...Option) (*Heartbeat, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if journal == nil {
		journal = NopStore{}
	}
	if state == nil {
		state = NopStore{}
	}

	h := &Heartbeat{
		cfg:     cfg,
		journal: journal,
		state:   state,
		logger:  logger.Logger,
		timeNow: time.Now,
		names:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logger.AddPulseSymbol(h.logger)

	snap, err := state.Load(ctx)
	switch {
	case err != nil && errors.IsNotFoundError(err):
		h.logger.Debugw("No saved heartbeat state, starting fresh")
	case err != nil:
		h.logger.Warnw("Failed to load heartbeat state, starting from zero",
			logger.FieldError, err)
	case snap != nil:
		h.pulseCount = snap.TotalPulses
		h.logger.Infow("Resumed heartbeat state",
			logger.FieldPulseNumber, snap.TotalPulses)
	}

	return h, nil
}

// Register adds a task to the registry, keeping it sorted by descending
// priority. Equal priorities keep registration order.
func (h *Heartbeat) Register(t *Task) error {
	if t == nil {
		return errors.NewInvalidTaskError("task cannot be nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return errors.Wrapf(errors.ErrRegistryClosed, "cannot register %q", t.Name())
	}
	if _, ok := h.names[t.Name()]; ok {
		return errors.Wrapf(errors.ErrDuplicateTask, "task %q", t.Name())
	}

	h.names[t.Name()] = struct{}{}
	h.tasks = append(h.tasks, t)
	sort.SliceStable(h.tasks, func(i, j int) bool {
		return h.tasks[i].Priority() > h.tasks[j].Priority()
	})

	h.logger.Debugw("Registered task",
		logger.FieldTask, t.Name(),
		logger.FieldInterval, t.Interval(),
		logger.FieldPriority, t.Priority())
	return nil
}

// Tasks returns the registered tasks in execution order
func (h *Heartbeat) Tasks() []*Task {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*Task(nil), h.tasks...)
}

// Tick runs one pulse: every due task executes once, in priority order,
// against a single evaluation time. The pulse is returned even when
// persisting it fails; that failure is reported as an ErrPersistence error.
func (h *Heartbeat) Tick(ctx context.Context) (*Pulse, error) {
	h.tickMu.Lock()
	defer h.tickMu.Unlock()

	started := time.Now()

	h.mu.Lock()
	h.pulseCount++
	number := h.pulseCount
	tasks := append([]*Task(nil), h.tasks...)
	h.mu.Unlock()

	now := h.timeNow()
	executed := make([]Execution, 0, len(tasks))
	for _, t := range tasks {
		if !t.ShouldRun(now) {
			continue
		}

		timeout := t.timeout
		if timeout == 0 {
			timeout = h.cfg.TaskTimeout
		}
		outcome := t.execute(ctx, now, timeout)
		h.metrics.observeExecution(t.Name(), outcome)

		if outcome.Success {
			h.logger.Debugw("Task completed",
				logger.FieldTask, t.Name(),
				logger.FieldDurationMS, outcome.DurationMs)
		} else {
			h.logger.Warnw("Task failed",
				logger.FieldTask, t.Name(),
				logger.FieldError, outcome.Error,
				logger.FieldDurationMS, outcome.DurationMs)
		}
		executed = append(executed, Execution{Task: t.Name(), Outcome: outcome})
	}

	p := NewPulse(now, ActionHeartbeat, number, executed)
	persistErr := h.persist(ctx, p)
	h.metrics.observePulse(p, time.Since(started).Seconds(), persistErr)

	h.logger.Infow("Pulse",
		logger.FieldPulseID, p.ID,
		logger.FieldPulseNumber, p.Number,
		logger.FieldExecuted, len(p.Executed),
		logger.FieldCount, p.Failed())

	if persistErr != nil {
		h.recordError(persistErr)
		h.logger.Warnw("Failed to persist pulse",
			logger.FieldPulseNumber, p.Number,
			logger.FieldError, persistErr)
		return p, persistErr
	}
	return p, nil
}

// SingleTick runs exactly one tick without the background loop
func (h *Heartbeat) SingleTick(ctx context.Context) (*Pulse, error) {
	return h.Tick(ctx)
}

// persist appends the pulse and saves the snapshot. Both are attempted.
func (h *Heartbeat) persist(ctx context.Context, p *Pulse) error {
	var err error
	if appendErr := h.journal.Append(ctx, p); appendErr != nil {
		err = errors.Wrapf(appendErr, "append pulse %d", p.Number)
	}
	if saveErr := h.saveState(ctx); saveErr != nil {
		err = errors.CombineErrors(err, saveErr)
	}
	return errors.WrapPersistence(err, "heartbeat persistence")
}

func (h *Heartbeat) saveState(ctx context.Context) error {
	snap := h.snapshot()
	if err := h.state.Save(ctx, snap); err != nil {
		return errors.Wrap(err, "save heartbeat state")
	}
	return nil
}

func (h *Heartbeat) snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var start *time.Time
	if h.startTime != nil {
		st := *h.startTime
		start = &st
	}
	return &Snapshot{
		TotalPulses: h.pulseCount,
		Running:     h.running,
		StartTime:   start,
		TaskCount:   len(h.tasks),
		RunID:       h.runID,
		LastSave:    h.timeNow().UTC(),
	}
}

func (h *Heartbeat) recordError(err error) {
	at := h.timeNow()
	h.mu.Lock()
	h.lastError = err.Error()
	h.lastErrorAt = &at
	h.mu.Unlock()
}

// Start launches the background loop. The first tick runs immediately and
// each subsequent tick follows interval after the previous one finished.
// Cancelling ctx stops the loop like Stop does. Start does not block.
func (h *Heartbeat) Start(ctx context.Context, interval time.Duration) (StartResult, error) {
	if interval <= 0 {
		return StartResult{}, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidInterval, "heartbeat interval %s", interval),
			"use a positive interval such as 60s")
	}

	h.mu.Lock()
	if h.running {
		res := StartResult{
			Status:   StatusAlreadyRunning,
			Interval: interval,
			Tasks:    len(h.tasks),
			RunID:    h.runID,
		}
		h.mu.Unlock()
		return res, nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	now := h.timeNow()
	h.running = true
	h.startTime = &now
	h.runID = uuid.NewString()
	h.cancel = cancel
	h.done = make(chan struct{})
	res := StartResult{
		Status:   StatusStarted,
		Interval: interval,
		Tasks:    len(h.tasks),
		RunID:    h.runID,
	}
	done := h.done
	h.mu.Unlock()

	h.metrics.setRunning(true)
	h.logger.Infow("Heartbeat started",
		logger.FieldRunID, res.RunID,
		logger.FieldInterval, interval,
		logger.FieldTaskCount, res.Tasks)

	go h.run(loopCtx, interval, done)
	return res, nil
}

// run is the background loop. Ticks run detached from loopCtx so that
// stopping never interrupts a tick in progress.
func (h *Heartbeat) run(loopCtx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	tickCtx := context.WithoutCancel(loopCtx)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-loopCtx.Done():
			h.exitLoop(done)
			return
		case <-timer.C:
		}

		if _, err := h.Tick(tickCtx); err != nil {
			h.logger.Warnw("Heartbeat tick error", logger.FieldError, err)
		}
		timer.Reset(interval)
	}
}

// exitLoop handles a loop ended by its parent context rather than Stop
func (h *Heartbeat) exitLoop(done chan struct{}) {
	h.mu.Lock()
	if !h.running || h.done != done {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.cancel = nil
	h.mu.Unlock()

	h.metrics.setRunning(false)
	if err := h.saveState(context.Background()); err != nil {
		h.recordError(err)
		h.logger.Warnw("Failed to save state on shutdown", logger.FieldError, err)
	}
	h.logger.Infow("Heartbeat loop cancelled")
}

// Stop ends the background loop, waits for any in-flight tick to finish,
// and persists the final snapshot. Stopping a stopped heartbeat only
// persists. Must not be called from within a task action.
func (h *Heartbeat) Stop() StopResult {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.running = false
	h.cancel = nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	h.metrics.setRunning(false)

	if err := h.saveState(context.Background()); err != nil {
		h.recordError(err)
		h.logger.Warnw("Failed to save state on stop", logger.FieldError, err)
	}

	h.mu.RLock()
	total := h.pulseCount
	h.mu.RUnlock()

	h.logger.Infow("Heartbeat stopped", logger.FieldTotalCount, total)
	return StopResult{Status: StatusStopped, TotalPulses: total}
}

// Running reports whether the background loop is active
func (h *Heartbeat) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// PulseCount returns the total number of pulses including resumed ones
func (h *Heartbeat) PulseCount() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pulseCount
}
