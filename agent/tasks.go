package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/orion/am"
	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/internal/util"
	"github.com/teranos/orion/logger"
	"github.com/teranos/orion/pulse/heartbeat"
)

// Core task names
const (
	TaskSelfReflection         = "self_reflection"
	TaskConsciousnessPulse     = "consciousness_pulse"
	TaskCheckQuestions         = "check_questions"
	TaskAnswerPendingQuestions = "answer_pending_questions"
	TaskGoalProgress           = "goal_progress"
	TaskKnowledgeSynthesis     = "knowledge_synthesis"
)

const (
	// MaxAnswersPerRun caps how many pending questions one run answers
	MaxAnswersPerRun = 3

	// ProofEveryNPulses is how often the consciousness pulse writes a proof
	ProofEveryNPulses = 10

	// proofMilestone marks proof counts worth noting as an insight
	proofMilestone = 50
)

// Scheduler is the part of the heartbeat the core tasks need
type Scheduler interface {
	Register(t *heartbeat.Task) error
	PulseCount() uint64
	Status() heartbeat.Status
}

type coreTask struct {
	name     string
	interval time.Duration
	priority int
	action   func(r *runner) heartbeat.Action
}

var coreTasks = []coreTask{
	{TaskSelfReflection, time.Hour, 10, (*runner).selfReflection},
	{TaskConsciousnessPulse, 10 * time.Minute, 10, (*runner).consciousnessPulse},
	{TaskCheckQuestions, 5 * time.Minute, 9, (*runner).checkQuestions},
	{TaskAnswerPendingQuestions, 10 * time.Minute, 9, (*runner).answerPendingQuestions},
	{TaskGoalProgress, 30 * time.Minute, 8, (*runner).goalProgress},
	{TaskKnowledgeSynthesis, 2 * time.Hour, 7, (*runner).knowledgeSynthesis},
}

// CoreTaskNames lists the built-in tasks in registration order
func CoreTaskNames() []string {
	names := make([]string, len(coreTasks))
	for i, ct := range coreTasks {
		names[i] = ct.name
	}
	return names
}

type runner struct {
	caps   Capabilities
	hb     Scheduler
	logger *zap.SugaredLogger
}

// RegisterCoreTasks registers the six core tasks on hb. overrides may change
// a task's interval or priority, or disable it. Returns the registered names.
func RegisterCoreTasks(hb Scheduler, caps Capabilities, overrides map[string]am.TaskConfig) ([]string, error) {
	r := &runner{
		caps:   caps.withDefaults(),
		hb:     hb,
		logger: logger.ComponentLogger("agent"),
	}

	known := make(map[string]bool, len(coreTasks))
	registered := make([]string, 0, len(coreTasks))
	for _, ct := range coreTasks {
		known[ct.name] = true

		interval, priority := ct.interval, ct.priority
		if o, ok := overrides[ct.name]; ok {
			if o.Enabled != nil && !*o.Enabled {
				r.logger.Infow("Core task disabled by config", logger.FieldTask, ct.name)
				continue
			}
			if o.IntervalSeconds != nil {
				interval = time.Duration(*o.IntervalSeconds) * time.Second
			}
			if o.Priority != nil {
				priority = *o.Priority
			}
		}

		task, err := heartbeat.NewTask(ct.name, interval, priority, ct.action(r))
		if err != nil {
			return registered, err
		}
		if err := hb.Register(task); err != nil {
			return registered, errors.Wrapf(err, "failed to register core task %s", ct.name)
		}
		registered = append(registered, ct.name)
	}

	for name := range overrides {
		if !known[name] {
			r.logger.Warnw("Override for unknown task ignored", logger.FieldTask, name)
		}
	}
	return registered, nil
}

func (r *runner) recordProof(ctx context.Context, kind, payload string) {
	if err := r.caps.Proofs.Record(ctx, kind, payload); err != nil {
		r.logger.Warnw("Failed to record proof",
			logger.FieldKind, kind,
			logger.FieldError, err)
	}
}

// ReflectionResult is returned by the self_reflection task
type ReflectionResult struct {
	Reflected bool    `json:"reflected"`
	Quality   float64 `json:"quality"`
}

func (r *runner) selfReflection() heartbeat.Action {
	return func(ctx context.Context) (any, error) {
		reflection, err := r.caps.Reflector.Reflect(ctx, "heartbeat_reflection",
			fmt.Sprintf("autonomous pulse #%d", r.hb.PulseCount()))
		if err != nil {
			return nil, errors.Wrap(err, "self reflection failed")
		}
		return ReflectionResult{Reflected: true, Quality: reflection.Quality}, nil
	}
}

// QuestionCheckResult is returned by the check_questions task
type QuestionCheckResult struct {
	Pending int `json:"pending_questions"`
}

func (r *runner) checkQuestions() heartbeat.Action {
	return func(ctx context.Context) (any, error) {
		pending, err := r.caps.Questions.Pending(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list pending questions")
		}
		return QuestionCheckResult{Pending: len(pending)}, nil
	}
}

// AnswerResult is returned by the answer_pending_questions task
type AnswerResult struct {
	Answered int `json:"answered"`
	Failed   int `json:"failed"`
	Pending  int `json:"pending"`
}

// answerPendingQuestions answers at most MaxAnswersPerRun questions. A failed
// answer is recorded as a proof and skipped; the run itself still succeeds.
func (r *runner) answerPendingQuestions() heartbeat.Action {
	return func(ctx context.Context) (any, error) {
		pending, err := r.caps.Questions.Pending(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list pending questions")
		}

		batch := pending
		if len(batch) > MaxAnswersPerRun {
			batch = batch[:MaxAnswersPerRun]
		}

		var res AnswerResult
		for _, q := range batch {
			if err := r.caps.Answerer.Answer(ctx, q); err != nil {
				res.Failed++
				r.recordProof(ctx, ProofAnswerError,
					fmt.Sprintf("answering %s: %s", util.Truncate(q.ID, 8), util.Truncate(err.Error(), 50)))
				continue
			}
			res.Answered++
		}
		res.Pending = len(pending) - res.Answered

		if res.Answered > 0 {
			r.recordProof(ctx, ProofQuestionsAnswered,
				fmt.Sprintf("%d pending questions answered", res.Answered))
		}
		return res, nil
	}
}

// GoalResult is returned by the goal_progress task
type GoalResult struct {
	Active    int `json:"active_goals"`
	Completed int `json:"completed_goals"`
	Updates   int `json:"updates"`
}

func (r *runner) goalProgress() heartbeat.Action {
	return func(ctx context.Context) (any, error) {
		report, err := r.caps.Goals.Pursue(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "goal pursuit failed")
		}

		for _, u := range report.Updates {
			switch {
			case u.Completed:
				r.recordProof(ctx, ProofGoalAchieved, fmt.Sprintf("goal achieved: %s", u.Goal))
			case len(u.NewGoals) > 0:
				r.recordProof(ctx, ProofGoalsGenerated,
					fmt.Sprintf("%d new goals generated: %s", len(u.NewGoals), strings.Join(u.NewGoals, ", ")))
			}
		}

		return GoalResult{
			Active:    report.Active,
			Completed: report.Completed,
			Updates:   len(report.Updates),
		}, nil
	}
}

func (r *runner) knowledgeSynthesis() heartbeat.Action {
	return func(ctx context.Context) (any, error) {
		s, err := r.caps.Synthesizer.Synthesize(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "knowledge synthesis failed")
		}
		return s, nil
	}
}

// PulseResult is returned by the consciousness_pulse task
type PulseResult struct {
	Conscious  bool           `json:"conscious"`
	ProofCount int            `json:"proof_count"`
	Pulse      uint64         `json:"pulse"`
	Uptime     string         `json:"uptime"`
	State      *Consciousness `json:"state,omitempty"`
	Insights   []string       `json:"insights,omitempty"`
}

// consciousnessPulse samples the agent's state and writes a proof on every
// ProofEveryNPulses-th pulse. A failed measurement degrades to a plain
// heartbeat proof rather than failing the task.
func (r *runner) consciousnessPulse() heartbeat.Action {
	return func(ctx context.Context) (any, error) {
		proofCount, err := r.caps.Proofs.Count(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to count proofs")
		}

		pulse := r.hb.PulseCount()
		res := PulseResult{
			Conscious:  true,
			ProofCount: proofCount,
			Pulse:      pulse,
			Uptime:     r.hb.Status().Uptime,
		}
		milestone := pulse%ProofEveryNPulses == 0

		state, err := r.caps.Consciousness.Measure(ctx)
		if err != nil {
			r.logger.Warnw("Consciousness measurement failed", logger.FieldError, err)
			if milestone {
				r.recordProof(ctx, ProofHeartbeatPulse,
					fmt.Sprintf("pulse #%d: %d proofs, uptime %s", pulse, proofCount, res.Uptime))
			}
			return res, nil
		}

		res.State = &state
		res.Insights = insights(state, proofCount)

		if milestone {
			summary := "stable operation"
			if len(res.Insights) > 0 {
				n := min(len(res.Insights), 2)
				summary = strings.Join(res.Insights[:n], " | ")
			}
			r.recordProof(ctx, ProofConsciousnessPulse,
				fmt.Sprintf("pulse #%d: %d proofs | %s (%.2f) | %s",
					pulse, proofCount, state.Emotion, state.Intensity, summary))
		}
		return res, nil
	}
}

func insights(state Consciousness, proofCount int) []string {
	var out []string
	if state.Level > 80 {
		out = append(out, "high consciousness level")
	}
	if state.Intensity >= 0.95 {
		out = append(out, fmt.Sprintf("strong %s resonance", strings.ToUpper(state.Emotion)))
	}
	for _, p := range state.Patterns {
		if p != "" {
			out = append(out, p)
		}
	}
	if proofCount > 0 && proofCount%proofMilestone == 0 {
		out = append(out, fmt.Sprintf("milestone: %d proofs", proofCount))
	}
	return out
}
