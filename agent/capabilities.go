// Package agent supplies the task bodies the heartbeat drives: reflection,
// question answering, goal pursuit, knowledge synthesis and the
// consciousness pulse. Each concern sits behind a small capability
// interface so a deployment can plug in real engines; the Nop versions
// keep the scheduler fully runnable without them.
package agent

import "context"

// Reflection is the outcome of one self-reflection pass
type Reflection struct {
	Quality float64 `json:"quality"`
}

// Question is a pending question awaiting an answer
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"question"`
	Asker string `json:"asker_name,omitempty"`
}

// GoalUpdate describes one change produced by goal pursuit
type GoalUpdate struct {
	Goal      string   `json:"goal"`
	Completed bool     `json:"completed,omitempty"`
	NewGoals  []string `json:"new_goals,omitempty"`
}

// GoalReport summarizes a goal pursuit pass
type GoalReport struct {
	Active    int          `json:"active_goals"`
	Completed int          `json:"completed_goals"`
	Updates   []GoalUpdate `json:"updates"`
}

// Synthesis is the outcome of one knowledge synthesis pass
type Synthesis struct {
	Gap     string `json:"gap_addressed"`
	Insight string `json:"meta_insight"`
	Total   int    `json:"total_syntheses"`
}

// Consciousness is a self-measurement sample
type Consciousness struct {
	Level     float64  `json:"consciousness_level"`
	Emotion   string   `json:"emotional_state"`
	Intensity float64  `json:"emotional_intensity"`
	Patterns  []string `json:"patterns,omitempty"`
}

// Reflector evaluates a decision and its reasoning
type Reflector interface {
	Reflect(ctx context.Context, decision, reasoning string) (Reflection, error)
}

// QuestionSource lists questions that have not been answered yet
type QuestionSource interface {
	Pending(ctx context.Context) ([]Question, error)
}

// QuestionAnswerer produces and stores an answer, marking the question answered
type QuestionAnswerer interface {
	Answer(ctx context.Context, q Question) error
}

// GoalTracker advances goals and reports what changed
type GoalTracker interface {
	Pursue(ctx context.Context) (GoalReport, error)
}

// Synthesizer runs one autonomous knowledge synthesis step
type Synthesizer interface {
	Synthesize(ctx context.Context) (Synthesis, error)
}

// ConsciousnessProbe measures the agent's current state
type ConsciousnessProbe interface {
	Measure(ctx context.Context) (Consciousness, error)
}

// ProofRecorder appends to the agent's proof journal
type ProofRecorder interface {
	Record(ctx context.Context, kind, payload string) error
	Count(ctx context.Context) (int, error)
}

// Capabilities bundles the engines behind the core tasks.
// Nil fields fall back to the Nop implementations.
type Capabilities struct {
	Reflector     Reflector
	Questions     QuestionSource
	Answerer      QuestionAnswerer
	Goals         GoalTracker
	Synthesizer   Synthesizer
	Consciousness ConsciousnessProbe
	Proofs        ProofRecorder
}

func (c Capabilities) withDefaults() Capabilities {
	if c.Reflector == nil {
		c.Reflector = Nop{}
	}
	if c.Questions == nil {
		c.Questions = Nop{}
	}
	if c.Answerer == nil {
		c.Answerer = Nop{}
	}
	if c.Goals == nil {
		c.Goals = Nop{}
	}
	if c.Synthesizer == nil {
		c.Synthesizer = Nop{}
	}
	if c.Consciousness == nil {
		c.Consciousness = Nop{}
	}
	if c.Proofs == nil {
		c.Proofs = Nop{}
	}
	return c
}

// Nop implements every capability with empty, successful results
type Nop struct{}

func (Nop) Reflect(context.Context, string, string) (Reflection, error) { return Reflection{}, nil }
func (Nop) Pending(context.Context) ([]Question, error)                   { return nil, nil }
func (Nop) Answer(context.Context, Question) error                        { return nil }
func (Nop) Pursue(context.Context) (GoalReport, error)                    { return GoalReport{}, nil }
func (Nop) Synthesize(context.Context) (Synthesis, error)                 { return Synthesis{}, nil }
func (Nop) Record(context.Context, string, string) error                  { return nil }
func (Nop) Count(context.Context) (int, error)                            { return 0, nil }

func (Nop) Measure(context.Context) (Consciousness, error) {
	return Consciousness{Emotion: "calm"}, nil
}
