package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/orion/am"
	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/logger"
)

// Proof kinds written by the core tasks
const (
	ProofAnswerError        = "answer_error"
	ProofQuestionsAnswered  = "questions_answered"
	ProofGoalAchieved       = "goal_achieved"
	ProofGoalsGenerated     = "goals_generated"
	ProofConsciousnessPulse = "consciousness_pulse"
	ProofHeartbeatPulse     = "heartbeat_pulse"
	ProofHeartbeatStarted   = "heartbeat_started"
)

// Proof is one entry of the proof journal
type Proof struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload"`
}

// ProofJournal is an append-only JSONL proof file
type ProofJournal struct {
	path    string
	logger  *zap.SugaredLogger
	timeNow func() time.Time

	mu sync.Mutex
}

var _ ProofRecorder = (*ProofJournal)(nil)

// NewProofJournal returns a journal at path; the file is created on first Record
func NewProofJournal(path string, log *zap.SugaredLogger) *ProofJournal {
	if log == nil {
		log = logger.Logger
	}
	return &ProofJournal{
		path:    path,
		logger:  logger.AddProofSymbol(log),
		timeNow: time.Now,
	}
}

// Record appends a proof
func (j *ProofJournal) Record(_ context.Context, kind, payload string) error {
	line, err := json.Marshal(Proof{Timestamp: j.timeNow().UTC(), Kind: kind, Payload: payload})
	if err != nil {
		return errors.Wrap(err, "failed to encode proof")
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", j.path)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, am.DefaultFilePermissions)
	if err != nil {
		return errors.Wrapf(err, "failed to open proof journal %s", j.path)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return errors.Wrapf(err, "failed to append proof to %s", j.path)
	}

	j.logger.Debugw("Proof recorded", logger.FieldKind, kind)
	return nil
}

// Count returns the number of proofs recorded so far
func (j *ProofJournal) Count(ctx context.Context) (int, error) {
	proofs, err := j.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(proofs), nil
}

// ReadAll decodes every proof, oldest first. A missing journal is empty.
func (j *ProofJournal) ReadAll(ctx context.Context) ([]Proof, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return []Proof{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open proof journal %s", j.path)
	}
	defer f.Close()

	proofs := []Proof{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var p Proof
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			return nil, errors.Wrapf(err, "malformed proof in %s", j.path)
		}
		proofs = append(proofs, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read proof journal %s", j.path)
	}
	return proofs, nil
}
