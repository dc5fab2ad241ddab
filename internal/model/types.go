// Package model defines shared data structures.
package model

import (
	"strconv"
	"time"

	"github.com/verte-zerg/simonrt/internal/stimulus"
)

// Timing holds every duration already converted to display ticks.
type Timing struct {
	FrameRate        float64
	FixationTicks    int
	StimulusTicks    int
	ResponseTicks    int
	FeedbackTicks    int
	JitterMinTicks   int
	JitterMaxTicks   int
	InfoMaxWaitTicks int
}

// TickDuration converts a tick count into wall time at the configured frame rate.
func (t Timing) TickDuration(ticks int) time.Duration {
	if t.FrameRate <= 0 || ticks <= 0 {
		return 0
	}
	return time.Duration(float64(ticks) / t.FrameRate * float64(time.Second))
}

// Config is the resolved experiment configuration.
type Config struct {
	Timing            Timing
	TrainingTrials    int
	TrialsPerBlock    int
	Blocks            int
	MaxCongruentRun   int
	Keys              stimulus.KeyMap
	AbortKey          stimulus.Key
	QuitInfoKey       stimulus.Key
	FeedbackCorrect   string
	FeedbackIncorrect string
	FeedbackInBlocks  bool
	ResultsDir        string
	MessagesDir       string
	Seed              int64
}

// Participant identifies the person running the task.
type Participant struct {
	ID  string
	Sex string
	Age string
}

// PartID joins the participant fields the way result files are named.
func (p Participant) PartID() string {
	return p.ID + p.Sex + p.Age
}

// PhaseKind distinguishes training from main-experiment blocks.
type PhaseKind string

const (
	PhaseTraining PhaseKind = "training"
	PhaseBlock    PhaseKind = "block"
)

// Phase describes one contiguous run of trials sharing a generated order.
type Phase struct {
	Kind     PhaseKind
	Block    int
	Trials   int
	MaxRun   int
	Feedback bool
}

// Name returns a human-readable phase label.
func (p Phase) Name() string {
	if p.Kind == PhaseTraining {
		return "training"
	}
	return "block " + strconv.Itoa(p.Block+1)
}

// TrialSpec is one entry of a generated sequence.
type TrialSpec struct {
	Variant    stimulus.Variant
	CorrectKey stimulus.Key
}

// TrialOutcome is the immutable record of a resolved trial.
type TrialOutcome struct {
	ParticipantID string
	Phase         PhaseKind
	Block         int
	TrialIndex    int
	TrialNo       int
	Variant       stimulus.Variant
	CorrectKey    stimulus.Key
	KeyPressed    stimulus.Key
	ReactionTime  float64
	Correct       bool
}

// TimedOut reports whether no qualifying key arrived in time.
func (o TrialOutcome) TimedOut() bool {
	return o.KeyPressed == stimulus.NoKey
}

// Session captures a finished or aborted run.
type Session struct {
	ID          string
	Participant Participant
	StartedAt   time.Time
	EndedAt     time.Time
	FrameRate   float64
	Seed        int64
	Aborted     bool
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID         string    `db:"id"`
	ParticipantID     string    `db:"participant_id"`
	EndedAt           time.Time `db:"-"`
	EndedAtRaw        string    `db:"ended_at"`
	Aborted           bool      `db:"aborted"`
	Trials            int       `db:"trials"`
	Correct           int       `db:"correct"`
	Timeouts          int       `db:"timeouts"`
	MeanRTCongruent   float64   `db:"mean_rt_congruent"`
	MeanRTIncongruent float64   `db:"mean_rt_incongruent"`
}

// HistoryConfig defines filters for the history report.
type HistoryConfig struct {
	Participant string
	Last        int
}

// TrialRecord is a stored trial joined with its session, used for export.
type TrialRecord struct {
	SessionID     string  `db:"session_id"`
	Seq           int     `db:"seq"`
	ParticipantID string  `db:"participant_id"`
	StartedAtRaw  string  `db:"started_at"`
	Phase         string  `db:"phase"`
	Block         int     `db:"block"`
	TrialIndex    int     `db:"trial_index"`
	TrialNo       int     `db:"trial_no"`
	Variant       string  `db:"variant"`
	Congruent     bool    `db:"congruent"`
	CorrectKey    string  `db:"correct_key"`
	KeyPressed    string  `db:"key_pressed"`
	ReactionTime  float64 `db:"reaction_time"`
	Correct       bool    `db:"correct"`
}

// TrialFilter selects stored trials for export.
type TrialFilter struct {
	Participant string
	SessionID   string
}
