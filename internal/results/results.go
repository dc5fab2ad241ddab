// Package results records trial outcomes and keeps running per-phase statistics.
package results

import (
	"github.com/montanaflynn/stats"

	"github.com/verte-zerg/simonrt/internal/model"
)

// Log is the ordered record of every resolved trial of a run.
type Log struct {
	outcomes []model.TrialOutcome
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Outcomes returns a copy of the recorded outcomes in order.
func (l *Log) Outcomes() []model.TrialOutcome {
	out := make([]model.TrialOutcome, len(l.outcomes))
	copy(out, l.outcomes)
	return out
}

// Len returns the number of recorded outcomes.
func (l *Log) Len() int {
	return len(l.outcomes)
}

// RunningStats accumulates per-phase counters.
type RunningStats struct {
	CorrectCount     int
	SumRTCongruent   float64
	SumRTIncongruent float64
	Timeouts         int

	rtCongruent   []float64
	rtIncongruent []float64
}

// Summary is what a phase reports once it is over.
type Summary struct {
	Phase             model.Phase
	MeanRTCongruent   float64
	MeanRTIncongruent float64
	CorrectCount      int
	Total             int
	Recorded          int
	Timeouts          int

	// Means and medians over trials that actually had a response.
	RespondedMeanRTCongruent   float64
	RespondedMeanRTIncongruent float64
	MedianRTCongruent          float64
	MedianRTIncongruent        float64
}

// Accuracy returns the share of correct answers among all phase trials.
func (s Summary) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.Total)
}

// Effect is the incongruent minus congruent mean latency in seconds.
func (s Summary) Effect() float64 {
	return s.MeanRTIncongruent - s.MeanRTCongruent
}

// Aggregator is the single writer of the log and of one phase's statistics.
type Aggregator struct {
	log      *Log
	phase    model.Phase
	stats    RunningStats
	recorded int
}

// NewAggregator starts fresh statistics for phase, appending into log.
func NewAggregator(log *Log, phase model.Phase) *Aggregator {
	return &Aggregator{log: log, phase: phase}
}

// Record appends the outcome and updates the running statistics.
func (a *Aggregator) Record(o model.TrialOutcome) {
	a.log.outcomes = append(a.log.outcomes, o)
	a.recorded++
	if o.Correct {
		a.stats.CorrectCount++
	}
	if o.TimedOut() {
		a.stats.Timeouts++
		return
	}
	if o.Variant.Congruent() {
		a.stats.SumRTCongruent += o.ReactionTime
		a.stats.rtCongruent = append(a.stats.rtCongruent, o.ReactionTime)
		return
	}
	a.stats.SumRTIncongruent += o.ReactionTime
	a.stats.rtIncongruent = append(a.stats.rtIncongruent, o.ReactionTime)
}

// Stats returns the running counters.
func (a *Aggregator) Stats() RunningStats {
	return a.stats
}

// Summarize divides each latency sum by half the phase's trial count. The
// phase is assumed to hold equally many congruent and incongruent trials.
func (a *Aggregator) Summarize() Summary {
	s := Summary{
		Phase:        a.phase,
		CorrectCount: a.stats.CorrectCount,
		Total:        a.phase.Trials,
		Recorded:     a.recorded,
		Timeouts:     a.stats.Timeouts,
	}
	half := float64(a.phase.Trials) / 2
	if half > 0 {
		s.MeanRTCongruent = a.stats.SumRTCongruent / half
		s.MeanRTIncongruent = a.stats.SumRTIncongruent / half
	}
	s.RespondedMeanRTCongruent = meanOrZero(a.stats.rtCongruent)
	s.RespondedMeanRTIncongruent = meanOrZero(a.stats.rtIncongruent)
	s.MedianRTCongruent = medianOrZero(a.stats.rtCongruent)
	s.MedianRTIncongruent = medianOrZero(a.stats.rtIncongruent)
	return s
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

func medianOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Median(values)
	if err != nil {
		return 0
	}
	return m
}
