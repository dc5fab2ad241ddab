// Package trial runs a single trial as a tick-driven state machine:
// fixation, stimulus with response capture, fallback response window,
// resolution, feedback and inter-trial jitter.
package trial

import (
	"math/rand"

	"github.com/verte-zerg/simonrt/internal/clock"
	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/screen"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

// State is a step of the trial state machine.
type State int

const (
	StateFixation State = iota
	StateStimulus
	StateFallbackWait
	StateResolved
	StateFeedback
	StateJitter
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFixation:
		return "fixation"
	case StateStimulus:
		return "stimulus"
	case StateFallbackWait:
		return "fallback_wait"
	case StateResolved:
		return "resolved"
	case StateFeedback:
		return "feedback"
	case StateJitter:
		return "jitter"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Recorder receives each resolved outcome exactly once.
type Recorder interface {
	Record(outcome model.TrialOutcome)
}

// Trial is one scheduled trial of a phase.
type Trial struct {
	Spec          model.TrialSpec
	Phase         model.Phase
	Index         int
	TrialNo       int
	ParticipantID string
}

// Response is the captured key and its latency in seconds, or NoKey and -1.
type Response struct {
	Key          stimulus.Key
	ReactionTime float64
}

// Options configures a Runner.
type Options struct {
	Driver   *clock.Driver
	Surface  screen.Surface
	Input    screen.Input
	Clock    *clock.ReactionClock
	Timing   model.Timing
	Keys     stimulus.KeyMap
	Rand     *rand.Rand
	OnState  func(State)
	Feedback FeedbackText
}

// FeedbackText holds the messages shown after a response.
type FeedbackText struct {
	Correct   string
	Incorrect string
}

// Runner executes trials.
type Runner struct {
	driver   *clock.Driver
	surface  screen.Surface
	input    screen.Input
	clock    *clock.ReactionClock
	timing   model.Timing
	keys     stimulus.KeyMap
	rnd      *rand.Rand
	onState  func(State)
	feedback FeedbackText
}

// NewRunner builds a Runner from opts.
func NewRunner(opts Options) *Runner {
	rc := opts.Clock
	if rc == nil {
		rc = clock.NewReactionClock(nil)
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &Runner{
		driver:   opts.Driver,
		surface:  opts.Surface,
		input:    opts.Input,
		clock:    rc,
		timing:   opts.Timing,
		keys:     opts.Keys,
		rnd:      rnd,
		onState:  opts.OnState,
		feedback: opts.Feedback,
	}
}

// Run executes t end to end. On clock.ErrAborted nothing is recorded unless
// the trial had already resolved.
func (r *Runner) Run(t Trial, rec Recorder) (model.TrialOutcome, error) {
	r.enter(StateFixation)
	if err := r.driver.AwaitTicks(r.timing.FixationTicks, func(int) {
		r.surface.Draw(screen.Frame{Kind: screen.FrameFixation})
	}); err != nil {
		return model.TrialOutcome{}, err
	}

	resp, captured, err := r.present(t.Spec)
	if err != nil {
		return model.TrialOutcome{}, err
	}
	if !captured {
		resp, err = r.fallback()
		if err != nil {
			return model.TrialOutcome{}, err
		}
	}

	r.enter(StateResolved)
	if err := r.driver.CheckAbort(); err != nil {
		return model.TrialOutcome{}, err
	}
	outcome := model.TrialOutcome{
		ParticipantID: t.ParticipantID,
		Phase:         t.Phase.Kind,
		Block:         t.Phase.Block,
		TrialIndex:    t.Index,
		TrialNo:       t.TrialNo,
		Variant:       t.Spec.Variant,
		CorrectKey:    t.Spec.CorrectKey,
		KeyPressed:    resp.Key,
		ReactionTime:  resp.ReactionTime,
		Correct:       resp.Key != stimulus.NoKey && resp.Key == t.Spec.CorrectKey,
	}
	if rec != nil {
		rec.Record(outcome)
	}

	if t.Phase.Feedback {
		r.enter(StateFeedback)
		frame := screen.Frame{Kind: screen.FrameFeedback, Correct: outcome.Correct, Text: r.feedback.Incorrect}
		if outcome.Correct {
			frame.Text = r.feedback.Correct
		}
		if err := r.driver.AwaitTicks(r.timing.FeedbackTicks, func(int) {
			r.surface.Draw(frame)
		}); err != nil {
			return outcome, err
		}
	}

	r.enter(StateJitter)
	if err := r.driver.AwaitTicks(r.jitterTicks(), nil); err != nil {
		return outcome, err
	}
	r.enter(StateDone)
	return outcome, nil
}

// present shows the stimulus and returns the first qualifying key seen on a tick.
func (r *Runner) present(spec model.TrialSpec) (Response, bool, error) {
	r.enter(StateStimulus)
	keys := r.keys.Keys()
	frame := screen.Frame{Kind: screen.FrameStimulus, Variant: spec.Variant}
	r.input.Clear()

	var resp Response
	captured := false
	_, err := r.driver.AwaitUntil(r.timing.StimulusTicks, func(tick int) bool {
		if tick == 0 {
			r.clock.Reset()
		}
		if presses := r.input.Poll(keys); len(presses) > 0 {
			resp = Response{Key: presses[0].Key, ReactionTime: r.clock.Seconds(presses[0].At)}
			captured = true
			return true
		}
		r.surface.Draw(frame)
		return false
	})
	return resp, captured, err
}

// fallback blanks the screen and waits out the response window.
func (r *Runner) fallback() (Response, error) {
	r.enter(StateFallbackWait)
	if err := r.driver.CheckAbort(); err != nil {
		return Response{}, err
	}
	r.driver.Flip()
	press, ok := r.input.Wait(r.keys.Keys(), r.timing.TickDuration(r.timing.ResponseTicks))
	if !ok {
		return Response{Key: stimulus.NoKey, ReactionTime: -1.0}, nil
	}
	return Response{Key: press.Key, ReactionTime: r.clock.Seconds(press.At)}, nil
}

func (r *Runner) jitterTicks() int {
	lo, hi := r.timing.JitterMinTicks, r.timing.JitterMaxTicks
	if hi <= lo {
		return lo
	}
	return lo + r.rnd.Intn(hi-lo+1)
}

func (r *Runner) enter(s State) {
	if r.onState != nil {
		r.onState(s)
	}
}
