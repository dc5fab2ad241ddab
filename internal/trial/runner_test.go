package trial

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/simonrt/internal/clock"
	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/screen"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

type scheduledPress struct {
	flip int
	key  stimulus.Key
	at   time.Time
}

type fakeInput struct {
	ticker    *clock.ManualTicker
	presses   []scheduledPress
	waitKey   stimulus.Key
	waitAfter time.Duration
	waitCalls []time.Duration
	abortAt   int
	aborted   bool
	abortWait bool
}

func (f *fakeInput) Clear() {}

func (f *fakeInput) Poll(keys []stimulus.Key) []screen.KeyPress {
	var out []screen.KeyPress
	var rest []scheduledPress
	for _, p := range f.presses {
		if p.flip > f.ticker.Flips() {
			rest = append(rest, p)
			continue
		}
		at := p.at
		if at.IsZero() {
			at = f.ticker.Now()
		}
		if contains(keys, p.key) {
			out = append(out, screen.KeyPress{Key: p.key, At: at})
		}
	}
	f.presses = rest
	return out
}

func (f *fakeInput) Wait(keys []stimulus.Key, max time.Duration) (screen.KeyPress, bool) {
	f.waitCalls = append(f.waitCalls, max)
	if f.waitKey != "" && f.waitAfter <= max {
		f.ticker.Advance(f.waitAfter)
		return screen.KeyPress{Key: f.waitKey, At: f.ticker.Now()}, true
	}
	f.ticker.Advance(max)
	if f.abortWait {
		f.aborted = true
	}
	return screen.KeyPress{}, false
}

func (f *fakeInput) Abort() {
	f.aborted = true
}

func (f *fakeInput) Aborted() bool {
	if f.aborted {
		return true
	}
	return f.abortAt > 0 && f.ticker.Flips() >= f.abortAt
}

func contains(keys []stimulus.Key, key stimulus.Key) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

type recordingSurface struct {
	frames []screen.Frame
}

func (s *recordingSurface) Draw(f screen.Frame) {
	s.frames = append(s.frames, f)
}

type outcomeLog struct {
	outcomes []model.TrialOutcome
}

func (l *outcomeLog) Record(o model.TrialOutcome) {
	l.outcomes = append(l.outcomes, o)
}

var testTiming = model.Timing{
	FrameRate:      60,
	FixationTicks:  3,
	StimulusTicks:  5,
	ResponseTicks:  6,
	FeedbackTicks:  2,
	JitterMinTicks: 1,
	JitterMaxTicks: 1,
}

type harness struct {
	ticker  *clock.ManualTicker
	input   *fakeInput
	surface *recordingSurface
	log     *outcomeLog
	states  []State
	runner  *Runner
}

func newHarness(timing model.Timing) *harness {
	h := &harness{
		ticker:  clock.NewManualTicker(time.Unix(1000, 0), timing.FrameRate),
		surface: &recordingSurface{},
		log:     &outcomeLog{},
	}
	h.input = &fakeInput{ticker: h.ticker}
	h.runner = NewRunner(Options{
		Driver:   clock.NewDriver(h.ticker, h.input.Aborted),
		Surface:  h.surface,
		Input:    h.input,
		Clock:    clock.NewReactionClock(h.ticker.Now),
		Timing:   timing,
		Keys:     stimulus.DefaultKeyMap,
		Rand:     rand.New(rand.NewSource(3)),
		OnState:  func(s State) { h.states = append(h.states, s) },
		Feedback: FeedbackText{Correct: "OK", Incorrect: "WRONG"},
	})
	return h
}

func trainingTrial(v stimulus.Variant) Trial {
	return Trial{
		Spec:          model.TrialSpec{Variant: v, CorrectKey: stimulus.DefaultKeyMap.CorrectKey(v)},
		Phase:         model.Phase{Kind: model.PhaseTraining, Trials: 8, MaxRun: 4, Feedback: true},
		ParticipantID: "P1M20",
	}
}

func TestRunCapturesKeyDuringStimulus(t *testing.T) {
	h := newHarness(testTiming)
	// Fixation ends at flip 3; the key shows up after three stimulus refreshes.
	h.input.presses = []scheduledPress{{flip: 6, key: "z"}}

	outcome, err := h.runner.Run(trainingTrial(stimulus.LR), h.log)
	require.NoError(t, err)

	assert.Equal(t, stimulus.Key("z"), outcome.KeyPressed)
	assert.True(t, outcome.Correct)
	assert.InDelta(t, 3*h.ticker.Step().Seconds(), outcome.ReactionTime, 1e-9)
	assert.Equal(t, []State{StateFixation, StateStimulus, StateResolved, StateFeedback, StateJitter, StateDone}, h.states)
	assert.Equal(t, 3+3+2+1, h.ticker.Flips())
	require.Len(t, h.log.outcomes, 1)
	assert.Equal(t, outcome, h.log.outcomes[0])
}

func TestRunKeyAtFirstStimulusTickIsZeroLatency(t *testing.T) {
	h := newHarness(testTiming)
	// Timestamped before onset: latency clamps to zero, never negative.
	h.input.presses = []scheduledPress{{flip: 3, key: "m", at: time.Unix(1000, 0)}}

	outcome, err := h.runner.Run(trainingTrial(stimulus.RR), h.log)
	require.NoError(t, err)
	assert.Equal(t, 0.0, outcome.ReactionTime)
	assert.True(t, outcome.Correct)
	assert.NotContains(t, h.states, StateFallbackWait)
}

func TestRunTimeoutRecordsNoKey(t *testing.T) {
	h := newHarness(testTiming)

	outcome, err := h.runner.Run(trainingTrial(stimulus.LL), h.log)
	require.NoError(t, err)

	assert.Equal(t, stimulus.NoKey, outcome.KeyPressed)
	assert.Equal(t, -1.0, outcome.ReactionTime)
	assert.False(t, outcome.Correct)
	assert.True(t, outcome.TimedOut())
	assert.Contains(t, h.states, StateFallbackWait)
	require.Len(t, h.input.waitCalls, 1)
	assert.Equal(t, testTiming.TickDuration(6), h.input.waitCalls[0])
	assert.Equal(t, 3+5+1+2+1, h.ticker.Flips())

	last := h.surface.frames[len(h.surface.frames)-1]
	assert.Equal(t, screen.FrameFeedback, last.Kind)
	assert.Equal(t, "WRONG", last.Text)
}

func TestRunFallbackResponseMeasuredFromOnset(t *testing.T) {
	h := newHarness(testTiming)
	h.input.waitKey = "m"
	h.input.waitAfter = 40 * time.Millisecond

	outcome, err := h.runner.Run(trainingTrial(stimulus.RL), h.log)
	require.NoError(t, err)

	assert.Equal(t, stimulus.Key("m"), outcome.KeyPressed)
	assert.True(t, outcome.Correct)
	// Five stimulus refreshes, one blank refresh, then the wait.
	want := 6*h.ticker.Step().Seconds() + 0.04
	assert.InDelta(t, want, outcome.ReactionTime, 1e-9)
}

func TestRunWrongKeyIsIncorrect(t *testing.T) {
	h := newHarness(testTiming)
	h.input.presses = []scheduledPress{{flip: 4, key: "m"}}

	outcome, err := h.runner.Run(trainingTrial(stimulus.LL), h.log)
	require.NoError(t, err)
	assert.False(t, outcome.Correct)
	assert.Equal(t, stimulus.Key("m"), outcome.KeyPressed)
	assert.GreaterOrEqual(t, outcome.ReactionTime, 0.0)
}

func TestRunIgnoresNonQualifyingKeys(t *testing.T) {
	h := newHarness(testTiming)
	h.input.presses = []scheduledPress{{flip: 3, key: "x"}, {flip: 5, key: "z"}}

	outcome, err := h.runner.Run(trainingTrial(stimulus.LL), h.log)
	require.NoError(t, err)
	assert.Equal(t, stimulus.Key("z"), outcome.KeyPressed)
	assert.InDelta(t, 2*h.ticker.Step().Seconds(), outcome.ReactionTime, 1e-9)
}

func TestRunAbortBeforeResolutionRecordsNothing(t *testing.T) {
	tests := []struct {
		name    string
		abortAt int
		wait    bool
	}{
		{name: "during fixation", abortAt: 1},
		{name: "during stimulus", abortAt: 5},
		{name: "during fallback wait", wait: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(testTiming)
			h.input.abortAt = tt.abortAt
			h.input.abortWait = tt.wait

			_, err := h.runner.Run(trainingTrial(stimulus.LL), h.log)
			require.ErrorIs(t, err, clock.ErrAborted)
			assert.Empty(t, h.log.outcomes)
			assert.NotContains(t, h.states, StateFeedback)
		})
	}
}

func TestRunAbortDuringFeedbackKeepsResolvedOutcome(t *testing.T) {
	h := newHarness(testTiming)
	h.input.presses = []scheduledPress{{flip: 3, key: "z"}}
	h.input.abortAt = 4

	_, err := h.runner.Run(trainingTrial(stimulus.LL), h.log)
	require.ErrorIs(t, err, clock.ErrAborted)
	require.Len(t, h.log.outcomes, 1)
	assert.True(t, h.log.outcomes[0].Correct)
}

func TestRunSkipsFeedbackWhenPhaseHasNone(t *testing.T) {
	h := newHarness(testTiming)
	h.input.presses = []scheduledPress{{flip: 3, key: "z"}}
	tr := trainingTrial(stimulus.LL)
	tr.Phase = model.Phase{Kind: model.PhaseBlock, Block: 1, Trials: 8, MaxRun: 4}

	outcome, err := h.runner.Run(tr, h.log)
	require.NoError(t, err)
	assert.NotContains(t, h.states, StateFeedback)
	assert.Equal(t, model.PhaseBlock, outcome.Phase)
	assert.Equal(t, 1, outcome.Block)
	assert.Equal(t, 3+0+1, h.ticker.Flips())
}

func TestJitterTicksWithinRange(t *testing.T) {
	timing := testTiming
	timing.JitterMinTicks = 2
	timing.JitterMaxTicks = 5
	h := newHarness(timing)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		n := h.runner.jitterTicks()
		require.GreaterOrEqual(t, n, 2)
		require.LessOrEqual(t, n, 5)
		seen[n] = true
	}
	assert.Len(t, seen, 4)
}
