package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/simonrt/internal/clock"
	"github.com/verte-zerg/simonrt/internal/generator"
	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

// ErrInvalid wraps every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Settings are the unresolved experiment parameters, durations in milliseconds.
type Settings struct {
	FrameRate float64

	FixationMs    int
	StimulusMs    int
	ResponseMs    int
	FeedbackMs    int
	JitterMinMs   int
	JitterMaxMs   int
	InfoMaxWaitMs int

	TrainingTrials  int
	TrialsPerBlock  int
	Blocks          int
	MaxCongruentRun int

	LeftKey     string
	RightKey    string
	AbortKey    string
	QuitInfoKey string

	FeedbackCorrect   string
	FeedbackIncorrect string
	FeedbackInBlocks  bool

	ResultsDir  string
	MessagesDir string
	Seed        int64
}

// DefaultSettings returns the built-in parameters.
func DefaultSettings() Settings {
	return Settings{
		FrameRate:         60,
		FixationMs:        500,
		StimulusMs:        1000,
		ResponseMs:        1000,
		FeedbackMs:        500,
		JitterMinMs:       500,
		JitterMaxMs:       1000,
		InfoMaxWaitMs:     600000,
		TrainingTrials:    8,
		TrialsPerBlock:    40,
		Blocks:            2,
		MaxCongruentRun:   4,
		LeftKey:           "z",
		RightKey:          "m",
		AbortKey:          "escape",
		QuitInfoKey:       "f7",
		FeedbackCorrect:   "Correct",
		FeedbackIncorrect: "Incorrect",
		ResultsDir:        DefaultResultsDir(),
	}
}

// ChangedFunc reports whether a CLI flag was set explicitly.
type ChangedFunc func(name string) bool

// Overlay copies every value present in fc into s, except those whose flag
// was changed on the command line.
func Overlay(s *Settings, fc FileConfig, changed ChangedFunc) {
	if changed == nil {
		changed = func(string) bool { return false }
	}
	apply(changed, "frame-rate", &s.FrameRate, fc.Display.FrameRate)
	apply(changed, "fixation-ms", &s.FixationMs, fc.Timing.FixationMs)
	apply(changed, "stimulus-ms", &s.StimulusMs, fc.Timing.StimulusMs)
	apply(changed, "response-ms", &s.ResponseMs, fc.Timing.ResponseMs)
	apply(changed, "feedback-ms", &s.FeedbackMs, fc.Timing.FeedbackMs)
	apply(changed, "jitter-min-ms", &s.JitterMinMs, fc.Timing.JitterMinMs)
	apply(changed, "jitter-max-ms", &s.JitterMaxMs, fc.Timing.JitterMaxMs)
	apply(changed, "info-max-wait-ms", &s.InfoMaxWaitMs, fc.Timing.InfoMaxWaitMs)
	apply(changed, "training", &s.TrainingTrials, fc.Trials.Training)
	apply(changed, "per-block", &s.TrialsPerBlock, fc.Trials.PerBlock)
	apply(changed, "blocks", &s.Blocks, fc.Trials.Blocks)
	apply(changed, "max-run", &s.MaxCongruentRun, fc.Trials.MaxCongruentRun)
	apply(changed, "left-key", &s.LeftKey, fc.Keys.Left)
	apply(changed, "right-key", &s.RightKey, fc.Keys.Right)
	apply(changed, "abort-key", &s.AbortKey, fc.Keys.Abort)
	apply(changed, "quit-info-key", &s.QuitInfoKey, fc.Keys.QuitInfo)
	apply(changed, "feedback-correct", &s.FeedbackCorrect, fc.Feedback.Correct)
	apply(changed, "feedback-incorrect", &s.FeedbackIncorrect, fc.Feedback.Incorrect)
	apply(changed, "feedback-in-blocks", &s.FeedbackInBlocks, fc.Feedback.InBlocks)
	apply(changed, "results-dir", &s.ResultsDir, fc.Paths.ResultsDir)
	apply(changed, "messages-dir", &s.MessagesDir, fc.Paths.MessagesDir)
}

func apply[T any](changed ChangedFunc, name string, target, value *T) {
	if value == nil {
		return
	}
	if changed(name) {
		return
	}
	*target = *value
}

// Resolve validates s and converts every duration into ticks once.
func Resolve(s Settings) (model.Config, error) {
	if err := validate(s); err != nil {
		return model.Config{}, err
	}
	f := s.FrameRate
	cfg := model.Config{
		Timing: model.Timing{
			FrameRate:        f,
			FixationTicks:    clock.TicksFromMillis(s.FixationMs, f),
			StimulusTicks:    clock.TicksFromMillis(s.StimulusMs, f),
			ResponseTicks:    clock.TicksFromMillis(s.ResponseMs, f),
			FeedbackTicks:    clock.TicksFromMillis(s.FeedbackMs, f),
			JitterMinTicks:   clock.TicksFromMillis(s.JitterMinMs, f),
			JitterMaxTicks:   clock.TicksFromMillis(s.JitterMaxMs, f),
			InfoMaxWaitTicks: clock.TicksFromMillis(s.InfoMaxWaitMs, f),
		},
		TrainingTrials:    s.TrainingTrials,
		TrialsPerBlock:    s.TrialsPerBlock,
		Blocks:            s.Blocks,
		MaxCongruentRun:   s.MaxCongruentRun,
		Keys:              stimulus.KeyMap{Left: normalizeKey(s.LeftKey), Right: normalizeKey(s.RightKey)},
		AbortKey:          normalizeKey(s.AbortKey),
		QuitInfoKey:       normalizeKey(s.QuitInfoKey),
		FeedbackCorrect:   s.FeedbackCorrect,
		FeedbackIncorrect: s.FeedbackIncorrect,
		FeedbackInBlocks:  s.FeedbackInBlocks,
		ResultsDir:        s.ResultsDir,
		MessagesDir:       s.MessagesDir,
		Seed:              s.Seed,
	}
	if cfg.Timing.StimulusTicks < 1 {
		return model.Config{}, fmt.Errorf("%w: stimulus-ms %d is shorter than one frame at %.2f Hz", ErrInvalid, s.StimulusMs, f)
	}
	return cfg, nil
}

func validate(s Settings) error {
	var problems []string
	if s.FrameRate <= 0 {
		problems = append(problems, "frame-rate must be > 0")
	}
	for _, d := range []struct {
		name string
		ms   int
	}{
		{"fixation-ms", s.FixationMs},
		{"stimulus-ms", s.StimulusMs},
		{"response-ms", s.ResponseMs},
		{"feedback-ms", s.FeedbackMs},
		{"jitter-min-ms", s.JitterMinMs},
		{"jitter-max-ms", s.JitterMaxMs},
		{"info-max-wait-ms", s.InfoMaxWaitMs},
	} {
		if d.ms < 0 {
			problems = append(problems, d.name+" must be >= 0")
		}
	}
	if s.JitterMinMs > s.JitterMaxMs {
		problems = append(problems, "jitter-min-ms must be <= jitter-max-ms")
	}
	for _, c := range []struct {
		name string
		n    int
	}{
		{"training", s.TrainingTrials},
		{"per-block", s.TrialsPerBlock},
	} {
		if c.n <= 0 || c.n%4 != 0 {
			problems = append(problems, fmt.Sprintf("%s must be a positive multiple of 4 (got %d)", c.name, c.n))
			continue
		}
		if !generator.Satisfiable(c.n/2, c.n/2, s.MaxCongruentRun) {
			problems = append(problems, fmt.Sprintf("max-run %d cannot be satisfied with %d %s trials", s.MaxCongruentRun, c.n, c.name))
		}
	}
	if s.Blocks < 0 {
		problems = append(problems, "blocks must be >= 0")
	}
	if s.MaxCongruentRun < 0 {
		problems = append(problems, "max-run must be >= 0")
	}
	keys := stimulus.KeyMap{Left: normalizeKey(s.LeftKey), Right: normalizeKey(s.RightKey)}
	if err := keys.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	abort := normalizeKey(s.AbortKey)
	if abort == "" {
		problems = append(problems, "abort key must be set")
	} else if abort == keys.Left || abort == keys.Right {
		problems = append(problems, fmt.Sprintf("abort key %q must differ from the response keys", abort))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// normalizeKey maps common spellings onto the names the input source reports.
func normalizeKey(name string) stimulus.Key {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "esc":
		return "escape"
	case " ":
		return "space"
	case "return":
		return "enter"
	}
	return stimulus.Key(name)
}

// DefaultTemplate returns the commented config file written by `simonrt config`.
func DefaultTemplate() string {
	d := DefaultSettings()
	return fmt.Sprintf(`# simonrt configuration
# Uncomment a value to enable it. CLI flags override config values.

[display]
# frame-rate = %.0f          # Display refresh rate in Hz

[timing]
# fixation-ms = %d          # Fixation cross duration
# stimulus-ms = %d         # Stimulus duration
# response-ms = %d         # Extra response window after the stimulus disappears
# feedback-ms = %d          # Feedback duration
# jitter-min-ms = %d        # Inter-trial jitter lower bound
# jitter-max-ms = %d       # Inter-trial jitter upper bound
# info-max-wait-ms = %d  # Longest wait on an instruction screen

[trials]
# training = %d              # Training trials (multiple of 4)
# per-block = %d            # Trials per block (multiple of 4)
# blocks = %d                # Number of blocks
# max-congruent-run = %d     # Longest allowed run of congruent trials

[keys]
# left = %q
# right = %q
# abort = %q
# quit-info = %q

[feedback]
# correct = %q
# incorrect = %q
# in-blocks = false

[paths]
# results-dir = %q
# messages-dir = ""
`,
		d.FrameRate,
		d.FixationMs, d.StimulusMs, d.ResponseMs, d.FeedbackMs, d.JitterMinMs, d.JitterMaxMs, d.InfoMaxWaitMs,
		d.TrainingTrials, d.TrialsPerBlock, d.Blocks, d.MaxCongruentRun,
		d.LeftKey, d.RightKey, d.AbortKey, d.QuitInfoKey,
		d.FeedbackCorrect, d.FeedbackIncorrect,
		d.ResultsDir,
	)
}
