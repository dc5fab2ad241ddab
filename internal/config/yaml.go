package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// LegacyConfig is the frame-based YAML layout of the first version of the task.
type LegacyConfig struct {
	FrameRate             float64  `yaml:"FRAME_RATE"`
	FixCrossTime          *int     `yaml:"FIX_CROSS_TIME"`
	StimTime              *int     `yaml:"STIM_TIME"`
	ReactionTime          *int     `yaml:"REACTION_TIME"`
	FeedbackTime          *int     `yaml:"FEEDBACK_TIME"`
	JitterTimeRange       []int    `yaml:"JITTER_TIME_RANGE"`
	NoTrainingTrials      *int     `yaml:"NO_TRAINING_TRIALS"`
	TrialsInBlock         *int     `yaml:"TRIALS_IN_BLOCK"`
	NoBlocks              *int     `yaml:"NO_BLOCKS"`
	TrialsRepetition      *int     `yaml:"TRIALS_REPETITION"`
	ReactionKeys          keyList  `yaml:"REACTION_KEYS"`
	FeedbackCorrectText   *string  `yaml:"FEEDBACK_CORRECT_TEXT"`
	FeedbackIncorrectText *string  `yaml:"FEEDBACK_INCORRECT_TEXT"`
	MaxWait               *int     `yaml:"MAX_WAIT"`
}

func loadLegacyYAML(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	var legacy LegacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return legacy.toFileConfig()
}

// toFileConfig converts frame counts into milliseconds at the file's frame rate.
// The conversion rounds to whole milliseconds, which resolves back to the same
// frame count for any frame rate below 1000 Hz.
func (l LegacyConfig) toFileConfig() (FileConfig, error) {
	if l.FrameRate <= 0 {
		return FileConfig{}, fmt.Errorf("%w: FRAME_RATE must be > 0", ErrInvalid)
	}
	toMs := func(frames *int) *int {
		if frames == nil {
			return nil
		}
		ms := int(math.Round(float64(*frames) * 1000.0 / l.FrameRate))
		return &ms
	}
	frameRate := l.FrameRate
	cfg := FileConfig{
		Display: DisplayConfig{FrameRate: &frameRate},
		Timing: TimingConfig{
			FixationMs:    toMs(l.FixCrossTime),
			StimulusMs:    toMs(l.StimTime),
			ResponseMs:    toMs(l.ReactionTime),
			FeedbackMs:    toMs(l.FeedbackTime),
			InfoMaxWaitMs: toMs(l.MaxWait),
		},
		Trials: TrialsConfig{
			Training:        l.NoTrainingTrials,
			PerBlock:        l.TrialsInBlock,
			Blocks:          l.NoBlocks,
			MaxCongruentRun: l.TrialsRepetition,
		},
		Feedback: FeedbackConfig{
			Correct:   l.FeedbackCorrectText,
			Incorrect: l.FeedbackIncorrectText,
		},
	}
	switch len(l.JitterTimeRange) {
	case 0:
	case 2:
		cfg.Timing.JitterMinMs = toMs(&l.JitterTimeRange[0])
		cfg.Timing.JitterMaxMs = toMs(&l.JitterTimeRange[1])
	default:
		return FileConfig{}, fmt.Errorf("%w: JITTER_TIME_RANGE needs two values, got %d", ErrInvalid, len(l.JitterTimeRange))
	}
	switch len(l.ReactionKeys) {
	case 0:
	case 2:
		left, right := l.ReactionKeys[0], l.ReactionKeys[1]
		cfg.Keys.Left = &left
		cfg.Keys.Right = &right
	default:
		return FileConfig{}, fmt.Errorf("%w: REACTION_KEYS needs two keys, got %d", ErrInvalid, len(l.ReactionKeys))
	}
	return cfg, nil
}

// keyList accepts either a YAML sequence of key names or a string of
// single-character keys ("zm").
type keyList []string

func (k *keyList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var raw string
		if err := node.Decode(&raw); err != nil {
			return err
		}
		out := make([]string, 0, len(raw))
		for _, r := range raw {
			out = append(out, string(r))
		}
		*k = out
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*k = list
	return nil
}
