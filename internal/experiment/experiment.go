// Package experiment drives a full run: instruction screens, the training
// phase, the main blocks and the phase summaries.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/simonrt/internal/clock"
	"github.com/verte-zerg/simonrt/internal/generator"
	"github.com/verte-zerg/simonrt/internal/messages"
	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/results"
	"github.com/verte-zerg/simonrt/internal/screen"
	"github.com/verte-zerg/simonrt/internal/stats"
	"github.com/verte-zerg/simonrt/internal/stimulus"
	"github.com/verte-zerg/simonrt/internal/trial"
)

// ExitAborted is the process exit code used after a user abort.
const ExitAborted = 2

// ErrQuitOnInfo is returned when the quit key is pressed on an instruction screen.
var ErrQuitOnInfo = errors.New("experiment finished by user on info screen")

// Sink receives the outcome log once, at the end of the run or on abort.
type Sink interface {
	WriteResults(ctx context.Context, session model.Session, outcomes []model.TrialOutcome) error
}

// MultiSink writes to every sink and joins their errors.
type MultiSink []Sink

// WriteResults implements Sink.
func (m MultiSink) WriteResults(ctx context.Context, session model.Session, outcomes []model.TrialOutcome) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteResults(ctx, session, outcomes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Options wires an Experiment to its collaborators.
type Options struct {
	Config      model.Config
	Participant model.Participant
	Surface     screen.Surface
	Flipper     clock.Flipper
	Input       screen.Input
	Now         func() time.Time
	Generator   *generator.Generator
	Messages    *messages.Loader
	Sink        Sink
	Logger      *slog.Logger
	Terminate   func(code int)
	OnState     func(trial.State)
}

// Result is what a run produced.
type Result struct {
	Session   model.Session
	Outcomes  []model.TrialOutcome
	Summaries []results.Summary
}

// Experiment owns the results log for one run.
type Experiment struct {
	opts      Options
	log       *results.Log
	phases    []model.Phase
	sequences [][]model.TrialSpec
	summaries []results.Summary
	session   model.Session
}

// New returns an Experiment. Missing optional collaborators get defaults.
func New(opts Options) *Experiment {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Generator == nil {
		if opts.Config.Seed != 0 {
			opts.Generator = generator.NewSeeded(opts.Config.Seed)
		} else {
			opts.Generator = generator.New()
		}
	}
	if opts.Messages == nil {
		opts.Messages = messages.NewLoader(opts.Config.MessagesDir)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Experiment{
		opts: opts,
		log:  results.NewLog(),
		session: model.Session{
			ID:          uuid.NewString(),
			Participant: opts.Participant,
			FrameRate:   opts.Config.Timing.FrameRate,
			Seed:        opts.Config.Seed,
		},
	}
}

// Plan builds every phase and generates every sequence. Configuration errors
// surface here, before anything is shown.
func (e *Experiment) Plan() error {
	cfg := e.opts.Config
	phases := []model.Phase{{
		Kind:     model.PhaseTraining,
		Trials:   cfg.TrainingTrials,
		MaxRun:   cfg.MaxCongruentRun,
		Feedback: true,
	}}
	for b := 0; b < cfg.Blocks; b++ {
		phases = append(phases, model.Phase{
			Kind:     model.PhaseBlock,
			Block:    b,
			Trials:   cfg.TrialsPerBlock,
			MaxRun:   cfg.MaxCongruentRun,
			Feedback: cfg.FeedbackInBlocks,
		})
	}
	sequences := make([][]model.TrialSpec, 0, len(phases))
	for _, p := range phases {
		counts, err := generator.BalancedCounts(p.Trials)
		if err != nil {
			return fmt.Errorf("failed to plan %s: %w", p.Name(), err)
		}
		seq, err := e.opts.Generator.Generate(counts, p.MaxRun, cfg.Keys)
		if err != nil {
			return fmt.Errorf("failed to generate %s sequence: %w", p.Name(), err)
		}
		e.opts.Logger.Info("sequence generated",
			"phase", p.Name(),
			"trials", len(seq),
			"max_run", p.MaxRun,
			"longest_run", generator.LongestCongruentRun(seq),
			"shuffles", e.opts.Generator.Attempts())
		sequences = append(sequences, seq)
	}
	e.phases = phases
	e.sequences = sequences
	return nil
}

// Execute plans and runs the experiment, then hands the log to the sink.
// On abort the log is flushed first and Terminate is called.
func (e *Experiment) Execute(ctx context.Context) (Result, error) {
	if e.phases == nil {
		if err := e.Plan(); err != nil {
			return Result{}, err
		}
	}
	logger := e.opts.Logger
	e.session.StartedAt = e.opts.Now()
	logger.Info("experiment started",
		"session", e.session.ID,
		"participant", e.opts.Participant.PartID(),
		"frame_rate", e.opts.Config.Timing.FrameRate)

	runErr := e.run(ctx)
	aborted := errors.Is(runErr, clock.ErrAborted) || errors.Is(runErr, ErrQuitOnInfo)
	e.session.EndedAt = e.opts.Now()
	e.session.Aborted = aborted

	res := Result{Session: e.session, Outcomes: e.log.Outcomes(), Summaries: e.summaries}
	var flushErr error
	if e.opts.Sink != nil {
		flushErr = e.opts.Sink.WriteResults(context.WithoutCancel(ctx), e.session, res.Outcomes)
	}
	if flushErr != nil {
		logger.Error("failed to write results", "error", flushErr)
	} else {
		logger.Info("results written", "trials", len(res.Outcomes))
	}

	if aborted {
		logger.Error("experiment aborted", "reason", runErr, "trials", len(res.Outcomes))
		if e.opts.Terminate != nil {
			e.opts.Terminate(ExitAborted)
		}
		return res, runErr
	}
	if runErr != nil {
		return res, runErr
	}
	if flushErr != nil {
		return res, fmt.Errorf("failed to write results: %w", flushErr)
	}
	logger.Info("experiment finished", "trials", len(res.Outcomes))
	return res, nil
}

func (e *Experiment) run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, e.opts.Input.Abort)
	defer stop()
	cfg := e.opts.Config
	driver := clock.NewDriver(e.opts.Flipper, func() bool {
		return e.opts.Input.Aborted() || ctx.Err() != nil
	})
	runner := trial.NewRunner(trial.Options{
		Driver:  driver,
		Surface: e.opts.Surface,
		Input:   e.opts.Input,
		Clock:   clock.NewReactionClock(e.opts.Now),
		Timing:  cfg.Timing,
		Keys:    cfg.Keys,
		Rand:    e.opts.Generator.Rand(),
		OnState: e.opts.OnState,
		Feedback: trial.FeedbackText{
			Correct:   cfg.FeedbackCorrect,
			Incorrect: cfg.FeedbackIncorrect,
		},
	})

	if err := e.showInfo(driver, messages.BeforeTraining, ""); err != nil {
		return err
	}
	trialNo := 0
	for i, phase := range e.phases {
		if phase.Kind == model.PhaseBlock && phase.Block == 0 {
			if err := e.showInfo(driver, messages.BeforeExperiment, ""); err != nil {
				return err
			}
			trialNo = 0
		}
		summary, err := e.runPhase(runner, phase, e.sequences[i], trialNo)
		if err != nil {
			return err
		}
		trialNo += phase.Trials
		if err := e.showSummary(driver, summary); err != nil {
			return err
		}
		if phase.Kind == model.PhaseBlock {
			insert := fmt.Sprintf("Block %d of %d finished.", phase.Block+1, cfg.Blocks)
			if err := e.showInfo(driver, messages.Break, insert); err != nil {
				return err
			}
		}
	}
	return e.showInfo(driver, messages.End, "")
}

func (e *Experiment) runPhase(runner *trial.Runner, phase model.Phase, seq []model.TrialSpec, firstTrialNo int) (results.Summary, error) {
	logger := e.opts.Logger.With("phase", phase.Name())
	logger.Info("phase started", "trials", len(seq))
	agg := results.NewAggregator(e.log, phase)
	for i, spec := range seq {
		outcome, err := runner.Run(trial.Trial{
			Spec:          spec,
			Phase:         phase,
			Index:         i,
			TrialNo:       firstTrialNo + i,
			ParticipantID: e.opts.Participant.PartID(),
		}, agg)
		if err != nil {
			return agg.Summarize(), err
		}
		logger.Debug("trial resolved",
			"trial", outcome.TrialNo,
			"variant", outcome.Variant.String(),
			"key", string(outcome.KeyPressed),
			"rt", outcome.ReactionTime,
			"correct", outcome.Correct)
	}
	summary := agg.Summarize()
	e.summaries = append(e.summaries, summary)
	logger.Info("phase finished",
		"correct", summary.CorrectCount,
		"total", summary.Total,
		"mean_rt_congruent", summary.MeanRTCongruent,
		"mean_rt_incongruent", summary.MeanRTIncongruent,
		"timeouts", summary.Timeouts)
	return summary, nil
}

var infoKeys = []stimulus.Key{"space", "enter", "left", "right"}

func (e *Experiment) showInfo(driver *clock.Driver, name messages.Name, insert string) error {
	text, err := e.opts.Messages.Load(name, insert)
	if err != nil {
		return err
	}
	keys := append([]stimulus.Key{}, infoKeys...)
	if e.opts.Config.QuitInfoKey != "" {
		keys = append(keys, e.opts.Config.QuitInfoKey)
	}
	return e.waitOnText(driver, text, keys)
}

func (e *Experiment) showSummary(driver *clock.Driver, s results.Summary) error {
	return e.waitOnText(driver, stats.PhaseSummaryText(s), []stimulus.Key{"space"})
}

func (e *Experiment) waitOnText(driver *clock.Driver, text string, keys []stimulus.Key) error {
	if err := driver.CheckAbort(); err != nil {
		return err
	}
	e.opts.Input.Clear()
	e.opts.Surface.Draw(screen.Frame{Kind: screen.FrameText, Text: text})
	driver.Flip()
	maxWait := e.opts.Config.Timing.TickDuration(e.opts.Config.Timing.InfoMaxWaitTicks)
	press, ok := e.opts.Input.Wait(keys, maxWait)
	if err := driver.CheckAbort(); err != nil {
		return err
	}
	if ok && e.opts.Config.QuitInfoKey != "" && press.Key == e.opts.Config.QuitInfoKey {
		return ErrQuitOnInfo
	}
	driver.Flip()
	return nil
}
