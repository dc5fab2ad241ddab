// Package main provides the CLI entrypoint for simonrt.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/verte-zerg/simonrt/internal/config"
	"github.com/verte-zerg/simonrt/internal/experiment"
	"github.com/verte-zerg/simonrt/internal/export"
	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stats"
	"github.com/verte-zerg/simonrt/internal/store"
	"github.com/verte-zerg/simonrt/internal/tui"
)

var (
	settings = config.DefaultSettings()

	runID         string
	runSex        string
	runAge        string
	runConfigPath string
	runLogLevel   string
	dbPath        string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "simonrt",
		Short:         "Word-based Simon reaction time task in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runExperimentCmd,
	}

	d := config.DefaultSettings()
	flags := rootCmd.Flags()
	flags.StringVar(&runID, "id", "", "participant ID")
	flags.StringVar(&runSex, "sex", "", "participant sex")
	flags.StringVar(&runAge, "age", "", "participant age")
	flags.StringVar(&runConfigPath, "config", "", "config file (.toml, or legacy .yaml)")
	flags.StringVar(&runLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.Int64Var(&settings.Seed, "seed", 0, "random seed (0 picks one and records it)")

	flags.Float64Var(&settings.FrameRate, "frame-rate", d.FrameRate, "display refresh rate in Hz")
	flags.IntVar(&settings.FixationMs, "fixation-ms", d.FixationMs, "fixation cross duration")
	flags.IntVar(&settings.StimulusMs, "stimulus-ms", d.StimulusMs, "stimulus duration")
	flags.IntVar(&settings.ResponseMs, "response-ms", d.ResponseMs, "response window after the stimulus disappears")
	flags.IntVar(&settings.FeedbackMs, "feedback-ms", d.FeedbackMs, "feedback duration")
	flags.IntVar(&settings.JitterMinMs, "jitter-min-ms", d.JitterMinMs, "inter-trial jitter lower bound")
	flags.IntVar(&settings.JitterMaxMs, "jitter-max-ms", d.JitterMaxMs, "inter-trial jitter upper bound")
	flags.IntVar(&settings.InfoMaxWaitMs, "info-max-wait-ms", d.InfoMaxWaitMs, "longest wait on an instruction screen")
	flags.IntVar(&settings.TrainingTrials, "training", d.TrainingTrials, "training trials (multiple of 4)")
	flags.IntVar(&settings.TrialsPerBlock, "per-block", d.TrialsPerBlock, "trials per block (multiple of 4)")
	flags.IntVar(&settings.Blocks, "blocks", d.Blocks, "number of blocks")
	flags.IntVar(&settings.MaxCongruentRun, "max-run", d.MaxCongruentRun, "longest allowed run of congruent trials")
	flags.StringVar(&settings.LeftKey, "left-key", d.LeftKey, "response key for LEFT")
	flags.StringVar(&settings.RightKey, "right-key", d.RightKey, "response key for RIGHT")
	flags.StringVar(&settings.AbortKey, "abort-key", d.AbortKey, "key that aborts the run")
	flags.StringVar(&settings.QuitInfoKey, "quit-info-key", d.QuitInfoKey, "key that ends the run on an instruction screen")
	flags.StringVar(&settings.FeedbackCorrect, "feedback-correct", d.FeedbackCorrect, "feedback text after a correct answer")
	flags.StringVar(&settings.FeedbackIncorrect, "feedback-incorrect", d.FeedbackIncorrect, "feedback text after a wrong or missing answer")
	flags.BoolVar(&settings.FeedbackInBlocks, "feedback-in-blocks", d.FeedbackInBlocks, "show feedback in main blocks too")
	flags.StringVar(&settings.ResultsDir, "results-dir", d.ResultsDir, "directory for result files and logs")
	flags.StringVar(&settings.MessagesDir, "messages-dir", d.MessagesDir, "directory overriding the instruction texts")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database path")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

func runExperimentCmd(cmd *cobra.Command, _ []string) error {
	path := runConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.Overlay(&settings, fileCfg, cmd.Flags().Changed)
	if settings.Seed == 0 {
		settings.Seed = time.Now().UnixNano()
	}
	cfg, err := config.Resolve(settings)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("simonrt needs an interactive terminal")
	}

	participant := model.Participant{ID: runID, Sex: runSex, Age: runAge}
	if participant.ID == "" || participant.Sex == "" || participant.Age == "" {
		participant, err = tui.RunForm(participant, tea.WithAltScreen())
		if err != nil {
			return err
		}
	}

	logger, closeLog, err := openLogger(cfg.ResultsDir, participant.PartID(), runLogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	csvSink := export.NewCSVSink(cfg.ResultsDir, nil)
	sinks := experiment.MultiSink{csvSink}
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Warn("session history disabled", "db", dbPath, "error", err)
	} else {
		sinks = append(sinks, st)
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	keyboard := tui.NewKeyboard(cfg.AbortKey)
	program := tea.NewProgram(tui.NewModel(keyboard, participant.PartID()), tea.WithAltScreen(), tea.WithoutSignalHandler())
	display := tui.NewDisplay(cfg.Timing.FrameRate, program.Send)
	defer display.Stop()
	tuiDone := make(chan struct{})

	exp := experiment.New(experiment.Options{
		Config:      cfg,
		Participant: participant,
		Surface:     display,
		Flipper:     display,
		Input:       keyboard,
		Sink:        sinks,
		Logger:      logger,
		Terminate: func(code int) {
			program.Kill()
			<-tuiDone
			logErrf("experiment aborted; results saved to %s\n", csvSink.Path())
			closeLog()
			os.Exit(code)
		},
	})
	if err := exp.Plan(); err != nil {
		logger.Error("failed to plan experiment", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()
	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("interrupt received, aborting", "signal", sig)
			keyboard.Abort()
			cancel()
		case <-ctx.Done():
		}
	}()

	var res experiment.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(tuiDone)
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		keyboard.Abort()
		return nil
	})
	g.Go(func() error {
		var err error
		res, err = exp.Execute(gctx)
		program.Send(tui.Done())
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return printRunSummary(cmd, res, csvSink.Path())
}

func printRunSummary(cmd *cobra.Command, res experiment.Result, csvPath string) error {
	out := cmd.OutOrStdout()
	for _, s := range res.Summaries {
		if _, err := fmt.Fprintf(out, "%-10s congruent %4d ms  incongruent %4d ms  correct %d/%d\n",
			s.Phase.Name(), stats.Millis(s.MeanRTCongruent), stats.Millis(s.MeanRTIncongruent), s.CorrectCount, s.Total); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "Results: %s\n", csvPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func openLogger(dir, partID, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level value: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	path := filepath.Join(dir, partID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	closed := false
	closeLog := func() {
		if closed {
			return
		}
		closed = true
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the participant log.
			_ = cerr
		}
	}
	return logger, closeLog, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
