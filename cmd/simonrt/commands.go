package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/simonrt/internal/config"
	"github.com/verte-zerg/simonrt/internal/export"
	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stats"
	"github.com/verte-zerg/simonrt/internal/statsui"
	"github.com/verte-zerg/simonrt/internal/store"
)

const defaultCurveWindow = 5

var (
	historyParticipant string
	historyLast        int
	historyCurves      bool
	historyCurveWindow int
	historyTUI         bool

	exportFormat      string
	exportOut         string
	exportParticipant string
	exportSession     string
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored sessions and the Simon effect over time",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyParticipant, "participant", "", "participant ID or code filter")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().BoolVar(&historyCurves, "curves", false, "plot reaction time curves")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyTUI, "tui", false, "browse history interactively")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyCurveWindow <= 0 {
		return fmt.Errorf("--curve-window must be > 0")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	cfg := model.HistoryConfig{
		Participant: historyParticipant,
		Last:        historyLast,
	}
	if historyTUI {
		program := tea.NewProgram(statsui.NewModel(st, cfg, historyCurveWindow), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(report.Sessions) == 0 {
		logErrln("No sessions stored yet.")
		return nil
	}
	return report.Render(cmd.OutOrStdout(), stats.RenderOptions{
		Curves:      historyCurves,
		CurveWindow: historyCurveWindow,
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored trials as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv or xlsx)")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&exportParticipant, "participant", "", "participant ID or code filter")
	cmd.Flags().StringVar(&exportSession, "session", "", "session ID filter")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	write, err := exportWriter(exportFormat)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	records, err := st.ListTrials(cmd.Context(), model.TrialFilter{
		Participant: exportParticipant,
		SessionID:   exportSession,
	})
	if err != nil {
		return fmt.Errorf("failed to load trials: %w", err)
	}

	if exportOut == "" {
		return write(cmd.OutOrStdout(), records)
	}
	if err := os.MkdirAll(filepath.Dir(exportOut), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOut, err)
	}
	if err := write(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", exportOut, err)
	}
	logErrf("Wrote %d trials to %s\n", len(records), exportOut)
	return nil
}

func exportWriter(format string) (func(io.Writer, []model.TrialRecord) error, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return export.WriteRecordsCSV, nil
	case "xlsx":
		return export.WriteRecordsXLSX, nil
	default:
		return nil, fmt.Errorf("unknown --format %q (want csv or xlsx)", format)
	}
}

