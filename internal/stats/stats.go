// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/results"
)

const sparkChars = " .:-=+*#%@"

// Millis converts seconds into whole milliseconds.
func Millis(seconds float64) int {
	return int(math.Round(seconds * 1000))
}

// PhaseSummaryText is the screen shown after a phase ends.
func PhaseSummaryText(s results.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %s\n\n", s.Phase.Name())
	fmt.Fprintf(&b, "Mean reaction time for congruent stimuli: %d ms\n", Millis(s.MeanRTCongruent))
	fmt.Fprintf(&b, "Mean reaction time for incongruent stimuli: %d ms\n", Millis(s.MeanRTIncongruent))
	fmt.Fprintf(&b, "Correct answers: %d of %d\n", s.CorrectCount, s.Total)
	if s.Timeouts > 0 {
		fmt.Fprintf(&b, "Missed responses: %d\n", s.Timeouts)
	}
	b.WriteString("\nPress space to continue.")
	return b.String()
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Effects returns the per-session interference effect in milliseconds.
func Effects(sessions []model.SessionAggregate) []float64 {
	out := make([]float64, len(sessions))
	for i, s := range sessions {
		out[i] = (s.MeanRTIncongruent - s.MeanRTCongruent) * 1000
	}
	return out
}

// RenderSummary prints totals across sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var trials, correct, timeouts, aborted int
	var effectSum float64
	for _, s := range sessions {
		trials += s.Trials
		correct += s.Correct
		timeouts += s.Timeouts
		if s.Aborted {
			aborted++
		}
	}
	effects := Effects(sessions)
	for _, e := range effects {
		effectSum += e
	}
	acc := 0.0
	if trials > 0 {
		acc = float64(correct) / float64(trials)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d (%d aborted)", len(sessions), aborted),
		fmt.Sprintf("Block trials: %d", trials),
		fmt.Sprintf("Accuracy: %.2f%%", acc*100),
		fmt.Sprintf("Missed responses: %d", timeouts),
		fmt.Sprintf("Avg Simon effect: %.0f ms", effectSum/float64(len(sessions))),
		fmt.Sprintf("Effect trend: %s", Sparkline(effects)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSessionTable prints one row per session.
func RenderSessionTable(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Sessions"); err != nil {
		return err
	}
	headers := []string{"Ended", "Participant", "Trials", "Accuracy", "Congruent (ms)", "Incongruent (ms)", "Effect (ms)", "Missed", ""}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		acc := 0.0
		if s.Trials > 0 {
			acc = float64(s.Correct) / float64(s.Trials)
		}
		status := ""
		if s.Aborted {
			status = "aborted"
		}
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.ParticipantID,
			fmt.Sprintf("%d", s.Trials),
			fmt.Sprintf("%.2f%%", acc*100),
			fmt.Sprintf("%d", Millis(s.MeanRTCongruent)),
			fmt.Sprintf("%d", Millis(s.MeanRTIncongruent)),
			fmt.Sprintf("%d", Millis(s.MeanRTIncongruent-s.MeanRTCongruent)),
			fmt.Sprintf("%d", s.Timeouts),
			status,
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves plots congruent and incongruent latencies across sessions.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, width, height int) error {
	if len(sessions) == 0 {
		return nil
	}
	con := make([]float64, len(sessions))
	inc := make([]float64, len(sessions))
	for i, s := range sessions {
		con[i] = s.MeanRTCongruent * 1000
		inc[i] = s.MeanRTIncongruent * 1000
	}
	return PlotSeries(w, "Reaction time (ms)", []Series{
		{Name: "Congruent", Values: MovingAverage(con, window)},
		{Name: "Incongruent", Values: MovingAverage(inc, window)},
	}, width, height)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
