// Package export writes trial results as CSV and XLSX files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/verte-zerg/simonrt/internal/model"
)

// BehHeader is the header row of the per-participant behavioural file.
var BehHeader = []string{"PART_ID", "Trial_no", "Reaction time", "Correctness"}

// RecordHeader is the header row used when exporting stored trials.
var RecordHeader = []string{
	"session_id", "participant_id", "started_at", "phase", "block",
	"trial_no", "variant", "congruent", "correct_key", "key_pressed",
	"reaction_time", "correct",
}

// WriteBehCSV writes outcomes in the behavioural file layout.
func WriteBehCSV(w io.Writer, outcomes []model.TrialOutcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BehHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		if err := cw.Write([]string{
			o.ParticipantID,
			strconv.Itoa(o.TrialNo),
			FormatRT(o.ReactionTime),
			FormatBool(o.Correct),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecordsCSV writes stored trials with every column.
func WriteRecordsCSV(w io.Writer, records []model.TrialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func recordRow(r model.TrialRecord) []string {
	return []string{
		r.SessionID,
		r.ParticipantID,
		r.StartedAtRaw,
		r.Phase,
		strconv.Itoa(r.Block),
		strconv.Itoa(r.TrialNo),
		r.Variant,
		FormatBool(r.Congruent),
		r.CorrectKey,
		r.KeyPressed,
		FormatRT(r.ReactionTime),
		FormatBool(r.Correct),
	}
}

// FormatRT prints a latency in seconds, keeping a decimal point on whole
// values so that a timeout reads -1.0.
func FormatRT(rt float64) string {
	s := strconv.FormatFloat(rt, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

// FormatBool prints True or False.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// CSVSink writes one behavioural file per run into Dir.
type CSVSink struct {
	Dir  string
	Rand *rand.Rand

	lastPath string
}

// NewCSVSink returns a sink writing into dir.
func NewCSVSink(dir string, rnd *rand.Rand) *CSVSink {
	return &CSVSink{Dir: dir, Rand: rnd}
}

// FileName returns <PART_ID>_<100..999>_beh.csv.
func (s *CSVSink) FileName(partID string) string {
	n := 100
	if s.Rand != nil {
		n += s.Rand.Intn(900)
	} else {
		n += rand.Intn(900)
	}
	return fmt.Sprintf("%s_%d_beh.csv", partID, n)
}

// Path returns the file written by the last WriteResults call.
func (s *CSVSink) Path() string {
	return s.lastPath
}

// WriteResults implements the experiment results sink.
func (s *CSVSink) WriteResults(_ context.Context, session model.Session, outcomes []model.TrialOutcome) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results dir: %w", err)
	}
	path := filepath.Join(s.Dir, s.FileName(session.Participant.PartID()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	if err := WriteBehCSV(f, outcomes); err != nil {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after a write failure.
			_ = cerr
		}
		return fmt.Errorf("failed to write results file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}
	s.lastPath = path
	return nil
}
