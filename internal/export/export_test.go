package export

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/stimulus"
)

func TestWriteBehCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteBehCSV(&buf, []model.TrialOutcome{
		{ParticipantID: "P1M20", TrialNo: 0, Variant: stimulus.LL, KeyPressed: "z", ReactionTime: 0.4523, Correct: true},
		{ParticipantID: "P1M20", TrialNo: 1, Variant: stimulus.RL, KeyPressed: stimulus.NoKey, ReactionTime: -1, Correct: false},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"PART_ID,Trial_no,Reaction time,Correctness\nP1M20,0,0.4523,True\nP1M20,1,-1.0,False\n",
		buf.String())
}

func TestFormatRT(t *testing.T) {
	assert.Equal(t, "-1.0", FormatRT(-1))
	assert.Equal(t, "0.0", FormatRT(0))
	assert.Equal(t, "0.25", FormatRT(0.25))
}

func TestCSVSinkWritesNamedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	sink := NewCSVSink(dir, rand.New(rand.NewSource(1)))
	session := model.Session{Participant: model.Participant{ID: "P7", Sex: "K", Age: "31"}}

	err := sink.WriteResults(context.Background(), session, []model.TrialOutcome{
		{ParticipantID: "P7K31", TrialNo: 0, ReactionTime: 0.5, Correct: true},
	})
	require.NoError(t, err)

	name := filepath.Base(sink.Path())
	assert.Regexp(t, regexp.MustCompile(`^P7K31_[1-9][0-9]{2}_beh\.csv$`), name)
	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "PART_ID,Trial_no"))
}

func TestCSVSinkWritesHeaderForEmptyRun(t *testing.T) {
	sink := NewCSVSink(t.TempDir(), nil)
	require.NoError(t, sink.WriteResults(context.Background(), model.Session{}, nil))
	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)
	assert.Equal(t, "PART_ID,Trial_no,Reaction time,Correctness\n", string(data))
}

func sampleRecords() []model.TrialRecord {
	return []model.TrialRecord{
		{SessionID: "s1", ParticipantID: "P1M20", Phase: "training", TrialNo: 0, Variant: "LL", Congruent: true, CorrectKey: "z", KeyPressed: "z", ReactionTime: 0.41, Correct: true},
		{SessionID: "s1", ParticipantID: "P1M20", Phase: "block", Block: 1, TrialNo: 5, Variant: "RL", CorrectKey: "m", KeyPressed: "no_key", ReactionTime: -1},
	}
}

func TestWriteRecordsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecordsCSV(&buf, sampleRecords()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(RecordHeader, ","), lines[0])
	assert.Equal(t, "s1,P1M20,,block,1,5,RL,False,m,no_key,-1.0,False", lines[2])
}

func TestWriteRecordsXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecordsXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()
	rows, err := f.GetRows(trialsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, RecordHeader, rows[0])
	assert.Equal(t, "LL", rows[1][6])
	assert.Equal(t, "no_key", rows[2][9])
}
