package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/simonrt/internal/model"
)

const trialsSheet = "Trials"

// WriteRecordsXLSX writes stored trials into a single-sheet workbook.
func WriteRecordsXLSX(w io.Writer, records []model.TrialRecord) error {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the in-memory workbook.
			_ = cerr
		}
	}()

	idx, err := f.NewSheet(trialsSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for i, h := range RecordHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(trialsSheet, cell, h); err != nil {
			return err
		}
	}
	for r, rec := range records {
		values := []any{
			rec.SessionID,
			rec.ParticipantID,
			rec.StartedAtRaw,
			rec.Phase,
			rec.Block,
			rec.TrialNo,
			rec.Variant,
			rec.Congruent,
			rec.CorrectKey,
			rec.KeyPressed,
			rec.ReactionTime,
			rec.Correct,
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(trialsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return err
	}
	return nil
}
