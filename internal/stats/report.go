package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/simonrt/internal/model"
	"github.com/verte-zerg/simonrt/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.SessionAggregate
}

// BuildReport loads the sessions selected by cfg.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions}, nil
}

// RenderOptions controls the optional parts of a history report.
type RenderOptions struct {
	Curves      bool
	CurveWindow int
	Width       int
	Height      int
}

// Render prints the summary, the session table and optionally the curves.
func (r Report) Render(w io.Writer, opts RenderOptions) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderSessionTable(w, r.Sessions); err != nil {
		return err
	}
	if !opts.Curves || len(r.Sessions) < 2 {
		return nil
	}
	return RenderCurves(w, r.Sessions, opts.CurveWindow, opts.Width, opts.Height)
}
