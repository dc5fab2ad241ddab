// Package store handles SQLite persistence.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/simonrt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for sessions and their trials.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			participant_id TEXT NOT NULL,
			participant_code TEXT NOT NULL,
			sex TEXT NOT NULL,
			age TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			frame_rate REAL NOT NULL,
			seed INTEGER NOT NULL,
			aborted INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trials (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			phase TEXT NOT NULL,
			block INTEGER NOT NULL,
			trial_index INTEGER NOT NULL,
			trial_no INTEGER NOT NULL,
			variant TEXT NOT NULL,
			congruent INTEGER NOT NULL,
			correct_key TEXT NOT NULL,
			key_pressed TEXT NOT NULL,
			reaction_time REAL NOT NULL,
			correct INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_participant ON sessions(participant_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type trialRow struct {
	SessionID    string  `db:"session_id"`
	Seq          int     `db:"seq"`
	Phase        string  `db:"phase"`
	Block        int     `db:"block"`
	TrialIndex   int     `db:"trial_index"`
	TrialNo      int     `db:"trial_no"`
	Variant      string  `db:"variant"`
	Congruent    bool    `db:"congruent"`
	CorrectKey   string  `db:"correct_key"`
	KeyPressed   string  `db:"key_pressed"`
	ReactionTime float64 `db:"reaction_time"`
	Correct      bool    `db:"correct"`
}

// InsertSession stores a session and every recorded trial in one transaction.
func (s *Store) InsertSession(ctx context.Context, session model.Session, outcomes []model.TrialOutcome) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, participant_id, participant_code, sex, age, started_at, ended_at, frame_rate, seed, aborted)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Participant.PartID(),
		session.Participant.ID,
		session.Participant.Sex,
		session.Participant.Age,
		session.StartedAt.Format(time.RFC3339Nano),
		session.EndedAt.Format(time.RFC3339Nano),
		session.FrameRate,
		session.Seed,
		session.Aborted,
	)
	if err != nil {
		return err
	}

	for i, o := range outcomes {
		row := trialRow{
			SessionID:    session.ID,
			Seq:          i,
			Phase:        string(o.Phase),
			Block:        o.Block,
			TrialIndex:   o.TrialIndex,
			TrialNo:      o.TrialNo,
			Variant:      o.Variant.String(),
			Congruent:    o.Variant.Congruent(),
			CorrectKey:   string(o.CorrectKey),
			KeyPressed:   string(o.KeyPressed),
			ReactionTime: o.ReactionTime,
			Correct:      o.Correct,
		}
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO trials (session_id, seq, phase, block, trial_index, trial_no, variant, congruent, correct_key, key_pressed, reaction_time, correct)
			 VALUES (:session_id, :seq, :phase, :block, :trial_index, :trial_no, :variant, :congruent, :correct_key, :key_pressed, :reaction_time, :correct)`,
			row); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

// WriteResults persists a run; it lets the store act as a results sink.
func (s *Store) WriteResults(ctx context.Context, session model.Session, outcomes []model.TrialOutcome) error {
	if err := s.InsertSession(ctx, session, outcomes); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// ListSessions returns per-session aggregates over main-block trials, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.HistoryConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Participant != "" {
		clauses = append(clauses, "(s.participant_id = ? OR s.participant_code = ?)")
		args = append(args, cfg.Participant, cfg.Participant)
	}
	query := fmt.Sprintf(`SELECT s.id, s.participant_id, s.ended_at, s.aborted,
			COUNT(t.seq) AS trials,
			COALESCE(SUM(t.correct), 0) AS correct,
			COALESCE(SUM(CASE WHEN t.key_pressed = 'no_key' THEN 1 ELSE 0 END), 0) AS timeouts,
			COALESCE(AVG(CASE WHEN t.congruent = 1 AND t.key_pressed != 'no_key' THEN t.reaction_time END), 0) AS mean_rt_congruent,
			COALESCE(AVG(CASE WHEN t.congruent = 0 AND t.key_pressed != 'no_key' THEN t.reaction_time END), 0) AS mean_rt_incongruent
		FROM sessions s
		LEFT JOIN trials t ON t.session_id = s.id AND t.phase = 'block'
		WHERE %s
		GROUP BY s.id
		ORDER BY s.ended_at ASC`, strings.Join(clauses, " AND "))

	var sessions []model.SessionAggregate
	if err := s.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	for i := range sessions {
		parsed, err := time.Parse(time.RFC3339Nano, sessions[i].EndedAtRaw)
		if err != nil {
			return nil, err
		}
		sessions[i].EndedAt = parsed
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListTrials returns stored trials in recording order.
func (s *Store) ListTrials(ctx context.Context, filter model.TrialFilter) ([]model.TrialRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Participant != "" {
		clauses = append(clauses, "(s.participant_id = ? OR s.participant_code = ?)")
		args = append(args, filter.Participant, filter.Participant)
	}
	if filter.SessionID != "" {
		clauses = append(clauses, "s.id = ?")
		args = append(args, filter.SessionID)
	}
	query := fmt.Sprintf(`SELECT t.session_id, t.seq, s.participant_id, s.started_at,
			t.phase, t.block, t.trial_index, t.trial_no, t.variant, t.congruent,
			t.correct_key, t.key_pressed, t.reaction_time, t.correct
		FROM trials t
		JOIN sessions s ON s.id = t.session_id
		WHERE %s
		ORDER BY s.started_at ASC, t.seq ASC`, strings.Join(clauses, " AND "))

	var records []model.TrialRecord
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}
