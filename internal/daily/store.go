package daily

import (
	"context"
	"database/sql"
)

// Result is one user's finished daily deal.
type Result struct {
	UserID  string `json:"userId"`
	Date    string `json:"date"`
	Score   int    `json:"score"`
	Frames  int    `json:"frames"`
	Strikes int    `json:"strikes"`
}

// Store reads and writes the daily_results table.
type Store struct{ db *sql.DB }

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether the user has a recorded result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a finished daily deal; a user's second result for
// the same date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, score, frames, strikes)
		 VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.Score, r.Frames, r.Strikes,
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID  string `json:"userId"`
	Score   int    `json:"score"`
	Strikes int    `json:"strikes"`
}

// Leaderboard returns the top scores for a date, highest pinfall first.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, score, strikes
		 FROM daily_results
		 WHERE date=?
		 ORDER BY score DESC, strikes DESC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LBRow
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Score, &r.Strikes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
