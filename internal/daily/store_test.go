package daily_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmagesol/solitaire-server/internal/daily"
	"github.com/redmagesol/solitaire-server/internal/db"
)

func newTestStore(t *testing.T) *daily.Store {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn))
	return daily.NewStore(conn)
}

func TestResultsOncePerDay(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	played, err := s.AlreadyPlayed(ctx, "u1", "2025-06-01")
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, s.InsertResult(ctx, daily.Result{
		UserID: "u1", Date: "2025-06-01", Score: 120, Frames: 10, Strikes: 3,
	}))
	played, err = s.AlreadyPlayed(ctx, "u1", "2025-06-01")
	require.NoError(t, err)
	assert.True(t, played)

	// A second submission for the same day is silently ignored.
	require.NoError(t, s.InsertResult(ctx, daily.Result{
		UserID: "u1", Date: "2025-06-01", Score: 300, Frames: 10, Strikes: 12,
	}))
	top, err := s.Leaderboard(ctx, "2025-06-01", 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 120, top[0].Score)

	// Same user on a new day is fine.
	played, err = s.AlreadyPlayed(ctx, "u1", "2025-06-02")
	require.NoError(t, err)
	assert.False(t, played)
}

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, r := range []daily.Result{
		{UserID: "low", Date: "2025-06-01", Score: 80, Strikes: 1},
		{UserID: "high", Date: "2025-06-01", Score: 200, Strikes: 6},
		{UserID: "mid", Date: "2025-06-01", Score: 120, Strikes: 2},
		{UserID: "other-day", Date: "2025-06-02", Score: 300, Strikes: 12},
	} {
		require.NoError(t, s.InsertResult(ctx, r))
	}

	top, err := s.Leaderboard(ctx, "2025-06-01", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].UserID)
	assert.Equal(t, "mid", top[1].UserID)

	all, err := s.Leaderboard(ctx, "2025-06-01", 0) // default limit
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
