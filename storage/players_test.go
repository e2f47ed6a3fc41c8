package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"arena-matchmaking/models"
	"arena-matchmaking/service"
)

func setupPlayerStore(t *testing.T, players ...*models.Player) *PlayerStore {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s := NewPlayerStore(db, clock, zaptest.NewLogger(t))
	for _, p := range players {
		require.NoError(t, s.UpsertPlayer(context.Background(), p))
	}
	return s
}

func ratedPlayer(id string, rating int) *models.Player {
	p := models.NewPlayer(id, "name-"+id, "#"+id)
	p.Rating = rating
	return p
}

func TestOpenSQLiteIsIdempotent(t *testing.T) {
	path := t.TempDir() + "/arena.db"

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	var tables int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('players', 'settlements')`,
	).Scan(&tables))
	assert.Equal(t, 2, tables)
}

func TestGetPlayer(t *testing.T) {
	s := setupPlayerStore(t, ratedPlayer("x", 1234))
	ctx := context.Background()

	p, err := s.GetPlayer(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, &models.Player{ID: "x", DisplayName: "name-x", Rating: 1234, ExternalTag: "#x"}, p)

	_, err = s.GetPlayer(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrPlayerNotFound)
}

func TestUpsertPlayerKeepsRating(t *testing.T) {
	s := setupPlayerStore(t, ratedPlayer("x", 1000), ratedPlayer("y", 1000))
	ctx := context.Background()

	_, err := s.ApplySettlement(ctx, "x", "y", 30)
	require.NoError(t, err)

	require.NoError(t, s.UpsertPlayer(ctx, &models.Player{ID: "x", DisplayName: "renamed", Rating: 1000, ExternalTag: "#new"}))

	p, err := s.GetPlayer(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.DisplayName)
	assert.Equal(t, "#new", p.ExternalTag)
	assert.Equal(t, 1030, p.Rating)
	assert.Equal(t, 1, p.Wins)
}

func TestApplySettlement(t *testing.T) {
	tests := []struct {
		name       string
		winner     int
		loser      int
		wantWinner int
		wantLoser  int
	}{
		{"regular", 1000, 1000, 1030, 970},
		{"loser clamped at zero", 1000, 10, 1030, 0},
		{"loser at zero", 500, 0, 530, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupPlayerStore(t, ratedPlayer("w", tt.winner), ratedPlayer("l", tt.loser))
			ctx := context.Background()

			st, err := s.ApplySettlement(ctx, "w", "l", models.DefaultRatingDelta)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, st.Winner.Rating)
			assert.Equal(t, tt.wantLoser, st.Loser.Rating)
			assert.Equal(t, models.DefaultRatingDelta, st.Delta)

			w, err := s.GetPlayer(ctx, "w")
			require.NoError(t, err)
			l, err := s.GetPlayer(ctx, "l")
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, w.Rating)
			assert.Equal(t, 1, w.Wins)
			assert.Equal(t, tt.wantLoser, l.Rating)
			assert.Equal(t, 1, l.Losses)

			n, err := s.SettlementCount(ctx, "l")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestApplySettlementUnknownPlayerChangesNothing(t *testing.T) {
	s := setupPlayerStore(t, ratedPlayer("x", 1000))
	ctx := context.Background()

	_, err := s.ApplySettlement(ctx, "x", "ghost", 30)
	assert.ErrorIs(t, err, service.ErrPlayerNotFound)

	p, err := s.GetPlayer(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 1000, p.Rating)
	assert.Equal(t, 0, p.Wins)

	n, err := s.SettlementCount(ctx, "x")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApplySettlementConcurrent(t *testing.T) {
	s := setupPlayerStore(t, ratedPlayer("x", 1000), ratedPlayer("y", 1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplySettlement(ctx, "x", "y", 30)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	x, err := s.GetPlayer(ctx, "x")
	require.NoError(t, err)
	y, err := s.GetPlayer(ctx, "y")
	require.NoError(t, err)
	assert.Equal(t, 1300, x.Rating)
	assert.Equal(t, 10, x.Wins)
	assert.Equal(t, 700, y.Rating)
	assert.Equal(t, 10, y.Losses)
}
