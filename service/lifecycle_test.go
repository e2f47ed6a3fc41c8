package service

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena-matchmaking/models"
)

func setupLifecycle(t *testing.T) (*Lifecycle, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testEpoch)
	return NewLifecycle(models.DefaultRatingDelta, clock), clock
}

// recordingSettle returns a SettleFunc that counts calls
func recordingSettle(calls *int32) SettleFunc {
	return func(winnerID, loserID string, delta int) (*models.Settlement, error) {
		atomic.AddInt32(calls, 1)
		return &models.Settlement{
			Winner: models.Player{ID: winnerID, Rating: 1000 + delta, Wins: 1},
			Loser:  models.Player{ID: loserID, Rating: 1000 - delta, Losses: 1},
			Delta:  delta,
		}, nil
	}
}

func TestLifecycleDeclareConsistent(t *testing.T) {
	l, clock := setupLifecycle(t)
	m := l.Create("x", "y")
	var calls int32

	tr, err := l.Declare(m.ID, "x", models.OutcomeWin, recordingSettle(&calls))
	require.NoError(t, err)
	assert.False(t, tr.Changed)
	assert.Equal(t, models.MatchPending, tr.Match.State)

	clock.Advance(time.Minute)
	tr, err = l.Declare(m.ID, "y", models.OutcomeLoss, recordingSettle(&calls))
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, models.MatchCompleted, tr.Match.State)
	assert.Equal(t, "x", tr.Match.Winner)
	assert.Equal(t, models.ResolvedByDeclare, tr.Match.ResolvedBy)
	require.NotNil(t, tr.Match.ResolvedAt)
	assert.Equal(t, testEpoch.Add(time.Minute), *tr.Match.ResolvedAt)
	require.NotNil(t, tr.Settlement)
	assert.EqualValues(t, 1, calls)
}

func TestLifecycleDeclareInconsistent(t *testing.T) {
	for _, outcome := range []models.Outcome{models.OutcomeWin, models.OutcomeLoss} {
		t.Run(string(outcome), func(t *testing.T) {
			l, _ := setupLifecycle(t)
			m := l.Create("x", "y")
			var calls int32

			_, err := l.Declare(m.ID, "y", outcome, recordingSettle(&calls))
			require.NoError(t, err)
			tr, err := l.Declare(m.ID, "x", outcome, recordingSettle(&calls))
			require.NoError(t, err)

			assert.True(t, tr.Changed)
			assert.Equal(t, models.MatchDisputed, tr.Match.State)
			assert.Empty(t, tr.Match.Winner)
			assert.Nil(t, tr.Settlement)
			assert.Zero(t, calls)
		})
	}
}

func TestLifecycleDeclareRejections(t *testing.T) {
	l, _ := setupLifecycle(t)
	var calls int32
	settle := recordingSettle(&calls)

	m := l.Create("x", "y")
	_, err := l.Declare(m.ID, "x", models.OutcomeWin, settle)
	require.NoError(t, err)

	closed := l.Create("p", "q")
	_, err = l.Declare(closed.ID, "p", models.OutcomeWin, settle)
	require.NoError(t, err)
	_, err = l.Declare(closed.ID, "q", models.OutcomeWin, settle)
	require.NoError(t, err)

	tests := []struct {
		name     string
		matchID  string
		playerID string
		want     error
	}{
		{"unknown match", "missing", "x", ErrMatchNotFound},
		{"non participant", m.ID, "z", ErrNotParticipant},
		{"second declaration", m.ID, "x", ErrAlreadyDeclared},
		{"terminal match", closed.ID, "p", ErrMatchClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Declare(tt.matchID, tt.playerID, models.OutcomeLoss, settle)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}

	got, err := l.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeWin, got.DeclaredA)
	assert.Equal(t, models.OutcomeUnset, got.DeclaredB)
	assert.Zero(t, calls)
}

func TestLifecycleFailedSettlementLeavesMatchPending(t *testing.T) {
	l, _ := setupLifecycle(t)
	m := l.Create("x", "y")
	failing := func(string, string, int) (*models.Settlement, error) {
		return nil, errors.New("disk full")
	}

	_, err := l.Declare(m.ID, "x", models.OutcomeWin, failing)
	require.NoError(t, err)
	_, err = l.Declare(m.ID, "y", models.OutcomeLoss, failing)
	require.Error(t, err)

	got, err := l.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, got.State)
	assert.Equal(t, models.OutcomeUnset, got.DeclaredB)

	var calls int32
	tr, err := l.Declare(m.ID, "y", models.OutcomeLoss, recordingSettle(&calls))
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, tr.Match.State)
}

func TestLifecycleResolve(t *testing.T) {
	l, _ := setupLifecycle(t)
	m := l.Create("x", "y")
	var calls int32

	tr, err := l.Resolve(m.ID, "y", recordingSettle(&calls))
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, "y", tr.Match.Winner)
	assert.Equal(t, models.ResolvedByOracle, tr.Match.ResolvedBy)

	again, err := l.Resolve(m.ID, "x", recordingSettle(&calls))
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.True(t, again.AlreadyResolved)
	assert.Equal(t, "y", again.Match.Winner)
	assert.Same(t, tr.Settlement, again.Settlement)
	assert.EqualValues(t, 1, calls)

	_, err = l.Declare(m.ID, "x", models.OutcomeWin, recordingSettle(&calls))
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestLifecycleResolveDisputed(t *testing.T) {
	l, _ := setupLifecycle(t)
	m := l.Create("x", "y")
	var calls int32

	_, err := l.Declare(m.ID, "x", models.OutcomeLoss, recordingSettle(&calls))
	require.NoError(t, err)
	_, err = l.Declare(m.ID, "y", models.OutcomeLoss, recordingSettle(&calls))
	require.NoError(t, err)

	_, err = l.Resolve(m.ID, "x", recordingSettle(&calls))
	assert.ErrorIs(t, err, ErrMatchClosed)
	assert.Zero(t, calls)
}

func TestLifecycleConcurrentDeclareAndResolveSettleOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		l, _ := setupLifecycle(t)
		m := l.Create("x", "y")
		var calls int32
		settle := recordingSettle(&calls)

		_, err := l.Declare(m.ID, "x", models.OutcomeWin, settle)
		require.NoError(t, err)

		var wg sync.WaitGroup
		var changed int32
		wg.Add(2)
		go func() {
			defer wg.Done()
			if tr, err := l.Declare(m.ID, "y", models.OutcomeLoss, settle); err == nil && tr.Changed {
				atomic.AddInt32(&changed, 1)
			}
		}()
		go func() {
			defer wg.Done()
			if tr, err := l.Resolve(m.ID, "x", settle); err == nil && tr.Changed {
				atomic.AddInt32(&changed, 1)
			}
		}()
		wg.Wait()

		assert.EqualValues(t, 1, calls)
		assert.EqualValues(t, 1, changed)

		got, err := l.Get(m.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchCompleted, got.State)
		assert.Equal(t, "x", got.Winner)
	}
}

func TestLifecyclePendingQueries(t *testing.T) {
	l, clock := setupLifecycle(t)
	var calls int32

	old := l.Create("a", "b")
	clock.Advance(time.Hour)
	fresh := l.Create("c", "d")
	done := l.Create("e", "f")
	_, err := l.Resolve(done.ID, "e", recordingSettle(&calls))
	require.NoError(t, err)

	stale := l.PendingOlderThan(30 * time.Minute)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)

	assert.True(t, l.HasPending("a"))
	assert.True(t, l.HasPending("d"))
	assert.False(t, l.HasPending("e"))
	assert.False(t, l.HasPending("nobody"))

	counts := l.Count()
	assert.Equal(t, 2, counts[models.MatchPending])
	assert.Equal(t, 1, counts[models.MatchCompleted])
	assert.NotEqual(t, old.ID, fresh.ID)
}
