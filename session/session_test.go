package session

import (
	"sync"
	"testing"

	"arena-matchmaking/metrics"
	"arena-matchmaking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRegistryRegisterOverwrites(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	first := NewMockSession("s1")
	second := NewMockSession("s2")

	r.Register("p1", first)
	r.Register("p1", second)

	got, ok := r.Lookup("p1")
	require.True(t, ok)
	assert.Equal(t, "s2", got.ID())
	assert.Equal(t, 1, r.Count())
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Register("p1", NewMockSession("s1"))

	r.Unregister("p1")
	r.Unregister("p1")
	r.Unregister("unknown")

	_, ok := r.Lookup("p1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestRegistryUnregisterSessionKeepsNewerConnection(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	stale := NewMockSession("old")
	fresh := NewMockSession("new")

	r.Register("p1", stale)
	r.Register("p1", fresh)

	assert.False(t, r.UnregisterSession("p1", stale))
	got, ok := r.Lookup("p1")
	require.True(t, ok)
	assert.Equal(t, "new", got.ID())

	assert.True(t, r.UnregisterSession("p1", fresh))
	_, ok = r.Lookup("p1")
	assert.False(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := NewMockSession("s")
			r.Register("p", s)
			r.Lookup("p")
			if i%2 == 0 {
				r.Unregister("p")
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, r.Count(), 1)
}

func TestDispatcherNotify(t *testing.T) {
	t.Run("delivers to registered session", func(t *testing.T) {
		r := NewRegistry(zaptest.NewLogger(t))
		m := metrics.NewMock()
		d := NewDispatcher(r, m, zaptest.NewLogger(t))
		s := NewMockSession("s1")
		r.Register("p1", s)

		d.Notify("p1", models.Event{Name: models.EventMatchDisputed, Data: models.MatchDisputedPayload{MatchID: "m1"}})

		events := s.EventsNamed(models.EventMatchDisputed)
		require.Len(t, events, 1)
		assert.Equal(t, models.MatchDisputedPayload{MatchID: "m1"}, events[0].Data)
		assert.Equal(t, 1, m.NotificationsSent())
	})

	t.Run("silently drops for absent session", func(t *testing.T) {
		r := NewRegistry(zaptest.NewLogger(t))
		m := metrics.NewMock()
		d := NewDispatcher(r, m, zaptest.NewLogger(t))

		d.Notify("ghost", models.Event{Name: models.EventMatchResolved})

		assert.Equal(t, 0, m.NotificationsSent())
		assert.Equal(t, 1, m.NotificationsDropped())
	})

	t.Run("drops when the session fails", func(t *testing.T) {
		r := NewRegistry(zaptest.NewLogger(t))
		m := metrics.NewMock()
		d := NewDispatcher(r, m, zaptest.NewLogger(t))
		s := NewMockSession("s1")
		s.Close()
		r.Register("p1", s)

		d.Notify("p1", models.Event{Name: models.EventMatchResolved})

		assert.Empty(t, s.Events())
		assert.Equal(t, 1, m.NotificationsDropped())
	})
}

func TestDispatcherDeliverNilSession(t *testing.T) {
	m := metrics.NewMock()
	d := NewDispatcher(NewRegistry(zaptest.NewLogger(t)), m, zaptest.NewLogger(t))

	d.Deliver("p1", nil, models.Event{Name: models.EventMatchFound})

	assert.Equal(t, 1, m.NotificationsDropped())
}
