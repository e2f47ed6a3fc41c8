package service

import (
	"context"
	"fmt"
	"sync"

	"arena-matchmaking/models"
)

// MockPlayerStore is an in-memory PlayerStore with spies for tests
type MockPlayerStore struct {
	mu      sync.Mutex
	players map[string]models.Player

	GetPlayerFunc       func(ctx context.Context, playerID string) (*models.Player, error)
	ApplySettlementFunc func(ctx context.Context, winnerID, loserID string, delta int) (*models.Settlement, error)

	SettlementCalls []SettlementCall
}

// SettlementCall records one ApplySettlement invocation
type SettlementCall struct {
	WinnerID string
	LoserID  string
	Delta    int
}

// NewMockPlayerStore creates a store holding the given players
func NewMockPlayerStore(players ...*models.Player) *MockPlayerStore {
	m := &MockPlayerStore{players: make(map[string]models.Player)}
	for _, p := range players {
		m.players[p.ID] = *p
	}
	return m
}

// Put inserts or replaces a player
func (m *MockPlayerStore) Put(p *models.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = *p
}

func (m *MockPlayerStore) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(ctx, playerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrPlayerNotFound)
	}
	return &p, nil
}

func (m *MockPlayerStore) ApplySettlement(ctx context.Context, winnerID, loserID string, delta int) (*models.Settlement, error) {
	m.mu.Lock()
	m.SettlementCalls = append(m.SettlementCalls, SettlementCall{WinnerID: winnerID, LoserID: loserID, Delta: delta})
	m.mu.Unlock()

	if m.ApplySettlementFunc != nil {
		return m.ApplySettlementFunc(ctx, winnerID, loserID, delta)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	winner, ok := m.players[winnerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", winnerID, ErrPlayerNotFound)
	}
	loser, ok := m.players[loserID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", loserID, ErrPlayerNotFound)
	}

	winner, loser = models.Settle(winner, loser, delta)
	m.players[winnerID] = winner
	m.players[loserID] = loser

	return &models.Settlement{Winner: winner, Loser: loser, Delta: delta}, nil
}

// Settlements returns a copy of the recorded settlement calls
func (m *MockPlayerStore) Settlements() []SettlementCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SettlementCall(nil), m.SettlementCalls...)
}

// MockArchive records saved matches
type MockArchive struct {
	mu    sync.Mutex
	Saved []models.Match

	SaveMatchFunc func(ctx context.Context, m *models.Match) error
}

func (a *MockArchive) SaveMatch(ctx context.Context, m *models.Match) error {
	a.mu.Lock()
	a.Saved = append(a.Saved, *m.Clone())
	a.mu.Unlock()

	if a.SaveMatchFunc != nil {
		return a.SaveMatchFunc(ctx, m)
	}
	return nil
}

// Matches returns a copy of the saved records
func (a *MockArchive) Matches() []models.Match {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Match(nil), a.Saved...)
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	events []models.MatchEvent

	PublishFunc func(ctx context.Context, ev models.MatchEvent) error
}

func (p *MockPublisher) Publish(ctx context.Context, ev models.MatchEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()

	if p.PublishFunc != nil {
		return p.PublishFunc(ctx, ev)
	}
	return nil
}

// Events returns the published events of the given kind, all when kind is empty
func (p *MockPublisher) Events(kind models.MatchEventKind) []models.MatchEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []models.MatchEvent
	for _, ev := range p.events {
		if kind == "" || ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
