package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"arena-matchmaking/models"
	"arena-matchmaking/service"
)

var _ service.PlayerStore = (*PlayerStore)(nil)

// PlayerStore is the SQLite projection of player accounts
type PlayerStore struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger *zap.Logger
}

// NewPlayerStore creates a store over an opened database
func NewPlayerStore(db *sql.DB, clock clockwork.Clock, logger *zap.Logger) *PlayerStore {
	return &PlayerStore{
		db:     db,
		clock:  clock,
		logger: logger,
	}
}

const selectPlayer = `SELECT id, display_name, rating, wins, losses, external_tag FROM players WHERE id = ?`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetPlayer returns the player's current projection
func (s *PlayerStore) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	return getPlayer(ctx, s.db, playerID)
}

func getPlayer(ctx context.Context, q queryRower, playerID string) (*models.Player, error) {
	var p models.Player
	err := q.QueryRowContext(ctx, selectPlayer, playerID).
		Scan(&p.ID, &p.DisplayName, &p.Rating, &p.Wins, &p.Losses, &p.ExternalTag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", playerID, service.ErrPlayerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &p, nil
}

// UpsertPlayer creates the player or updates its profile fields.
// Rating and record of an existing player are left untouched.
func (s *PlayerStore) UpsertPlayer(ctx context.Context, p *models.Player) error {
	now := s.clock.Now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, rating, wins, losses, external_tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			external_tag = excluded.external_tag,
			updated_at = excluded.updated_at`,
		p.ID, p.DisplayName, p.Rating, p.Wins, p.Losses, p.ExternalTag, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}

	s.logger.Info("Player saved",
		zap.String("player_id", p.ID),
		zap.String("display_name", p.DisplayName),
	)
	return nil
}

// ApplySettlement applies the rating exchange to both players in one transaction
func (s *PlayerStore) ApplySettlement(ctx context.Context, winnerID, loserID string, delta int) (*models.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback()

	winner, err := getPlayer(ctx, tx, winnerID)
	if err != nil {
		return nil, err
	}
	loser, err := getPlayer(ctx, tx, loserID)
	if err != nil {
		return nil, err
	}

	w, l := models.Settle(*winner, *loser, delta)
	now := s.clock.Now().Unix()

	update := `UPDATE players SET rating = ?, wins = ?, losses = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, update, w.Rating, w.Wins, w.Losses, now, w.ID); err != nil {
		return nil, fmt.Errorf("failed to update winner: %w", err)
	}
	if _, err := tx.ExecContext(ctx, update, l.Rating, l.Wins, l.Losses, now, l.ID); err != nil {
		return nil, fmt.Errorf("failed to update loser: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settlements (winner_id, loser_id, delta, winner_rating, loser_rating, settled_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, l.ID, delta, w.Rating, l.Rating, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	s.logger.Info("Ratings settled",
		zap.String("winner_id", w.ID),
		zap.Int("winner_rating", w.Rating),
		zap.String("loser_id", l.ID),
		zap.Int("loser_rating", l.Rating),
	)

	return &models.Settlement{Winner: w, Loser: l, Delta: delta}, nil
}

// SettlementCount returns how many settlements involve the player
func (s *PlayerStore) SettlementCount(ctx context.Context, playerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlements WHERE winner_id = ? OR loser_id = ?`, playerID, playerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count settlements: %w", err)
	}
	return n, nil
}
