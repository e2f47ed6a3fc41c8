package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"arena-matchmaking/metrics"
	"arena-matchmaking/models"
	"arena-matchmaking/oracle"
	"arena-matchmaking/session"
)

// MatcherService owns the queue and the match table and drives the match lifecycle
type MatcherService struct {
	queue    *Queue
	matches  *Lifecycle
	registry *session.Registry
	notifier Notifier
	players  PlayerStore
	oracle   oracle.Oracle
	archive  Archive
	events   EventPublisher
	metrics  metrics.Metrics
	clock    clockwork.Clock
	logger   *zap.Logger
	config   *MatcherConfig
}

// MatcherConfig configures pairing and the lifecycle
type MatcherConfig struct {
	MaxRatingDiff      int           // Rating window for fresh players
	RelaxAfter         time.Duration // Wait after which the window is unbounded
	RatingDelta        int           // Rating exchanged on every completed match
	RejectBusyPlayers  bool          // Refuse admission while the player has a pending match
	SweepInterval      time.Duration // Periodic re-pairing of the queue, 0 disables it
	StaleMatchAfter    time.Duration // Age after which a pending match is reported as stale
	StaleCheckInterval time.Duration // How often stale matches are counted
}

// DefaultMatcherConfig returns the default configuration
func DefaultMatcherConfig() *MatcherConfig {
	return &MatcherConfig{
		MaxRatingDiff:      200,
		RelaxAfter:         10 * time.Second,
		RatingDelta:        models.DefaultRatingDelta,
		StaleMatchAfter:    30 * time.Minute,
		StaleCheckInterval: time.Minute,
	}
}

func (c *MatcherConfig) pairingRules() PairingRules {
	return PairingRules{MaxRatingDiff: c.MaxRatingDiff, RelaxAfter: c.RelaxAfter}
}

// Dependencies are the collaborators of MatcherService.
// Archive and Events are optional.
type Dependencies struct {
	Registry *session.Registry
	Notifier Notifier
	Players  PlayerStore
	Oracle   oracle.Oracle
	Archive  Archive
	Events   EventPublisher
	Metrics  metrics.Metrics
	Clock    clockwork.Clock
}

// VerifyResult is the outcome of a successful oracle verification
type VerifyResult struct {
	Match           *models.Match
	Settlement      *models.Settlement
	AlreadyResolved bool
}

// QueueStatus is a point-in-time view of the service
type QueueStatus struct {
	QueueSize      int `json:"queue_size"`
	PendingMatches int `json:"pending_matches"`
	OnlineSessions int `json:"online_sessions"`
}

// NewMatcherService creates the matchmaking service
func NewMatcherService(deps Dependencies, logger *zap.Logger, config *MatcherConfig) *MatcherService {
	if config == nil {
		config = DefaultMatcherConfig()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Registry == nil {
		deps.Registry = session.NewRegistry(logger)
	}
	if deps.Notifier == nil {
		deps.Notifier = session.NewDispatcher(deps.Registry, deps.Metrics, logger)
	}

	return &MatcherService{
		queue:    NewQueue(config.pairingRules(), deps.Clock),
		matches:  NewLifecycle(config.RatingDelta, deps.Clock),
		registry: deps.Registry,
		notifier: deps.Notifier,
		players:  deps.Players,
		oracle:   deps.Oracle,
		archive:  deps.Archive,
		events:   deps.Events,
		metrics:  deps.Metrics,
		clock:    deps.Clock,
		logger:   logger,
		config:   config,
	}
}

// RegisterSession binds the player id to a live connection
func (s *MatcherService) RegisterSession(playerID string, conn models.Session) {
	s.registry.Register(playerID, conn)
}

// JoinQueue admits the player and tries to pair them right away
func (s *MatcherService) JoinQueue(ctx context.Context, playerID string, conn models.Session) (AdmitResult, error) {
	if s.config.RejectBusyPlayers && s.matches.HasPending(playerID) {
		return AdmitResult{}, ErrPlayerBusy
	}

	player, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		return AdmitResult{}, fmt.Errorf("failed to load player %s: %w", playerID, err)
	}

	result := s.queue.Admit(models.NewQueueEntry(player, conn, s.clock.Now()))
	if result.Duplicate {
		s.metrics.IncDuplicateAdmissions()
		s.logger.Debug("Player already queued", zap.String("player_id", playerID))
		return result, nil
	}

	s.metrics.IncAdmissions()
	s.metrics.SetQueueDepth(s.queue.Size())
	s.logger.Info("Player joined queue",
		zap.String("player_id", playerID),
		zap.Int("rating", player.Rating),
		zap.Int("position", result.Position),
	)

	s.notifier.Deliver(playerID, conn, models.Event{
		Name: models.EventQueueJoined,
		Data: models.QueueJoinedPayload{Position: result.Position},
	})

	if result.Opponent != nil {
		s.startMatch(ctx, result.Entry, result.Opponent)
	}

	return result, nil
}

// LeaveQueue removes the player from the queue
func (s *MatcherService) LeaveQueue(playerID string) bool {
	removed := s.queue.Withdraw(playerID)
	if removed {
		s.metrics.IncWithdrawals()
		s.metrics.SetQueueDepth(s.queue.Size())
		s.logger.Info("Player left queue", zap.String("player_id", playerID))
	}
	return removed
}

// Disconnect withdraws the entry queued by this connection and drops the
// session if it is still the current one
func (s *MatcherService) Disconnect(playerID string, conn models.Session) {
	if playerID == "" {
		return
	}
	if s.queue.WithdrawSession(playerID, conn) {
		s.metrics.IncWithdrawals()
		s.metrics.SetQueueDepth(s.queue.Size())
		s.logger.Info("Disconnected player left queue", zap.String("player_id", playerID))
	}
	s.registry.UnregisterSession(playerID, conn)
}

// DeclareResult records a participant's own outcome
func (s *MatcherService) DeclareResult(ctx context.Context, req models.DeclareRequest) (*models.Match, error) {
	outcome, ok := models.ParseOutcome(req.Result)
	if !ok {
		return nil, ErrInvalidOutcome
	}

	tr, err := s.matches.Declare(req.MatchID, req.PlayerID, outcome, s.settle(ctx))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Result declared",
		zap.String("match_id", req.MatchID),
		zap.String("player_id", req.PlayerID),
		zap.String("result", string(outcome)),
	)

	if tr.Changed {
		s.finishMatch(ctx, tr)
	}
	return tr.Match, nil
}

// VerifyMatch asks the result oracle for the winner and settles the match
func (s *MatcherService) VerifyMatch(ctx context.Context, matchID, playerID string) (*VerifyResult, error) {
	m, settlement, err := s.matches.Authorize(matchID, playerID)
	if err != nil {
		return nil, err
	}

	switch m.State {
	case models.MatchCompleted:
		return &VerifyResult{Match: m, Settlement: settlement, AlreadyResolved: true}, nil
	case models.MatchDisputed:
		return nil, ErrMatchClosed
	}

	playerA, err := s.players.GetPlayer(ctx, m.PlayerA)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", m.PlayerA, err)
	}
	playerB, err := s.players.GetPlayer(ctx, m.PlayerB)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", m.PlayerB, err)
	}

	res, err := s.oracle.Lookup(ctx, oracle.Query{
		TagA:  playerA.ExternalTag,
		TagB:  playerB.ExternalTag,
		Since: m.CreatedAt,
	})
	if err != nil {
		s.metrics.IncOracleLookups("error")
		s.logger.Warn("Oracle lookup failed", zap.String("match_id", matchID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	s.metrics.IncOracleLookups(string(res.Verdict))

	var winner string
	switch res.Verdict {
	case oracle.VerdictAWins:
		winner = m.PlayerA
	case oracle.VerdictBWins:
		winner = m.PlayerB
	case oracle.VerdictDraw:
		return nil, ErrDraw
	default:
		return nil, ErrOracleNoRecord
	}

	tr, err := s.matches.Resolve(matchID, winner, s.settle(ctx))
	if err != nil {
		return nil, err
	}
	if tr.Changed {
		s.finishMatch(ctx, tr)
	}

	return &VerifyResult{Match: tr.Match, Settlement: tr.Settlement, AlreadyResolved: tr.AlreadyResolved}, nil
}

// SweepQueue re-runs pairing over the whole queue and starts the resulting matches
func (s *MatcherService) SweepQueue(ctx context.Context) int {
	pairs := s.queue.Sweep()
	for _, p := range pairs {
		s.startMatch(ctx, p.Player, p.Opponent)
	}
	if len(pairs) > 0 {
		s.logger.Info("Queue sweep paired players", zap.Int("matches", len(pairs)))
	}
	return len(pairs)
}

// ReportStalePending updates the stale pending gauge and returns the stale matches
func (s *MatcherService) ReportStalePending() []*models.Match {
	stale := s.matches.PendingOlderThan(s.config.StaleMatchAfter)
	s.metrics.SetStalePendingMatches(len(stale))
	for _, m := range stale {
		s.logger.Warn("Match pending for too long",
			zap.String("match_id", m.ID),
			zap.Time("created_at", m.CreatedAt),
		)
	}
	return stale
}

// GetMatch returns a copy of the match
func (s *MatcherService) GetMatch(matchID string) (*models.Match, error) {
	return s.matches.Get(matchID)
}

// GetPlayer returns the player's current projection
func (s *MatcherService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	return s.players.GetPlayer(ctx, playerID)
}

// InQueue reports whether the player is waiting for an opponent
func (s *MatcherService) InQueue(playerID string) bool {
	return s.queue.Contains(playerID)
}

// QueueSnapshot returns the queued entries in insertion order
func (s *MatcherService) QueueSnapshot() []models.QueueEntry {
	return s.queue.Snapshot()
}

// Status returns a point-in-time view of the service
func (s *MatcherService) Status() QueueStatus {
	return QueueStatus{
		QueueSize:      s.queue.Size(),
		PendingMatches: s.matches.Count()[models.MatchPending],
		OnlineSessions: s.registry.Count(),
	}
}

func (s *MatcherService) settle(ctx context.Context) SettleFunc {
	return func(winnerID, loserID string, delta int) (*models.Settlement, error) {
		return s.players.ApplySettlement(ctx, winnerID, loserID, delta)
	}
}

// startMatch creates a match for two entries removed from the queue
func (s *MatcherService) startMatch(ctx context.Context, player, opponent *models.QueueEntry) {
	m := s.matches.Create(player.PlayerID, opponent.PlayerID)

	s.metrics.IncPairings()
	s.metrics.SetQueueDepth(s.queue.Size())
	s.logger.Info("Match found",
		zap.String("match_id", m.ID),
		zap.String("player_a", m.PlayerA),
		zap.String("player_b", m.PlayerB),
		zap.Int("rating_diff", ratingDiff(player.Rating, opponent.Rating)),
	)

	s.save(ctx, m)
	s.publish(ctx, models.MatchEvent{
		Kind:    models.MatchEventPaired,
		MatchID: m.ID,
		PlayerA: m.PlayerA,
		PlayerB: m.PlayerB,
		At:      m.CreatedAt,
	})

	s.sendMatchFound(m.ID, player, opponent)
	s.sendMatchFound(m.ID, opponent, player)
}

func (s *MatcherService) sendMatchFound(matchID string, to, opponent *models.QueueEntry) {
	ev := models.Event{
		Name: models.EventMatchFound,
		Data: models.MatchFoundPayload{MatchID: matchID, Opponent: opponent.Profile()},
	}
	if to.Session != nil {
		s.notifier.Deliver(to.PlayerID, to.Session, ev)
		return
	}
	s.notifier.Notify(to.PlayerID, ev)
}

// finishMatch runs the side effects of a terminal transition
func (s *MatcherService) finishMatch(ctx context.Context, tr Transition) {
	m := tr.Match
	s.save(ctx, m)

	ev := models.MatchEvent{
		MatchID:    m.ID,
		PlayerA:    m.PlayerA,
		PlayerB:    m.PlayerB,
		Winner:     m.Winner,
		Settlement: tr.Settlement,
		ResolvedBy: m.ResolvedBy,
		At:         s.clock.Now(),
	}

	if m.State == models.MatchDisputed {
		ev.Kind = models.MatchEventDisputed
		s.metrics.IncMatchesDisputed()
		s.logger.Info("Match disputed", zap.String("match_id", m.ID))
		s.publish(ctx, ev)

		disputed := models.Event{Name: models.EventMatchDisputed, Data: models.MatchDisputedPayload{MatchID: m.ID}}
		s.notifier.Notify(m.PlayerA, disputed)
		s.notifier.Notify(m.PlayerB, disputed)
		return
	}

	ev.Kind = models.MatchEventResolved
	s.metrics.IncMatchesResolved(string(m.ResolvedBy))
	s.logger.Info("Match resolved",
		zap.String("match_id", m.ID),
		zap.String("winner", m.Winner),
		zap.String("resolved_by", string(m.ResolvedBy)),
	)
	s.publish(ctx, ev)

	st := tr.Settlement
	s.notifier.Notify(st.Winner.ID, models.Event{
		Name: models.EventMatchResolved,
		Data: models.MatchResolvedPayload{MatchID: m.ID, Won: true, NewRating: st.Winner.Rating, RatingDelta: st.Delta},
	})
	s.notifier.Notify(st.Loser.ID, models.Event{
		Name: models.EventMatchResolved,
		Data: models.MatchResolvedPayload{MatchID: m.ID, Won: false, NewRating: st.Loser.Rating, RatingDelta: -st.Delta},
	})
}

func (s *MatcherService) save(ctx context.Context, m *models.Match) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveMatch(ctx, m); err != nil {
		s.logger.Warn("Failed to save match", zap.String("match_id", m.ID), zap.Error(err))
	}
}

func (s *MatcherService) publish(ctx context.Context, ev models.MatchEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish match event",
			zap.String("match_id", ev.MatchID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err),
		)
	}
}
