package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// Service holds all the Prometheus collectors of the application.
type Service struct {
	Admissions           prometheus.Counter
	DuplicateAdmissions  prometheus.Counter
	Withdrawals          prometheus.Counter
	Pairings             prometheus.Counter
	MatchesResolved      *prometheus.CounterVec
	MatchesDisputed      prometheus.Counter
	OracleLookups        *prometheus.CounterVec
	NotificationsSent    prometheus.Counter
	NotificationsDropped prometheus.Counter
	QueueDepth           prometheus.Gauge
	StalePendingMatches  prometheus.Gauge
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus collectors.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_queue_admissions_total",
			Help: "The total number of players admitted into the matchmaking queue.",
		}),
		DuplicateAdmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_queue_duplicate_admissions_total",
			Help: "The total number of admission requests ignored because the player was already queued.",
		}),
		Withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_queue_withdrawals_total",
			Help: "The total number of players removed from the queue without being paired.",
		}),
		Pairings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_pairings_total",
			Help: "The total number of matches created by the pairing algorithm.",
		}),
		MatchesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_matches_resolved_total",
			Help: "The total number of matches completed, by resolution path.",
		}, []string{"path"}),
		MatchesDisputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_matches_disputed_total",
			Help: "The total number of matches that ended with conflicting declarations.",
		}),
		OracleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_oracle_lookups_total",
			Help: "The total number of result oracle lookups, by outcome.",
		}, []string{"outcome"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_notifications_sent_total",
			Help: "The total number of events delivered to a live session.",
		}),
		NotificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_notifications_dropped_total",
			Help: "The total number of events dropped because no session could take them.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_queue_depth",
			Help: "The number of players currently waiting in the queue.",
		}),
		StalePendingMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_stale_pending_matches",
			Help: "The number of pending matches older than the stale threshold.",
		}),
	}

	reg.MustRegister(
		s.Admissions,
		s.DuplicateAdmissions,
		s.Withdrawals,
		s.Pairings,
		s.MatchesResolved,
		s.MatchesDisputed,
		s.OracleLookups,
		s.NotificationsSent,
		s.NotificationsDropped,
		s.QueueDepth,
		s.StalePendingMatches,
	)

	return s
}

func (s *Service) IncAdmissions() {
	s.Admissions.Inc()
}

func (s *Service) IncDuplicateAdmissions() {
	s.DuplicateAdmissions.Inc()
}

func (s *Service) IncWithdrawals() {
	s.Withdrawals.Inc()
}

func (s *Service) IncPairings() {
	s.Pairings.Inc()
}

func (s *Service) IncMatchesResolved(path string) {
	s.MatchesResolved.WithLabelValues(path).Inc()
}

func (s *Service) IncMatchesDisputed() {
	s.MatchesDisputed.Inc()
}

func (s *Service) IncOracleLookups(outcome string) {
	s.OracleLookups.WithLabelValues(outcome).Inc()
}

func (s *Service) IncNotificationsSent() {
	s.NotificationsSent.Inc()
}

func (s *Service) IncNotificationsDropped() {
	s.NotificationsDropped.Inc()
}

func (s *Service) SetQueueDepth(depth int) {
	s.QueueDepth.Set(float64(depth))
}

func (s *Service) SetStalePendingMatches(count int) {
	s.StalePendingMatches.Set(float64(count))
}
