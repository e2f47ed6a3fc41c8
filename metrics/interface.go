package metrics

// Metrics defines the counters and gauges reported by the matchmaking core.
// Components depend on this interface so tests can swap in Mock.
type Metrics interface {
	IncAdmissions()
	IncDuplicateAdmissions()
	IncWithdrawals()
	IncPairings()
	IncMatchesResolved(path string)
	IncMatchesDisputed()
	IncOracleLookups(outcome string)
	IncNotificationsSent()
	IncNotificationsDropped()
	SetQueueDepth(depth int)
	SetStalePendingMatches(count int)
}
