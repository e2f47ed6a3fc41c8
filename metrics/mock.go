package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                   sync.Mutex
	admissions           int
	duplicateAdmissions  int
	withdrawals          int
	pairings             int
	matchesResolved      map[string]int
	matchesDisputed      int
	oracleLookups        map[string]int
	notificationsSent    int
	notificationsDropped int
	queueDepth           int
	stalePendingMatches  int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		matchesResolved: make(map[string]int),
		oracleLookups:   make(map[string]int),
	}
}

func (m *Mock) IncAdmissions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admissions++
}

func (m *Mock) IncDuplicateAdmissions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duplicateAdmissions++
}

func (m *Mock) IncWithdrawals() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawals++
}

func (m *Mock) IncPairings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairings++
}

func (m *Mock) IncMatchesResolved(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesResolved[path]++
}

func (m *Mock) IncMatchesDisputed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesDisputed++
}

func (m *Mock) IncOracleLookups(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oracleLookups[outcome]++
}

func (m *Mock) IncNotificationsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsSent++
}

func (m *Mock) IncNotificationsDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationsDropped++
}

func (m *Mock) SetQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueDepth = depth
}

func (m *Mock) SetStalePendingMatches(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stalePendingMatches = count
}

// Admissions returns the number of times IncAdmissions was called.
func (m *Mock) Admissions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admissions
}

// DuplicateAdmissions returns the number of times IncDuplicateAdmissions was called.
func (m *Mock) DuplicateAdmissions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duplicateAdmissions
}

// Withdrawals returns the number of times IncWithdrawals was called.
func (m *Mock) Withdrawals() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.withdrawals
}

// Pairings returns the number of times IncPairings was called.
func (m *Mock) Pairings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairings
}

// MatchesResolved returns how many matches were completed through the given path.
func (m *Mock) MatchesResolved(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesResolved[path]
}

// MatchesDisputed returns the number of times IncMatchesDisputed was called.
func (m *Mock) MatchesDisputed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesDisputed
}

// OracleLookups returns how many lookups ended with the given outcome.
func (m *Mock) OracleLookups(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oracleLookups[outcome]
}

// NotificationsSent returns the number of times IncNotificationsSent was called.
func (m *Mock) NotificationsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsSent
}

// NotificationsDropped returns the number of times IncNotificationsDropped was called.
func (m *Mock) NotificationsDropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notificationsDropped
}

// QueueDepth returns the last value passed to SetQueueDepth.
func (m *Mock) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueDepth
}

// StalePendingMatches returns the last value passed to SetStalePendingMatches.
func (m *Mock) StalePendingMatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stalePendingMatches
}
