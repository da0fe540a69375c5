package session

import (
	"sync"
	"time"

	"github.com/mkurniadi/faregate/internal/aggregator"
)

// Manager tracks the active engine per searcher. When a searcher submits a
// new intent while the previous session is still running, the old engine is
// cancelled so its late results are discarded instead of leaking into the
// new result set.
type Manager struct {
	mu         sync.Mutex
	byToken    map[string]*managed
	bySearcher map[string]string // searcher key -> active token
	ttl        time.Duration
}

type managed struct {
	engine  *aggregator.Engine
	created time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		byToken:    make(map[string]*managed),
		bySearcher: make(map[string]string),
		ttl:        ttl,
	}
}

// Register installs the engine as the searcher's active session, cancelling
// and evicting whatever was active before.
func (m *Manager) Register(searcherKey string, eng *aggregator.Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()

	if prev, ok := m.bySearcher[searcherKey]; ok {
		if old, live := m.byToken[prev]; live {
			old.engine.Cancel()
			delete(m.byToken, prev)
		}
	}

	m.bySearcher[searcherKey] = eng.Token()
	m.byToken[eng.Token()] = &managed{engine: eng, created: time.Now()}
}

// Lookup resolves a session token to its engine, for result polling.
// Expired sessions are evicted here too, so a token past its TTL stops
// resolving even if no new search ever arrives.
func (m *Manager) Lookup(token string) (*aggregator.Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()

	mg, ok := m.byToken[token]
	if !ok {
		return nil, false
	}
	return mg.engine, true
}

// sweepLocked evicts sessions past their lifetime. A results page only lives
// so long; anything older is cancelled and dropped.
func (m *Manager) sweepLocked() {
	if m.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.ttl)
	for token, mg := range m.byToken {
		if mg.created.Before(cutoff) {
			mg.engine.Cancel()
			delete(m.byToken, token)
		}
	}
	for key, token := range m.bySearcher {
		if _, live := m.byToken[token]; !live {
			delete(m.bySearcher, key)
		}
	}
}
