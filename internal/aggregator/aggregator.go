// Package aggregator owns the live result set of one search session. It
// fires every provider adapter concurrently, merges whoever finishes, and
// collapses duplicate physical itineraries to the cheapest instance.
package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkurniadi/faregate/internal/models"
	"github.com/mkurniadi/faregate/internal/observability"
	"github.com/mkurniadi/faregate/internal/providers"
	"github.com/mkurniadi/faregate/internal/ratelimit"
)

type ProviderState string

const (
	StatePending ProviderState = "pending"
	StateSuccess ProviderState = "success"
	StateError   ProviderState = "error"
)

type ProviderStatus struct {
	State   ProviderState
	Kind    providers.ErrorKind
	Message string
}

// Snapshot is a read-only copy of the aggregated set. It may be taken at
// any time, including while slower adapters are still pending.
type Snapshot struct {
	SessionToken string
	Offers       []models.Offer // surviving offers in first-seen signature order
	Statuses     map[string]ProviderStatus
	Complete     bool
}

// PriceBounds returns the derived min/max total price across the current
// offers; zero bounds when the set is empty.
func (s Snapshot) PriceBounds() models.PriceBounds {
	var b models.PriceBounds
	for i, o := range s.Offers {
		p := o.Fare.TotalPrice
		if i == 0 {
			b.Min, b.Max = p, p
			continue
		}
		if p < b.Min {
			b.Min = p
		}
		if p > b.Max {
			b.Max = p
		}
	}
	return b
}

type Config struct {
	AdapterTimeout time.Duration
	RateLimiter    *ratelimit.ProviderLimiter
}

type entry struct {
	offer models.Offer
	seq   int // first-seen order of the signature; stable across supersession
}

// Engine mutates its result set only through OnAdapterOffers and
// OnAdapterError; everything else reads snapshots.
type Engine struct {
	session  models.SearchSession
	adapters []providers.Adapter
	cfg      Config
	log      zerolog.Logger

	mu        sync.RWMutex
	entries   map[string]entry
	statuses  map[string]ProviderStatus
	seq       int
	cancelled bool

	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

func NewEngine(sess models.SearchSession, adapters []providers.Adapter, cfg Config, log zerolog.Logger) *Engine {
	statuses := make(map[string]ProviderStatus, len(adapters))
	for _, a := range adapters {
		statuses[a.Name()] = ProviderStatus{State: StatePending}
	}
	return &Engine{
		session:  sess,
		adapters: adapters,
		cfg:      cfg,
		log:      log.With().Str("session", sess.Token).Logger(),
		entries:  make(map[string]entry),
		statuses: statuses,
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (e *Engine) Token() string {
	return e.session.Token
}

func (e *Engine) Intent() models.SearchIntent {
	return e.session.Intent
}

// Done is closed once every adapter reached a terminal state or the engine
// was cancelled.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Cancel marks the session stale. In-flight adapter calls are interrupted
// and any result still arriving for this session is discarded, never merged.
func (e *Engine) Cancel() {
	e.cancelOnce.Do(func() {
		e.mu.Lock()
		e.cancelled = true
		e.mu.Unlock()
		close(e.cancelCh)
	})
}

type adapterResult struct {
	token    string
	provider string
	offers   []models.Offer
	err      error
}

// Run fires all adapters in parallel and merges results as each completes.
// It blocks until every adapter is terminal or ctx ends; one provider's
// slowness or failure never delays another's results.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.cancelCh:
			cancel()
		case <-runCtx.Done():
		}
	}()

	resultCh := make(chan adapterResult, len(e.adapters))
	var wg sync.WaitGroup

	for _, a := range e.adapters {
		wg.Add(1)
		go func(adapter providers.Adapter) {
			defer wg.Done()
			resultCh <- e.fetchOne(runCtx, adapter)
		}(a)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for r := range resultCh {
		if r.err != nil {
			e.OnAdapterError(r.token, r.provider, r.err)
		} else {
			e.OnAdapterOffers(r.token, r.provider, r.offers)
		}
	}
}

func (e *Engine) fetchOne(ctx context.Context, adapter providers.Adapter) adapterResult {
	name := adapter.Name()
	res := adapterResult{token: e.session.Token, provider: name}

	if e.cfg.RateLimiter != nil {
		if err := e.cfg.RateLimiter.Wait(ctx, name); err != nil {
			res.err = providers.Classify(name, err)
			return res
		}
	}

	fetchCtx := ctx
	if e.cfg.AdapterTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.AdapterTimeout)
		defer cancel()
	}

	start := time.Now()
	offers, err := adapter.Fetch(fetchCtx, e.session)
	if err != nil {
		perr := providers.Classify(name, err)
		observability.ObserveProvider(name, string(perr.Kind), time.Since(start))
		res.err = perr
		return res
	}

	observability.ObserveProvider(name, "success", time.Since(start))
	res.offers = offers
	return res
}

// OnAdapterOffers merges one adapter's batch. Safe to call at most once per
// provider per session; later calls and calls carrying a stale session token
// are ignored.
func (e *Engine) OnAdapterOffers(token, provider string, offers []models.Offer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.acceptLocked(token, provider) {
		return
	}

	merged, superseded := 0, 0
	for _, o := range offers {
		if !o.Valid() {
			continue
		}
		switch e.mergeLocked(o) {
		case mergeInserted:
			merged++
		case mergeSuperseded:
			superseded++
		}
	}

	e.statuses[provider] = ProviderStatus{State: StateSuccess}
	observability.OffersMerged.WithLabelValues(provider).Add(float64(merged))
	e.log.Info().
		Str("provider", provider).
		Int("received", len(offers)).
		Int("inserted", merged).
		Int("superseded", superseded).
		Msg("adapter batch merged")
}

// OnAdapterError records a terminal failure for one provider. The rest of
// the result set is unaffected.
func (e *Engine) OnAdapterError(token, provider string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.acceptLocked(token, provider) {
		return
	}

	e.statuses[provider] = ProviderStatus{
		State:   StateError,
		Kind:    providers.Kind(err),
		Message: err.Error(),
	}
	e.log.Warn().Str("provider", provider).Err(err).Msg("adapter failed")
}

func (e *Engine) acceptLocked(token, provider string) bool {
	if e.cancelled || token != e.session.Token {
		observability.ProviderRequests.WithLabelValues(provider, "stale").Inc()
		return false
	}
	st, known := e.statuses[provider]
	if !known || st.State != StatePending {
		return false
	}
	return true
}

type mergeOutcome int

const (
	mergeDropped mergeOutcome = iota
	mergeInserted
	mergeSuperseded
)

func (e *Engine) mergeLocked(o models.Offer) mergeOutcome {
	sig := o.Signature()
	if sig == "" {
		return mergeDropped
	}
	cur, exists := e.entries[sig]
	if !exists {
		e.entries[sig] = entry{offer: o, seq: e.seq}
		e.seq++
		return mergeInserted
	}
	// Strictly cheaper wins; ties keep the first seen. The original seq is
	// kept so projection order stays stable under supersession.
	if o.Fare.TotalPrice < cur.offer.Fare.TotalPrice {
		e.entries[sig] = entry{offer: o, seq: cur.seq}
		observability.DedupSupersessions.Inc()
		return mergeSuperseded
	}
	return mergeDropped
}

// Snapshot copies the current state. Offers are ordered by first-seen
// signature order, which makes projection tie-breaking deterministic.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ordered := make([]entry, 0, len(e.entries))
	for _, en := range e.entries {
		ordered = append(ordered, en)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	offers := make([]models.Offer, len(ordered))
	for i, en := range ordered {
		offers[i] = en.offer
	}

	statuses := make(map[string]ProviderStatus, len(e.statuses))
	complete := true
	for name, st := range e.statuses {
		statuses[name] = st
		if st.State == StatePending {
			complete = false
		}
	}

	return Snapshot{
		SessionToken: e.session.Token,
		Offers:       offers,
		Statuses:     statuses,
		Complete:     complete,
	}
}
