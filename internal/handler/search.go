package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mkurniadi/faregate/internal/aggregator"
	"github.com/mkurniadi/faregate/internal/cache"
	"github.com/mkurniadi/faregate/internal/intent"
	"github.com/mkurniadi/faregate/internal/models"
	"github.com/mkurniadi/faregate/internal/projector"
	"github.com/mkurniadi/faregate/internal/providers"
	"github.com/mkurniadi/faregate/internal/session"
)

type SearchHandler struct {
	initiator      *session.Initiator
	manager        *session.Manager
	adapters       []providers.Adapter
	engineCfg      aggregator.Config
	cache          cache.Cache
	overallTimeout time.Duration
	log            zerolog.Logger
}

func NewSearchHandler(
	initiator *session.Initiator,
	manager *session.Manager,
	adapters []providers.Adapter,
	engineCfg aggregator.Config,
	c cache.Cache,
	overallTimeout time.Duration,
	log zerolog.Logger,
) *SearchHandler {
	return &SearchHandler{
		initiator:      initiator,
		manager:        manager,
		adapters:       adapters,
		engineCfg:      engineCfg,
		cache:          c,
		overallTimeout: overallTimeout,
		log:            log.With().Str("component", "handler").Logger(),
	}
}

type searchBody struct {
	models.RawSearchInput
	Filters    *models.FilterState `json:"filters,omitempty"`
	SearcherID string              `json:"searcher_id,omitempty"`
}

// Search runs one full aggregation synchronously: intent, session, all
// adapters, projection. Partial results with per-provider error states are
// a success response, not an error.
func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var body searchBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	searchIntent, err := intent.Build(body.RawSearchInput)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	filters := models.FilterState{}
	if body.Filters != nil {
		filters = *body.Filters
	}

	if offers, found := h.cache.Get(ctx, searchIntent); found {
		snap := h.cachedSnapshot(offers)
		projected := projector.Project(snap, filters)
		return c.JSON(http.StatusOK, models.SearchResponse{
			Criteria:    searchIntent,
			Metadata:    buildMetadata(snap, len(projected), time.Since(startTime), true),
			Providers:   statusViews(snap),
			PriceBounds: snap.PriceBounds(),
			Complete:    true,
			Offers:      projected,
		})
	}

	eng, err := h.startSession(ctx, c, searchIntent, body.SearcherID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "session_creation_failed",
			Message: "Search could not start: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	runCtx, cancel := context.WithTimeout(ctx, h.overallTimeout)
	defer cancel()
	eng.Run(runCtx)

	snap := eng.Snapshot()
	if snap.Complete && countFailed(snap) == 0 {
		_ = h.cache.Set(ctx, searchIntent, snap.Offers)
	}

	projected := projector.Project(snap, filters)
	return c.JSON(http.StatusOK, models.SearchResponse{
		SessionToken: snap.SessionToken,
		Criteria:     searchIntent,
		Metadata:     buildMetadata(snap, len(projected), time.Since(startTime), false),
		Providers:    statusViews(snap),
		PriceBounds:  snap.PriceBounds(),
		Complete:     snap.Complete,
		Offers:       projected,
	})
}

// SearchAsync starts a session and returns its token immediately; the
// caller polls Results while adapters are still completing.
func (h *SearchHandler) SearchAsync(c echo.Context) error {
	ctx := c.Request().Context()

	var body searchBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	searchIntent, err := intent.Build(body.RawSearchInput)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	eng, err := h.startSession(ctx, c, searchIntent, body.SearcherID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "session_creation_failed",
			Message: "Search could not start: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	// Detached from the request: polling clients outlive this request's ctx.
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), h.overallTimeout)
		defer cancel()
		eng.Run(runCtx)
	}()

	return c.JSON(http.StatusAccepted, models.AsyncSearchResponse{
		SessionToken: eng.Token(),
		Criteria:     searchIntent,
	})
}

// Results serves the current snapshot of a running or finished session,
// projected through filters supplied as query parameters.
func (h *SearchHandler) Results(c echo.Context) error {
	startTime := time.Now()
	token := c.Param("token")

	eng, ok := h.manager.Lookup(token)
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "unknown_session",
			Message: "No active search session for token",
			Code:    http.StatusNotFound,
		})
	}

	filters := filtersFromQuery(c)
	snap := eng.Snapshot()
	projected := projector.Project(snap, filters)

	return c.JSON(http.StatusOK, models.SearchResponse{
		SessionToken: snap.SessionToken,
		Criteria:     eng.Intent(),
		Metadata:     buildMetadata(snap, len(projected), time.Since(startTime), false),
		Providers:    statusViews(snap),
		PriceBounds:  snap.PriceBounds(),
		Complete:     snap.Complete,
		Offers:       projected,
	})
}

func (h *SearchHandler) startSession(ctx context.Context, c echo.Context, searchIntent models.SearchIntent, searcherID string) (*aggregator.Engine, error) {
	sess, err := h.initiator.Initiate(ctx, searchIntent)
	if err != nil {
		return nil, err
	}

	eng := aggregator.NewEngine(sess, h.adapters, h.engineCfg, h.log)
	key := searcherID
	if key == "" {
		key = c.RealIP()
	}
	h.manager.Register(key, eng)
	return eng, nil
}

// cachedSnapshot reconstructs a complete snapshot from cached offers so the
// cache-hit path and the live path share one projection/response shape.
func (h *SearchHandler) cachedSnapshot(offers []models.Offer) aggregator.Snapshot {
	statuses := make(map[string]aggregator.ProviderStatus, len(h.adapters))
	for _, a := range h.adapters {
		statuses[a.Name()] = aggregator.ProviderStatus{State: aggregator.StateSuccess}
	}
	return aggregator.Snapshot{
		Offers:   offers,
		Statuses: statuses,
		Complete: true,
	}
}

func filtersFromQuery(c echo.Context) models.FilterState {
	filters := models.FilterState{
		Airlines:       splitParam(c.QueryParam("airlines")),
		StopBuckets:    splitParam(c.QueryParam("stop_buckets")),
		DepartureBands: splitParam(c.QueryParam("departure_bands")),
		SortBy:         c.QueryParam("sort_by"),
	}
	if v := c.QueryParam("price_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.PriceMin = &f
		}
	}
	if v := c.QueryParam("price_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filters.PriceMax = &f
		}
	}
	return filters
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func statusViews(snap aggregator.Snapshot) map[string]models.ProviderStatusView {
	views := make(map[string]models.ProviderStatusView, len(snap.Statuses))
	for name, st := range snap.Statuses {
		view := models.ProviderStatusView{State: string(st.State)}
		if st.State == aggregator.StateError {
			view.Error = string(st.Kind)
		}
		views[name] = view
	}
	return views
}

func countFailed(snap aggregator.Snapshot) int {
	failed := 0
	for _, st := range snap.Statuses {
		if st.State == aggregator.StateError {
			failed++
		}
	}
	return failed
}

func buildMetadata(snap aggregator.Snapshot, totalResults int, elapsed time.Duration, cacheHit bool) models.SearchMetadata {
	succeeded := 0
	var failedProviders []string
	for name, st := range snap.Statuses {
		switch st.State {
		case aggregator.StateSuccess:
			succeeded++
		case aggregator.StateError:
			failedProviders = append(failedProviders, name)
		}
	}
	sort.Strings(failedProviders)

	return models.SearchMetadata{
		TotalResults:       totalResults,
		ProvidersQueried:   len(snap.Statuses),
		ProvidersSucceeded: succeeded,
		ProvidersFailed:    len(failedProviders),
		FailedProviders:    failedProviders,
		SearchTimeMs:       elapsed.Milliseconds(),
		CacheHit:           cacheHit,
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
