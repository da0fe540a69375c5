package models

type ProviderStatusView struct {
	State string `json:"state"` // pending | success | error
	Error string `json:"error,omitempty"`
}

type SearchMetadata struct {
	TotalResults       int      `json:"total_results"`
	ProvidersQueried   int      `json:"providers_queried"`
	ProvidersSucceeded int      `json:"providers_succeeded"`
	ProvidersFailed    int      `json:"providers_failed"`
	FailedProviders    []string `json:"failed_providers,omitempty"`
	SearchTimeMs       int64    `json:"search_time_ms"`
	CacheHit           bool     `json:"cache_hit"`
}

type SearchResponse struct {
	SessionToken string                        `json:"session_token,omitempty"`
	Criteria     SearchIntent                  `json:"search_criteria"`
	Metadata     SearchMetadata                `json:"metadata"`
	Providers    map[string]ProviderStatusView `json:"providers"`
	PriceBounds  PriceBounds                   `json:"price_bounds"`
	Complete     bool                          `json:"complete"`
	Offers       []Offer                       `json:"offers"`
}

type AsyncSearchResponse struct {
	SessionToken string       `json:"session_token"`
	Criteria     SearchIntent `json:"search_criteria"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
