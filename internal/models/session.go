package models

// SearchSession binds one user search to every provider query issued for
// it. The token is opaque: it comes from the session-initiation endpoint and
// is only ever used as a correlation key.
type SearchSession struct {
	Token  string       `json:"token"`
	Intent SearchIntent `json:"intent"`
}
