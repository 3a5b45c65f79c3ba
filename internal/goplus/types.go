package goplus

import (
	"encoding/json"
	"strings"
)

// CodeSuccess is the envelope code for a successful query.
const CodeSuccess = 1

// Envelope is the common response wrapper of every endpoint.
type Envelope struct {
	// Code is decoded from either a JSON number or a numeric string.
	Code    json.Number     `json:"code"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// StatusCode returns the envelope code and whether one was sent.
func (e *Envelope) StatusCode() (int, bool) {
	if e.Code == "" {
		return 0, false
	}
	n, err := e.Code.Int64()
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Err returns a *QueryError when the envelope carries a non-success code.
// A missing or zero code is not treated as a failure.
func (e *Envelope) Err() error {
	code, ok := e.StatusCode()
	if !ok || code == 0 || code == CodeSuccess {
		return nil
	}
	return &QueryError{Code: code, Message: e.Message}
}

// HasResult reports whether result is present and non-empty.
func (e *Envelope) HasResult() bool {
	r := strings.TrimSpace(string(e.Result))
	switch r {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	return true
}

// TokenSecurityResponse is the token_security payload keyed by contract address.
type TokenSecurityResponse struct {
	Envelope
	Tokens map[string]json.RawMessage
}

// supportedChain is one entry of the supported_chains result. The id arrives
// as a string for most chains but numbers have been observed.
type supportedChain struct {
	ID   json.RawMessage `json:"id"`
	Name string          `json:"name"`
}

func (c supportedChain) id() string {
	raw := strings.TrimSpace(string(c.ID))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(c.ID, &s); err == nil {
		return s
	}
	return raw
}
