package gateway

import (
	"encoding/json"
	"strings"
)

const redacted = "***REDACTED***"

var redactKeys = map[string]struct{}{
	"token":               {},
	"verification_token":  {},
	"app_secret":          {},
	"encrypt":             {},
	"encrypt_key":         {},
	"tenant_access_token": {},
	"access_token":        {},
	"secret":              {},
}

// RedactPayload masks secret fields anywhere in a JSON document. Input that
// is not JSON is returned unchanged.
func RedactPayload(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return s
	}

	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	b, err := json.Marshal(redactValue(v))
	if err != nil {
		return s
	}
	return string(b)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if _, ok := redactKeys[strings.ToLower(k)]; ok {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = redactValue(t[i])
		}
		return out
	default:
		return v
	}
}
