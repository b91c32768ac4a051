package logging

import "strings"

// Redacted replaces values whose key names a credential.
const Redacted = "[REDACTED]"

var secretMarkers = []string{"token", "secret", "authorization", "api_key", "apikey", "password"}

// IsSecretKey reports whether key names a credential such as the source API
// key or the preview secret.
func IsSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range secretMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}

// Redact returns a copy of the key/value pairs kv with credential values
// masked.
func Redact(kv []any) []any {
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok && IsSecretKey(key) {
			out[i+1] = Redacted
		}
	}
	return out
}

// RedactFields masks credential values of fields in place and returns it.
func RedactFields(fields map[string]any) map[string]any {
	for key := range fields {
		if IsSecretKey(key) {
			fields[key] = Redacted
		}
	}
	return fields
}
