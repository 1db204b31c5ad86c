package security

import "strings"

// ExtractBearer parses an Authorization header of the form "Bearer <token>".
// The scheme match is case-insensitive. It reports false when the header is
// empty, uses another scheme, or carries no single token. This is a parsing
// helper only; the returned token is unverified.
func ExtractBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
