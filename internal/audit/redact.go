package audit

import "regexp"

const redactedPlaceholder = "[REDACTED]"

// redactionPatterns matches common credential shapes so tool responses are
// never persisted with live secrets.
var redactionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{10,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)"(password|passwd|secret|api_key|apikey|access_token|private_key)"\s*:\s*"[^"]*"`),
}

// redact replaces every match of every credential pattern with a fixed
// placeholder, preserving surrounding structure.
func redact(s string) string {
	for _, p := range redactionPatterns {
		s = p.ReplaceAllStringFunc(s, func(match string) string {
			if p == redactionPatterns[len(redactionPatterns)-1] {
				// password-like JSON field: keep the key, redact the value.
				loc := regexp.MustCompile(`:\s*"`).FindStringIndex(match)
				if loc != nil {
					return match[:loc[1]] + redactedPlaceholder + `"`
				}
			}
			return redactedPlaceholder
		})
	}
	return s
}
