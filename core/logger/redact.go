package logger

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const redacted = "[redacted]"

// inputKeys carry what users typed. They are clipped so dialogue answers
// stay out of log storage beyond a short prefix.
var inputKeys = map[string]bool{"text": true, "input": true, "reply": true}

const maxInputRunes = 48

var (
	// Telegram bot tokens appear inside API URLs of transport errors.
	botTokenRe = regexp.MustCompile(`bot\d{5,}:[A-Za-z0-9_-]{20,}`)
	// Query string keys used by the weather, FX and LLM endpoints.
	queryKeyRe = regexp.MustCompile(`(?i)((?:api_?key|key|token|access_token)=)[^&\s"]+`)
	// exchangerate-api puts the key in the path: /v6/<key>/latest.
	pathKeyRe = regexp.MustCompile(`(/v6/)[A-Za-z0-9]{12,}(/)`)
	bearerRe  = regexp.MustCompile(`(?i)(bearer\s+)\S+`)
)

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	if i := strings.LastIndexByte(k, '.'); i >= 0 {
		k = k[i+1:]
	}
	switch k {
	case "token", "password", "secret", "authorization", "api_key", "apikey":
		return true
	}
	return strings.HasSuffix(k, "_token") || strings.HasSuffix(k, "_key") || strings.HasSuffix(k, "_password")
}

// scrub masks secrets in v and clips user input.
func scrub(key string, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if isSecretKey(key) {
		if s == "" {
			return s
		}
		return redacted
	}
	s = RedactSecrets(s)
	if inputKeys[key] && utf8.RuneCountInString(s) > maxInputRunes {
		r := []rune(s)
		s = string(r[:maxInputRunes]) + "…"
	}
	return s
}

// RedactSecrets masks bot tokens and API keys embedded in s.
func RedactSecrets(s string) string {
	if s == "" {
		return s
	}
	s = botTokenRe.ReplaceAllString(s, "bot"+redacted)
	s = queryKeyRe.ReplaceAllString(s, "${1}"+redacted)
	s = pathKeyRe.ReplaceAllString(s, "${1}"+redacted+"${2}")
	return bearerRe.ReplaceAllString(s, "${1}"+redacted)
}
