package models

import (
	"net/url"
	"strings"

	dErrors "xverify/pkg/domain-errors"
)

var tweetHosts = map[string]bool{
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
	"x.com":              true,
	"www.x.com":          true,
}

// ParseContentID accepts a bare tweet id or a twitter.com / x.com status link
// and returns the tweet id. Bare ids are opaque: letters, digits, '_' and '-'.
func ParseContentID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "tweetId must not be blank")
	}
	if isOpaqueID(s) {
		return s, nil
	}

	raw := s
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || !tweetHosts[strings.ToLower(u.Host)] {
		return "", dErrors.New(dErrors.CodeValidation, "tweetId must be a tweet id or a tweet link")
	}

	// /<user>/status/<id>[/...] or /i/web/status/<id>
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if (parts[i] == "status" || parts[i] == "statuses") && isNumeric(parts[i+1]) {
			return parts[i+1], nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "tweet link does not contain a status id")
}

func isNumeric(s string) bool {
	if s == "" || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isOpaqueID(s string) bool {
	if len(s) > 64 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
