package auth

import (
	"sort"
	"strings"
)

// Google OAuth scopes used by the bundled service adapters.
//
// The scopes provide access to:
//   - Gmail: read-only message/label access, plus send for outgoing mail
//   - Google Calendar: full access (events, colors)
const (
	ScopeGmailReadonly = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailSend     = "https://www.googleapis.com/auth/gmail.send"
	ScopeCalendar      = "https://www.googleapis.com/auth/calendar"
)

// NormalizeScopes returns a canonical copy of the given scopes: empty entries
// dropped, duplicates removed, sorted. Every API boundary of this package
// normalizes scope input so the rest of the code can treat scope slices as
// sets.
func NormalizeScopes(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// UnionScopes returns the normalized union of two scope sets.
func UnionScopes(a, b []string) []string {
	return NormalizeScopes(append(append([]string{}, a...), b...))
}

// ContainsScope reports whether the scope set contains the given scope.
func ContainsScope(scopes []string, scope string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ContainsAllScopes reports whether have is a superset of want.
func ContainsAllScopes(have, want []string) bool {
	for _, s := range want {
		if !ContainsScope(have, s) {
			return false
		}
	}
	return true
}

// SplitScopeParam parses a provider-reported scope parameter, a
// space-separated scope list as delivered on the OAuth callback, into a
// normalized scope set.
func SplitScopeParam(param string) []string {
	return NormalizeScopes(strings.Fields(param))
}
