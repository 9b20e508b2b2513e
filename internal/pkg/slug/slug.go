package slug

import (
	"fmt"
	"strings"
)

// Generate turns a display name into a URL slug: lower-cased, every run of
// characters outside [a-z0-9] collapsed into one hyphen, leading and trailing
// hyphens trimmed. It is pure; uniqueness is the caller's concern.
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// WithSuffix appends a disambiguating suffix, e.g. WithSuffix("new-york", 501) = "new-york-501".
func WithSuffix(s string, suffix any) string {
	tail := Generate(fmt.Sprint(suffix))
	if tail == "" {
		return s
	}
	if s == "" {
		return tail
	}
	return s + "-" + tail
}
