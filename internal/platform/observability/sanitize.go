package observability

import (
	"strings"
	"unicode"
)

// Limits for request attributes written to access logs and span attributes.
const (
	routeLimit  = 180
	pathLimit   = 180
	methodLimit = 10
)

// cleanAttr strips control runes so a crafted path cannot forge a log
// line, then caps the result at limit runes.
func cleanAttr(value string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// SanitizeRoute returns the chi route pattern recorded as http.route.
// Requests that matched no route (404s, the asset fallback) log as "/".
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return cleanAttr(route, routeLimit)
}

// SanitizePath returns the raw request path for the access log. Carousel
// and fragment paths carry ids, so the route pattern is logged alongside.
func SanitizePath(path string) string {
	return cleanAttr(path, pathLimit)
}

// SanitizeMethod returns the upper-cased method, bounded.
func SanitizeMethod(method string) string {
	return strings.ToUpper(cleanAttr(method, methodLimit))
}
