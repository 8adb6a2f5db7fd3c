package helpers

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/currency"
)

// Money formats a decimal amount string such as "128.0" in the given ISO 4217
// currency, e.g. Money("1234.5", "USD") => "$1,234.50".
func Money(amount, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	scale := 2
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}

	minor, ok := parseMinor(strings.TrimSpace(amount), scale)
	if !ok {
		return strings.TrimSpace(strings.TrimSpace(amount) + " " + code)
	}

	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	pow := int64(1)
	for i := 0; i < scale; i++ {
		pow *= 10
	}
	out := sign + currencySymbol(code) + thousandSep(minor/pow)
	if scale > 0 {
		out += fmt.Sprintf(".%0*d", scale, minor%pow)
	}
	return out
}

// parseMinor converts a decimal string into integer minor units at scale,
// rounding half away from zero.
func parseMinor(s string, scale int) (int64, bool) {
	if s == "" {
		return 0, false
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, false
	}

	roundUp := false
	if len(frac) > scale {
		roundUp = frac[scale] >= '5'
		frac = frac[:scale]
	}
	frac += strings.Repeat("0", scale-len(frac))

	v, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, false
	}
	if roundUp {
		v++
	}
	if neg {
		v = -v
	}
	return v, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func thousandSep(n int64) string {
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func currencySymbol(code string) string {
	switch code {
	case "JPY":
		return "¥"
	case "USD":
		return "$"
	case "CAD":
		return "CA$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	default:
		return code + " "
	}
}

// LocalePath prefixes path with the active locale segment, if any.
func LocalePath(locale, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	locale = strings.Trim(strings.TrimSpace(locale), "/")
	if locale == "" {
		return path
	}
	if path == "/" {
		return "/" + locale
	}
	return "/" + locale + path
}

// CollectionURL links to a collection by handle.
func CollectionURL(locale, handle string) string {
	return LocalePath(locale, "/collections/"+handle)
}

// ProductURL links to a product by handle.
func ProductURL(locale, handle string) string {
	return LocalePath(locale, "/products/"+handle)
}

// TextComponent returns a templ component that renders escaped text.
func TextComponent(value string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(value))
		return err
	})
}
