package i18n

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"golang.org/x/text/language"
)

// Bundle maps route locales such as "en-us" to label dictionaries keyed by
// base language.
type Bundle struct {
	dict     map[string]map[string]string
	locales  []string
	fallback string
	matcher  language.Matcher
}

// Load reads <lang>.json from fsys for every supported locale. The fallback
// locale's dictionary is required; others fall back to it when missing.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	fallback = normalize(fallback)
	if fallback == "" {
		return nil, errors.New("i18n: missing fallback locale")
	}

	locales := []string{fallback}
	for _, l := range supported {
		l = normalize(l)
		if l == "" || l == fallback || contains(locales, l) {
			continue
		}
		locales = append(locales, l)
	}

	b := &Bundle{
		dict:     map[string]map[string]string{},
		locales:  locales,
		fallback: fallback,
	}
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse locale %s: %w", l, err)
		}
		tags = append(tags, tag)

		base := baseLanguage(l)
		if _, ok := b.dict[base]; ok {
			continue
		}
		raw, err := fs.ReadFile(fsys, base+".json")
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("i18n: load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("i18n: unmarshal %s: %w", base, err)
		}
		b.dict[base] = m
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported returns the route locales with the fallback first.
func (b *Bundle) Supported() []string {
	return append([]string(nil), b.locales...)
}

// Fallback returns the default locale.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether locale is a configured route locale.
func (b *Bundle) IsSupported(locale string) bool {
	return contains(b.locales, normalize(locale))
}

// T returns the label for key in locale, then the fallback, then key itself.
func (b *Bundle) T(locale, key string) string {
	if m, ok := b.dict[baseLanguage(normalize(locale))]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.dict[baseLanguage(b.fallback)]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Resolve picks the best supported locale for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No || idx < 0 || idx >= len(b.locales) {
		return b.fallback
	}
	return b.locales[idx]
}

func normalize(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

func baseLanguage(locale string) string {
	if base, _, ok := strings.Cut(locale, "-"); ok {
		return base
	}
	return locale
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
