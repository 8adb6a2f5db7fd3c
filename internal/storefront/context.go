package storefront

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// InContext carries the @inContext directive arguments.
type InContext struct {
	// Country is an ISO 3166-1 alpha-2 code such as "US".
	Country string
	// Language is a Storefront LanguageCode such as "EN".
	Language string
}

// DefaultInContext is used when no locale is active.
var DefaultInContext = InContext{Country: "US", Language: "EN"}

// InContextFromLocale derives country and language from a locale such as "en-us" or "ja".
// Locales without a region use the most likely region for the language.
func InContextFromLocale(locale string) (InContext, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if raw == "" {
		return DefaultInContext, nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return InContext{}, fmt.Errorf("storefront: parse locale %q: %w", locale, err)
	}
	base, _ := tag.Base()
	region, confidence := tag.Region()
	ic := InContext{Language: strings.ToUpper(base.String())}
	if confidence != language.No && region.IsCountry() {
		ic.Country = strings.ToUpper(region.String())
	} else {
		ic.Country = DefaultInContext.Country
	}
	return ic, nil
}

// Variables returns the GraphQL variables for the directive, omitting empty values.
func (ic InContext) Variables() map[string]any {
	vars := map[string]any{}
	if ic.Country != "" {
		vars["country"] = ic.Country
	}
	if ic.Language != "" {
		vars["language"] = ic.Language
	}
	return vars
}
