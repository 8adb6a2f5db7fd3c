// Package locales embeds the UI label dictionaries, one JSON file per language.
package locales

import "embed"

// FS holds en.json, ja.json and any other dictionaries.
//
//go:embed *.json
var FS embed.FS
