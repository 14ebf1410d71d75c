// Package localize renders user-facing messages (progress descriptions,
// failure summaries, placeholders) in English or French using
// golang.org/x/text/message catalogs. English strings are the keys.
package localize
