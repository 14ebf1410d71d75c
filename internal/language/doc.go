// Package language normalizes the free-form language hints users type
// ("fr", "fr-FR", "French", "auto") into the ISO 639-1 code the recognizer
// accepts, using golang.org/x/text/language for BCP 47 parsing.
package language
