// Package testsupport provides shared fixtures for whisperstudio tests:
// isolated configurations, shell stubs for the external tools, and real WAV
// files.
package testsupport
