// Package document exports transcripts as paginated PDF files.
//
// Compose is the pure text layout step: paragraphs split on blank lines and
// word-wrapped to an approximate character width. Renderer.Render places the
// layout on A4 pages under an optional logo and title, preferring the
// configured Unicode typefaces and falling back to the built-in Helvetica.
package document
