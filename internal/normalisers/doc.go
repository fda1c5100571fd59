// Package normalisers provides text extraction for markup and office file
// formats. Each normaliser handles a set of file name suffixes; the
// registry picks one by suffix.
package normalisers
