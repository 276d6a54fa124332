// Package folding normalizes headwords and queries into index keys.
package folding

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

// Key returns the case-folded index key for a headword or query: surrounding
// whitespace removed, internal whitespace runs collapsed to one space and
// the result lowercased.
func Key(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser keeps state between calls, so a fresh chain is built per key.
	folded, _, err := transform.String(transform.Chain(&WhitespaceFolder{}, cases.Lower(language.Und)), s)
	if err != nil {
		// transform.String only fails on malformed transformer state; fall
		// back to the whitespace-folded input unchanged.
		return Whitespace(s)
	}
	return folded
}

// Whitespace applies only whitespace folding, preserving case. It is used to
// clean display headwords.
func Whitespace(s string) string {
	out, _, err := transform.String(&WhitespaceFolder{}, s)
	if err != nil {
		return s
	}
	return out
}

// Prefixes returns the rune prefixes of key with lengths 1 to min(max, len).
func Prefixes(key string, max int) []string {
	n := utf8.RuneCountInString(key)
	if n > max {
		n = max
	}
	prefixes := make([]string, 0, n)
	end := 0
	for i := 0; i < n; i++ {
		_, size := utf8.DecodeRuneInString(key[end:])
		end += size
		prefixes = append(prefixes, key[:end])
	}
	return prefixes
}

// WhitespaceFolder is a transform.Transformer that drops leading and trailing
// whitespace and replaces each internal whitespace run with one ASCII space.
type WhitespaceFolder struct {
	started bool // a non-space rune has been emitted
	pending bool // inside an internal whitespace run
}

// Transform implements transform.Transformer.
func (w *WhitespaceFolder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])

		if unicode.IsSpace(r) {
			if w.started {
				w.pending = true
			}
			nSrc += size
			continue
		}

		need := size
		if w.pending {
			need++
		}
		if nDst+need > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if w.pending {
			dst[nDst] = ' '
			nDst++
			w.pending = false
		}
		// Copy the raw bytes so invalid UTF-8 passes through untouched.
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
		w.started = true
	}
	return nDst, nSrc, nil
}

// Reset implements transform.Transformer.
func (w *WhitespaceFolder) Reset() {
	*w = WhitespaceFolder{}
}
