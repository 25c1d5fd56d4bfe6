package decode

import (
	"html"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPasses is the number of decode passes used by detectors that want
// to see through nested encodings.
const DefaultPasses = 2

// Normalize performs one percent-decoding pass and one HTML-unescape pass,
// then lowercases the result.
func Normalize(text string) string {
	return lower(unwrap(text))
}

// MultiPass repeats the percent-decode and HTML-unescape pair passes times
// and lowercases the result. A passes value below 1 is treated as 1.
func MultiPass(text string, passes int) string {
	if passes < 1 {
		passes = 1
	}
	for range passes {
		next := unwrap(text)
		if next == text {
			break
		}
		text = next
	}
	return lower(text)
}

// unwrap removes a single layer of percent and entity encoding.
func unwrap(text string) string {
	return html.UnescapeString(unquote(text))
}

// lower uses a fresh caser per call; cases.Caser is not safe for
// concurrent use.
func lower(text string) string {
	return cases.Lower(language.Und).String(text)
}

// unquote decodes %XX sequences. Sequences that are not followed by two hex
// digits are copied through unchanged. Bytes that do not form valid UTF-8
// after decoding are replaced with U+FFFD.
func unquote(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}

	buf := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '%' && i+2 < len(text) {
			hi, okHi := unhex(text[i+1])
			lo, okLo := unhex(text[i+2])
			if okHi && okLo {
				buf = append(buf, hi<<4|lo)
				i += 2
				continue
			}
		}
		buf = append(buf, c)
	}

	if utf8.Valid(buf) {
		return string(buf)
	}
	return strings.ToValidUTF8(string(buf), "\uFFFD")
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
