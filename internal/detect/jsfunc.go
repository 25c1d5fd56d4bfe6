package detect

import (
	"regexp"
	"strings"

	"github.com/nao1215/depthscan/internal/model"
)

// JSFunctionLimit is the number of characters kept from each extracted
// function.
const JSFunctionLimit = 400

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)
	jsFunctionPattern  = regexp.MustCompile(`(?s)function\s+[a-zA-Z0-9_$]+\s*\([^)]*\)\s*\{.*?\}`)
)

// ExtractJSFunctions returns the named function declarations found in the
// inline script blocks of body, each trimmed and clipped to JSFunctionLimit.
// The match ends at the first closing brace, so nested bodies are cut short.
func ExtractJSFunctions(body string) []string {
	var out []string
	for _, block := range scriptBlockPattern.FindAllStringSubmatch(body, -1) {
		for _, fn := range jsFunctionPattern.FindAllString(block[1], -1) {
			out = append(out, model.Clip(strings.TrimSpace(fn), JSFunctionLimit))
		}
	}
	return out
}
