package probe

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// InjectionParam is the query parameter carrying the payload.
const InjectionParam = "inj"

// defaultPayloads covers boolean SQL injection, script tags, shell
// metacharacters, a file read and command chaining.
var defaultPayloads = []string{
	"' OR '1'='1",
	"<script>alert(1)</script>",
	"; ls;",
	"&& cat /etc/passwd",
	"<img src=x onerror=alert(2)>",
	"'; DROP TABLE users; --",
	"|| ping -c 4 127.0.0.1 ||",
}

// DefaultPayloads returns a copy of the built-in payload list.
func DefaultPayloads() []string {
	out := make([]string, len(defaultPayloads))
	copy(out, defaultPayloads)
	return out
}

// LoadPayloads reads one payload per line from path. Surrounding whitespace
// is trimmed and blank lines are skipped.
func LoadPayloads(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file: %w", err)
	}
	defer f.Close()

	var payloads []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			payloads = append(payloads, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPayloads, path)
	}
	return payloads, nil
}

// InjectURL appends the payload as the InjectionParam query parameter,
// keeping any existing query and dropping the fragment.
func InjectURL(target, payload string) string {
	param := InjectionParam + "=" + url.QueryEscape(payload)
	u, err := url.Parse(target)
	if err != nil {
		return target + "?" + param
	}
	u.Fragment = ""
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}
	return u.String()
}
