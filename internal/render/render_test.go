package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/depthscan/internal/capability"
)

func TestExtractFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "none", body: "<p>nothing</p>", want: nil},
		{name: "single", body: "flag: CTF{abc}", want: []string{"CTF{abc}"}},
		{name: "case insensitive and distinct", body: "ctf{one} CTF{two} ctf{one}", want: []string{"ctf{one}", "CTF{two}"}},
		{name: "non-greedy", body: "CTF{a}}CTF{b}", want: []string{"CTF{a}", "CTF{b}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractFlags(tt.body); !slices.Equal(got, tt.want) {
				t.Errorf("ExtractFlags() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFillFormScript(t *testing.T) {
	t.Parallel()

	js := fillFormScript(3, FormPayload)
	if !strings.HasSuffix(js, `})(3, "CTF_INJECTION_PAYLOAD")`) {
		t.Errorf("script does not end with the invocation: %s", js)
	}
}

func TestAvailable(t *testing.T) {
	t.Parallel()

	missing := func(string) (string, error) { return "", errors.New("not found") }
	found := func(name string) (string, error) {
		if name == "chromium" {
			return "/usr/bin/chromium", nil
		}
		return "", errors.New("not found")
	}

	c := NewChrome()
	c.lookPath = missing
	if c.Available() {
		t.Error("Available() = true without a browser")
	}
	if _, err := c.Render(context.Background(), "http://127.0.0.1/", capability.RenderOptions{}); !errors.Is(err, ErrBrowserUnavailable) {
		t.Errorf("Render() error = %v, want ErrBrowserUnavailable", err)
	}

	c = NewChrome()
	c.lookPath = found
	if !c.Available() || c.browserPath() != "/usr/bin/chromium" {
		t.Errorf("browserPath() = %q", c.browserPath())
	}
}

func TestRenderAfterClose(t *testing.T) {
	t.Parallel()

	c := NewChrome()
	c.Close()
	if _, err := c.Render(context.Background(), "http://127.0.0.1/", capability.RenderOptions{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Render() error = %v, want ErrClosed", err)
	}
}

func TestRenderWithBrowser(t *testing.T) {
	t.Parallel()

	c := NewChrome(WithSettle(200*time.Millisecond), WithTimeout(20*time.Second))
	if testing.Short() || !c.Available() {
		t.Skip("headless browser not available")
	}
	defer c.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Query().Get("q") == FormPayload {
			_, _ = w.Write([]byte("<html><body>CTF{submitted}</body></html>"))
			return
		}
		_, _ = w.Write([]byte(`<html><body><script>document.body.insertAdjacentHTML("beforeend", "<p id=x>CTF{dom}</p>")</script>
<form action="/" method="get"><input name="q"></form></body></html>`))
	}))
	defer srv.Close()

	res, err := c.Render(context.Background(), srv.URL+"/", capability.RenderOptions{FillForms: true})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(res.Body, `id="x"`) {
		t.Errorf("rendered body lacks script output: %s", res.Body)
	}
	if res.FormsSubmitted != 1 {
		t.Errorf("FormsSubmitted = %d, want 1", res.FormsSubmitted)
	}
	if want := []string{"CTF{dom}", "CTF{submitted}"}; !slices.Equal(res.Flags, want) {
		t.Errorf("Flags = %q, want %q", res.Flags, want)
	}
}
