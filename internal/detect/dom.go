package detect

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

// domScriptPattern marks an inline script as reflected script content.
var domScriptPattern = regexp.MustCompile(`(?i)alert|document\.cookie|<script`)

// DOM reports XSS evidence found in the parsed document: inline scripts
// that call alert, touch document.cookie or nest a script tag, and every
// on* event-handler attribute.
type DOM struct {
	explanation string
}

// NewDOM returns a DOM detector.
func NewDOM(lib *signature.Library) *DOM {
	return &DOM{explanation: lib.Explain(signature.XSS)}
}

// Name returns "dom".
func (d *DOM) Name() string { return "dom" }

// Detect implements Detector.
func (d *DOM) Detect(in Input) []model.Finding {
	if in.Body == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.Body))
	if err != nil {
		return nil
	}

	var out []model.Finding
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !domScriptPattern.MatchString(text) {
			return
		}
		out = append(out, d.finding(strings.TrimSpace(text)))
	})

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			for _, attr := range n.Attr {
				if !strings.HasPrefix(strings.ToLower(attr.Key), "on") {
					continue
				}
				out = append(out, d.finding(attr.Key+"="+attr.Val))
			}
		}
	})
	return out
}

func (d *DOM) finding(snippet string) model.Finding {
	return model.NewFinding(signature.XSS, signature.MethodDOM, snippet, d.explanation, 1.0)
}

// InlineScripts returns the trimmed text of every non-empty inline script
// block of body.
func InlineScripts(body string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var scripts []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			scripts = append(scripts, text)
		}
	})
	return scripts
}
