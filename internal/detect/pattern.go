package detect

import (
	"github.com/nao1215/depthscan/internal/decode"
	"github.com/nao1215/depthscan/internal/model"
	"github.com/nao1215/depthscan/internal/signature"
)

// BodyPattern matches every patterned signature against the single-pass and
// multi-pass normalized body.
type BodyPattern struct {
	signatures []signature.Signature
	passes     int
}

// NewBodyPattern returns a BodyPattern over lib's patterned signatures.
func NewBodyPattern(lib *signature.Library, passes int) *BodyPattern {
	if passes < 1 {
		passes = decode.DefaultPasses
	}
	return &BodyPattern{signatures: lib.Patterned(), passes: passes}
}

// Name returns "body-pattern".
func (d *BodyPattern) Name() string { return "body-pattern" }

// Detect implements Detector.
func (d *BodyPattern) Detect(in Input) []model.Finding {
	if in.Body == "" {
		return nil
	}

	texts := []string{decode.Normalize(in.Body)}
	if multi := decode.MultiPass(in.Body, d.passes); multi != texts[0] {
		texts = append(texts, multi)
	}

	set := model.NewFindingSet()
	for _, sig := range d.signatures {
		for _, text := range texts {
			for _, m := range sig.Pattern.FindAllString(text, -1) {
				set.Add(model.NewFinding(sig.Name, signature.MethodPattern, m, sig.Explanation, 1.0))
			}
		}
	}
	return set.Items()
}
