package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"unicode"

	"github.com/nao1215/depthscan/internal/decode"
	"github.com/nao1215/depthscan/internal/signature"
)

// Threshold is the probability at which a score counts as positive.
const Threshold = 0.5

// modelVersion is mixed into fingerprints so a tokenizer change
// invalidates stored models.
const modelVersion = "v1"

// Model is a trained binary classifier for one signature.
type Model struct {
	// Signature is the name of the signature the model scores.
	Signature string

	// Fingerprint identifies the exemplars the model was trained on.
	Fingerprint string

	// Bias centres the decision boundary between the training classes.
	Bias float64

	// Weights maps a token to its log-likelihood ratio.
	Weights map[string]float64
}

// Train fits a model on sig's exemplars. It returns nil when sig is not
// trainable.
func Train(sig signature.Signature) *Model {
	if !sig.Trainable() {
		return nil
	}

	pos, posTotal := countTokens(sig.Positive)
	neg, negTotal := countTokens(sig.Negative)

	vocab := make(map[string]struct{}, len(pos)+len(neg))
	for t := range pos {
		vocab[t] = struct{}{}
	}
	for t := range neg {
		vocab[t] = struct{}{}
	}
	v := float64(len(vocab))

	weights := make(map[string]float64, len(vocab))
	for t := range vocab {
		pPos := (float64(pos[t]) + 1) / (float64(posTotal) + v)
		pNeg := (float64(neg[t]) + 1) / (float64(negTotal) + v)
		weights[t] = math.Log(pPos / pNeg)
	}

	m := &Model{
		Signature:   sig.Name,
		Fingerprint: Fingerprint(sig),
		Weights:     weights,
	}
	m.Bias = calibrate(m, sig)
	return m
}

// calibrate returns the bias that puts the boundary midway between the
// lowest raw score of a positive exemplar and the highest of a negative
// one. When the classes overlap the midpoint of the class means is used.
func calibrate(m *Model, sig signature.Signature) float64 {
	minPos, meanPos := rawStats(m, sig.Positive, math.Min)
	maxNeg, meanNeg := rawStats(m, sig.Negative, math.Max)
	if minPos > maxNeg {
		return -(minPos + maxNeg) / 2
	}
	return -(meanPos + meanNeg) / 2
}

// rawStats folds the raw scores of texts with pick and returns the fold
// and the mean.
func rawStats(m *Model, texts []string, pick func(a, b float64) float64) (float64, float64) {
	var folded, total float64
	for i, text := range texts {
		r, _ := m.raw(text)
		if i == 0 {
			folded = r
		} else {
			folded = pick(folded, r)
		}
		total += r
	}
	return folded, total / float64(len(texts))
}

// Score returns the probability that text is evidence for the model's
// signature and whether it reaches Threshold.
func (m *Model) Score(text string) (float64, bool) {
	if m == nil || len(m.Weights) == 0 {
		return 0, false
	}
	r, ok := m.raw(text)
	if !ok {
		return 0, false
	}
	p := sigmoid(m.Bias + r)
	return p, p >= Threshold
}

// raw returns the mean weight of the known tokens of text and false when no
// token is known.
func (m *Model) raw(text string) (float64, bool) {
	sum, known := 0.0, 0
	for _, t := range tokenize(text) {
		if w, ok := m.Weights[t]; ok {
			sum += w
			known++
		}
	}
	if known == 0 {
		return 0, false
	}
	return sum / float64(known), true
}

// Fingerprint hashes the signature name and exemplars.
func Fingerprint(sig signature.Signature) string {
	h := sha256.New()
	h.Write([]byte(modelVersion))
	h.Write([]byte{0})
	h.Write([]byte(sig.Name))
	for _, group := range [][]string{sig.Positive, sig.Negative} {
		h.Write([]byte{1})
		for _, s := range group {
			h.Write([]byte(s))
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func countTokens(texts []string) (map[string]int, int) {
	counts := make(map[string]int)
	total := 0
	for _, text := range texts {
		for _, t := range tokenize(text) {
			counts[t]++
			total++
		}
	}
	return counts, total
}

// tokenize returns "w:" word tokens and "c:" character trigrams of the
// normalized text. Words are runs of letters and digits; trigrams are taken
// over the whitespace-collapsed text so punctuation contributes.
func tokenize(text string) []string {
	norm := strings.Join(strings.Fields(decode.Normalize(text)), " ")
	if norm == "" {
		return nil
	}

	var tokens []string
	for _, w := range strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}) {
		tokens = append(tokens, "w:"+w)
	}

	runes := []rune(norm)
	if len(runes) < 3 {
		return append(tokens, "c:"+norm)
	}
	for i := 0; i+3 <= len(runes); i++ {
		tokens = append(tokens, "c:"+string(runes[i:i+3]))
	}
	return tokens
}
