package classify

import (
	"context"
	"log/slog"

	"github.com/nao1215/depthscan/internal/capability"
	"github.com/nao1215/depthscan/internal/signature"
)

// Noop is the Scorer used when classification is disabled.
var Noop capability.Scorer = capability.NoopScorer{}

// Classifier holds one model per trainable signature. It is read-only after
// construction and safe for concurrent use.
type Classifier struct {
	models map[string]*Model
	order  []string
}

var _ capability.Scorer = (*Classifier)(nil)

// New returns a Classifier over the given models. Nil models are skipped.
func New(models ...*Model) *Classifier {
	c := &Classifier{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if m == nil {
			continue
		}
		if _, dup := c.models[m.Signature]; !dup {
			c.order = append(c.order, m.Signature)
		}
		c.models[m.Signature] = m
	}
	return c
}

// Load builds a Classifier for every trainable signature of lib. A model
// stored with a matching fingerprint is reused; otherwise the signature is
// trained and the model saved. store may be nil, in which case every model
// is trained in memory. Store failures are logged and never fatal.
func Load(ctx context.Context, lib *signature.Library, store *Store, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	var models []*Model
	reused := 0
	for _, sig := range lib.Trainable() {
		fp := Fingerprint(sig)
		if store != nil {
			m, err := store.Load(ctx, sig.Name)
			if err == nil && m.Fingerprint == fp {
				models = append(models, m)
				reused++
				continue
			}
		}

		m := Train(sig)
		models = append(models, m)
		if store != nil {
			if err := store.Save(ctx, m); err != nil {
				logger.Warn("failed to persist classifier", "signature", sig.Name, "error", err)
			}
		}
	}

	logger.Debug("classifiers ready", "models", len(models), "reused", reused)
	return New(models...)
}

// Available reports whether any model is loaded.
func (c *Classifier) Available() bool {
	return c != nil && len(c.models) > 0
}

// Score implements capability.Scorer.
func (c *Classifier) Score(text, name string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	m, ok := c.models[name]
	if !ok {
		return 0, false
	}
	return m.Score(text)
}

// Signatures returns the names with a model in library order.
func (c *Classifier) Signatures() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}
