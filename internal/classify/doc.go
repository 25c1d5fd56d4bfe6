// Package classify provides the optional per-signature text classifiers.
//
// For every signature with both positive and negative exemplars a small
// token model is trained: word tokens and character trigrams of the
// normalized text, with Laplace-smoothed log-likelihood ratios between the
// two classes. Scoring averages the ratios of the known tokens, adds a bias
// calibrated on the exemplars so the boundary falls between the two classes,
// and maps the sum through a sigmoid. A score is always in [0, 1] and a
// snippet with no known token scores 0.
//
// Trained models are persisted in a SQLite database together with a
// fingerprint of their exemplars. Load reuses a stored model when its
// fingerprint still matches the signature and retrains otherwise.
package classify
