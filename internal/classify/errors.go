package classify

import "errors"

// ErrNoModel is returned by Store.Load when no model is stored for a
// signature.
var ErrNoModel = errors.New("no stored model")
