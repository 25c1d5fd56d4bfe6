package probe

import "errors"

// ErrNoPayloads is returned when a payload file holds no payloads.
var ErrNoPayloads = errors.New("payload file is empty")
