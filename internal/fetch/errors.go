package fetch

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrInvalidScheme is returned for URLs that are not http or https.
	ErrInvalidScheme = errors.New("unsupported URL scheme")
)
