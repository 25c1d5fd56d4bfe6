// Package fetch is the plain HTTP fetch collaborator.
//
// Client issues GET requests with a fixed User-Agent, per-host cookies and
// headers, an optional SOCKS5 upstream proxy and an optional global request
// rate. Bodies are read up to a size cap and converted to UTF-8 according to
// the response's declared or sniffed charset. Non-2xx responses are returned
// as results; only transport failures are errors.
package fetch
