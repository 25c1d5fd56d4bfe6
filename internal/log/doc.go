// Package log builds the slog logger of depthscan and sanitizes sensitive
// attributes before they are written.
//
// Scans run with site cookies and custom headers from the configuration
// file, and fetched pages may echo tokens back. SecureHandler masks such
// values in every record:
//   - attributes whose key names a credential (cookie, authorization, token)
//   - string values shaped like credentials (JWT, bearer and basic tokens)
//   - CSRF, session and API token query values inside URLs and transport
//     errors, with the rest of the URL kept
//
// # Usage
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("fetch", "url", target, "cookie", cookie) // cookie=***REDACTED***
//	slog.SetDefault(logger)
package log
