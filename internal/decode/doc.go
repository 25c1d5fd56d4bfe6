// Package decode normalizes text before it is matched against detection
// signatures.
//
// Attackers routinely wrap payloads in one or more layers of percent
// encoding and HTML entities so that a single-pass filter never sees the
// literal "<script>". Normalize peels one layer; MultiPass peels several.
// Both are total functions: malformed escapes are kept verbatim and the
// partially decoded text is returned.
//
// # Usage
//
//	decode.Normalize("%3CScript%3E")        // "<script>"
//	decode.MultiPass("%253Cb%253E", 2)      // "<b>"
package decode
