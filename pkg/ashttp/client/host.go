package client

import "golang.org/x/net/idna"

// normalizeHost converts an internationalized hostname to its ASCII
// (Punycode) form before it is handed to the resolver or used as TLS SNI,
// so non-ASCII hosts resolve and verify correctly. Hosts that are already
// ASCII (including dotted IPv4 literals and "localhost") pass through
// unchanged; a normalization failure falls back to the original string
// rather than failing the whole connect attempt over a cosmetic issue.
func normalizeHost(host string) string {
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}
