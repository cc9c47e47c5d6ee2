// Package tlsconfig provides the TLS version/cipher-suite vocabulary a
// Connection applies when it dials with Scheme == TLS.
package tlsconfig

import "crypto/tls"

// TLS protocol versions, re-exported from crypto/tls for callers that
// build a VersionProfile without importing it directly.
const (
	VersionTLS12 uint16 = tls.VersionTLS12
	VersionTLS13 uint16 = tls.VersionTLS13
)

// VersionProfile is a min/max TLS version range applied to a tls.Config.
type VersionProfile struct {
	Min         uint16
	Max         uint16
	Description string
}

// ProfileSecure is the profile a Connection uses when none is configured:
// TLS 1.2 and 1.3, the minimum recommended for production use.
var ProfileSecure = VersionProfile{
	Min:         VersionTLS12,
	Max:         VersionTLS13,
	Description: "TLS 1.2+ - secure and widely compatible",
}

// CipherSuitesTLS12Secure is the ECDHE/AEAD cipher suite list applied when
// the negotiated minimum version is TLS 1.2.
var CipherSuitesTLS12Secure = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

// ApplyCipherSuites sets config.CipherSuites for the negotiated minimum
// version. TLS 1.3 ignores CipherSuites and picks its own, so minVersion
// >= VersionTLS13 leaves it nil.
func ApplyCipherSuites(config *tls.Config, minVersion uint16) {
	if minVersion >= VersionTLS13 {
		config.CipherSuites = nil
		return
	}
	config.CipherSuites = CipherSuitesTLS12Secure
}
