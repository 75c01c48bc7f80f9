package dsn

import "strconv"

// Encryption modes accepted in transport options.
const (
	EncryptionSSL      = "ssl"
	EncryptionTLS      = "tls"
	EncryptionSTARTTLS = "starttls"
	EncryptionNone     = "none"
)

// Encryptions lists the accepted encryption values.
var Encryptions = []string{EncryptionSSL, EncryptionTLS, EncryptionSTARTTLS, EncryptionNone}

// IsImplicitTLS reports whether the connection is TLS from the first byte.
func IsImplicitTLS(encryption string) bool {
	return encryption == EncryptionSSL
}

// IsStartTLS reports whether the connection is upgraded with STARTTLS.
func IsStartTLS(encryption string) bool {
	return encryption == EncryptionTLS || encryption == EncryptionSTARTTLS
}

// Endpoint formats a connection target without credentials:
// [encryption://]host[:port][/novalidate-cert].
func Endpoint(host string, port int, encryption string, verifyPeer bool) string {
	e := host
	if port > 0 {
		e += ":" + strconv.Itoa(port)
	}
	if encryption != "" && encryption != EncryptionNone {
		e = encryption + "://" + e
	}
	if !verifyPeer {
		e += "/novalidate-cert"
	}
	return e
}
