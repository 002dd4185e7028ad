package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"regexp"
)

// Identity groups rate-limit accounting per originating client. It is a
// stable hash of the caller's network origin combined with a short
// fingerprint of its client signature, so spoofing either alone does not
// trivially evade the limiter. It carries no personal data beyond that.
type Identity string

var trailingPort = regexp.MustCompile(`:\d+$`)

// IdentityFrom derives an identity from the caller's address and
// User-Agent header.
func IdentityFrom(remoteAddr, userAgent string) Identity {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = trailingPort.ReplaceAllString(remoteAddr, "")
	}

	agent := sha256.Sum256([]byte(userAgent))
	fingerprint := hex.EncodeToString(agent[:])[:8]

	sum := sha256.Sum256([]byte(host + fingerprint))
	return Identity(hex.EncodeToString(sum[:]))
}
