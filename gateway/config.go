package gateway

import (
	"time"

	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/selector"
)

// DefaultMaxRequestBytes is the original_source HttpServer.h request-size
// cap (SPEC_FULL.md §4): requests larger than this are rejected with 413
// before a block is ever synthesized.
const DefaultMaxRequestBytes = 64 * 1024 * 1024

// Config holds the gateway CLI surface named in spec §6. Flag names are
// contractual; this struct is the parsed, validated form nodeutil's CLI
// layer builds before constructing a Server.
type Config struct {
	InboundPort               int
	BrokerEndpoints           []selector.Endpoint
	PrivateKeyFile            string
	CertificateFile           string
	SourcePeerID              common.PeerID
	TargetPeerID              common.PeerID
	TokenCookieNames          []string
	TokenTypeDefault          string
	TokenDataDefault          string
	RequestTimeout            time.Duration // zero means no timeout
	Connections               int
	NoServerAuthenticationRequired bool
	ExpectedSecurityID        string
	LogUnauthorizedMessages   bool
	VerifyRootCA              string
	MaxRequestBytes           int64
}

func (c Config) maxRequestBytes() int64 {
	if c.MaxRequestBytes <= 0 {
		return DefaultMaxRequestBytes
	}
	return c.MaxRequestBytes
}
