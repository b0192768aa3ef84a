// Package nodeutil is the ambient CLI/process layer shared by
// cmd/bl-broker and cmd/bl-gateway: flag definitions, Fatalf,
// signal-driven shutdown, and an optional TOML config file, adapted
// from the teacher's cmd/utils package (flags.go's flag-table idiom,
// cmd.go's StartNode signal loop).
package nodeutil

import (
	"gopkg.in/urfave/cli.v1"
)

// Shared ambient flags, used by both binaries.
var (
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for peer id and chunk storage persistence",
	}
	ConfigFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file path (accepted, but neither binary reads the file)",
	}
	PoolSizeFlag = cli.StringFlag{
		Name:  "pool-size",
		Usage: "Block pool capacity in bytes (human sizes, e.g. 512MiB); default 64KiB",
	}
	MaxConnectionsFlag = cli.IntFlag{
		Name:  "max-connections",
		Usage: "Maximum concurrently accepted connections on the TLS listener",
		Value: 1024,
	}
	NATFlag = cli.StringFlag{
		Name:  "nat",
		Usage: "NAT traversal mode: none, auto (UPnP then NAT-PMP)",
		Value: "none",
	}
	VerbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: none, notify, error, warning, info, debug, trace",
		Value: "info",
	}
)

// Broker-side flags.
var (
	ListenPortFlag = cli.IntFlag{
		Name:  "listen-port",
		Usage: "TCP port the broker's TLS block-transfer listener binds to",
		Value: 30700,
	}
	PrivateKeyFileFlag = cli.StringFlag{
		Name:  "private-key-file",
		Usage: "PEM path for the broker's TLS server identity",
	}
	CertificateFileFlag = cli.StringFlag{
		Name:  "certificate-file",
		Usage: "PEM path for the broker's TLS server certificate",
	}
	StorageVariantFlag = cli.StringFlag{
		Name:  "storage-variant",
		Usage: "Chunk store implementation: multifile, singlefile",
		Value: "multifile",
	}
	FsyncFlag = cli.BoolFlag{
		Name:  "fsync",
		Usage: "fsync every chunk write before acknowledging it",
	}
)

// Gateway-side flags, named exactly per spec §6's HTTPS gateway CLI
// surface table.
var (
	InboundPortFlag = cli.IntFlag{
		Name:  "inbound-port",
		Usage: "TCP port the HTTPS listener binds to",
		Value: 8443,
	}
	BrokerEndpointsFlag = cli.StringFlag{
		Name:  "broker-endpoints",
		Usage: "Comma-separable list of host[:port] broker addresses",
	}
	GatewayPrivateKeyFileFlag = cli.StringFlag{
		Name:  "private-key-file",
		Usage: "PEM path for the gateway's TLS server identity",
	}
	GatewayCertificateFileFlag = cli.StringFlag{
		Name:  "certificate-file",
		Usage: "PEM path for the gateway's TLS server certificate",
	}
	SourcePeerIDFlag = cli.StringFlag{
		Name:  "source-peer-id",
		Usage: "Optional fixed 128-bit hex peer id; generated on startup if absent",
	}
	TargetPeerIDFlag = cli.StringFlag{
		Name:  "target-peer-id",
		Usage: "Required 128-bit hex identity of the upstream peer messages are forwarded to",
	}
	TokenCookieNameFlag = cli.StringSliceFlag{
		Name:  "token-cookie-name",
		Usage: "Cookie name to scan for the auth token (repeatable)",
	}
	TokenTypeDefaultFlag = cli.StringFlag{
		Name:  "token-type-default",
		Usage: "Fallback token type used when no cookie matches",
	}
	TokenDataDefaultFlag = cli.StringFlag{
		Name:  "token-data-default",
		Usage: "Fallback token value used when no cookie matches",
	}
	RequestTimeoutFlag = cli.IntFlag{
		Name:  "request-timeout-in-seconds",
		Usage: "Upper bound on request to response correlation, in seconds",
		Value: 30,
	}
	ConnectionsFlag = cli.IntFlag{
		Name:  "connections",
		Usage: "Minimum outbound connections to the broker set",
		Value: 1,
	}
	NoServerAuthenticationRequiredFlag = cli.BoolFlag{
		Name:  "no-server-authentication-required",
		Usage: "Allow anonymous requests",
	}
	ExpectedSecurityIDFlag = cli.StringFlag{
		Name:  "expected-security-id",
		Usage: "If set, require the authorized principal to match this id",
	}
	LogUnauthorizedMessagesFlag = cli.BoolFlag{
		Name:  "log-unauthorized-messages",
		Usage: "Verbose logging for 401 cases",
	}
	VerifyRootCAFlag = cli.StringFlag{
		Name:  "verify-root-ca",
		Usage: "Additional PEM root certificate to trust",
	}
)

// BrokerFlags and GatewayFlags are the full per-binary flag sets,
// following the teacher's own practice of collecting flags into a
// slice passed to app.Flags.
var BrokerFlags = []cli.Flag{
	DataDirFlag, ConfigFileFlag, PoolSizeFlag, MaxConnectionsFlag, NATFlag,
	VerbosityFlag, ListenPortFlag, PrivateKeyFileFlag, CertificateFileFlag,
	StorageVariantFlag, FsyncFlag,
}

var GatewayFlags = []cli.Flag{
	DataDirFlag, ConfigFileFlag, PoolSizeFlag, MaxConnectionsFlag, NATFlag,
	VerbosityFlag, InboundPortFlag, BrokerEndpointsFlag, GatewayPrivateKeyFileFlag,
	GatewayCertificateFileFlag, SourcePeerIDFlag, TargetPeerIDFlag,
	TokenCookieNameFlag, TokenTypeDefaultFlag, TokenDataDefaultFlag,
	RequestTimeoutFlag, ConnectionsFlag, NoServerAuthenticationRequiredFlag,
	ExpectedSecurityIDFlag, LogUnauthorizedMessagesFlag, VerifyRootCAFlag,
}
