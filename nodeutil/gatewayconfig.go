package nodeutil

import (
	"encoding/hex"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/urfave/cli.v1"

	"github.com/ground-x/blmessaging/common"
	"github.com/ground-x/blmessaging/gateway"
	"github.com/ground-x/blmessaging/selector"
)

// DefaultBrokerPort is substituted for a broker-endpoints entry that
// names a host with no port, per spec §6: "the configured messaging
// broker default port is used".
const DefaultBrokerPort = 30700

// GatewayConfigFromContext builds a gateway.Config from the flags
// registered in GatewayFlags, following spec §6's HTTPS gateway CLI
// surface table exactly.
func GatewayConfigFromContext(ctx *cli.Context) (gateway.Config, error) {
	cfg := gateway.Config{
		InboundPort:                    ctx.Int(InboundPortFlag.Name),
		TokenCookieNames:               ctx.StringSlice(TokenCookieNameFlag.Name),
		TokenTypeDefault:               ctx.String(TokenTypeDefaultFlag.Name),
		TokenDataDefault:               ctx.String(TokenDataDefaultFlag.Name),
		Connections:                    ctx.Int(ConnectionsFlag.Name),
		NoServerAuthenticationRequired: ctx.Bool(NoServerAuthenticationRequiredFlag.Name),
		ExpectedSecurityID:             ctx.String(ExpectedSecurityIDFlag.Name),
		LogUnauthorizedMessages:        ctx.Bool(LogUnauthorizedMessagesFlag.Name),
		VerifyRootCA:                   ctx.String(VerifyRootCAFlag.Name),
		PrivateKeyFile:                 ctx.String(GatewayPrivateKeyFileFlag.Name),
		CertificateFile:                ctx.String(GatewayCertificateFileFlag.Name),
	}

	if seconds := ctx.Int(RequestTimeoutFlag.Name); seconds > 0 {
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	if raw := ctx.String(BrokerEndpointsFlag.Name); raw != "" {
		endpoints, err := parseEndpoints(raw)
		if err != nil {
			return gateway.Config{}, err
		}
		cfg.BrokerEndpoints = endpoints
	}

	if raw := ctx.String(SourcePeerIDFlag.Name); raw != "" {
		id, err := parsePeerID(raw)
		if err != nil {
			return gateway.Config{}, err
		}
		cfg.SourcePeerID = id
	}

	if raw := ctx.String(TargetPeerIDFlag.Name); raw != "" {
		id, err := parsePeerID(raw)
		if err != nil {
			return gateway.Config{}, err
		}
		cfg.TargetPeerID = id
	}

	if raw := ctx.String(PoolSizeFlag.Name); raw != "" {
		size, err := ParseSize(raw)
		if err != nil {
			return gateway.Config{}, err
		}
		cfg.MaxRequestBytes = size
	}

	return cfg, nil
}

func parseEndpoints(raw string) ([]selector.Endpoint, error) {
	var endpoints []selector.Endpoint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		host, portStr, err := net.SplitHostPort(part)
		if err != nil {
			host, portStr = part, ""
		}
		port := DefaultBrokerPort
		if portStr != "" {
			p, err := strconv.Atoi(portStr)
			if err != nil {
				return nil, err
			}
			port = p
		}
		endpoints = append(endpoints, selector.Endpoint{Host: host, Port: port})
	}
	return endpoints, nil
}

func parsePeerID(hexStr string) (common.PeerID, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return common.ZeroPeerID, err
	}
	return common.PeerIDFromBytes(raw)
}
