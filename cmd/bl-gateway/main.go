// Command bl-gateway runs the HTTPS gateway bridge (spec §4.4): it
// terminates client HTTPS requests, authorizes the bearer token, and
// forwards each request to the configured broker peer over the block
// transfer wire protocol, replying once the broker's answer block
// correlates back to the waiting HTTP request.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/ground-x/blmessaging/api/debug"
	"github.com/ground-x/blmessaging/auth"
	"github.com/ground-x/blmessaging/block"
	"github.com/ground-x/blmessaging/forwarding"
	"github.com/ground-x/blmessaging/gateway"
	"github.com/ground-x/blmessaging/log"
	"github.com/ground-x/blmessaging/nodeutil"
	"github.com/ground-x/blmessaging/queue"
)

var gitCommit = ""

func main() {
	app := cli.NewApp()
	app.Name = "bl-gateway"
	app.Usage = "HTTPS gateway bridge for the messaging broker"
	app.Version = gitCommit
	app.Flags = append(append([]cli.Flag{}, nodeutil.GatewayFlags...), debug.Flags...)
	app.Action = runGateway

	if err := app.Run(os.Args); err != nil {
		nodeutil.Fatalf("%v", err)
	}
}

func runGateway(ctx *cli.Context) error {
	if err := debug.Setup(ctx); err != nil {
		return err
	}
	defer debug.Exit()

	logger := log.New("bl-gateway")

	cfg, err := nodeutil.GatewayConfigFromContext(ctx)
	if err != nil {
		return err
	}

	poolCapacity := 64 * 1024
	poolSlots := 256
	if raw := ctx.String(nodeutil.PoolSizeFlag.Name); raw != "" {
		size, err := nodeutil.ParseSize(raw)
		if err != nil {
			return fmt.Errorf("bl-gateway: invalid --pool-size: %w", err)
		}
		poolCapacity = int(size)
	}
	pool := block.NewPool(poolCapacity, poolSlots, false)
	registry := queue.NewRegistry()

	var cache *auth.Cache
	var authorize auth.Authorizer
	if !cfg.NoServerAuthenticationRequired {
		cache = auth.New(0)
		authorize, err = newCertAuthorizer(cfg.VerifyRootCA)
		if err != nil {
			return err
		}
	}

	srv := gateway.NewServer(cfg, pool, nil, cache, authorize)

	dial, err := dialerFromConfig(cfg)
	if err != nil {
		return err
	}

	backend, err := forwarding.New(context.Background(), cfg.BrokerEndpoints, cfg.Connections, cfg.SourcePeerID, registry, pool, srv, dial, true)
	if err != nil {
		return fmt.Errorf("bl-gateway: connecting to broker endpoints: %w", err)
	}
	srv.SetDispatcher(backend)

	logger.Info("gateway listening", "port", cfg.InboundPort, "endpoints", len(cfg.BrokerEndpoints))
	return srv.ListenAndServeTLS()
}

// dialerFromConfig builds a forwarding.Dialer that opens a real TLS
// connection to a broker endpoint, trusting cfg.VerifyRootCA when
// configured and the system root pool otherwise.
func dialerFromConfig(cfg gateway.Config) (forwarding.Dialer, error) {
	tlsCfg := &tls.Config{}
	if cfg.VerifyRootCA != "" {
		caPEM, err := ioutil.ReadFile(cfg.VerifyRootCA)
		if err != nil {
			return nil, fmt.Errorf("bl-gateway: reading verify-root-ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("bl-gateway: no certificates found in verify-root-ca file %q", cfg.VerifyRootCA)
		}
		tlsCfg.RootCAs = pool
	}

	return func(ctx context.Context, host string, port int) (net.Conn, error) {
		dialer := &tls.Dialer{Config: tlsCfg}
		return dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	}, nil
}
