package nodeutil

import (
	"flag"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"
)

func TestParseSizeParsesBase2Units(t *testing.T) {
	n, err := ParseSize("128MiB")
	require.NoError(t, err)
	assert.Equal(t, int64(128*1024*1024), n)
}

func TestParseSizeEmptyIsZero(t *testing.T) {
	n, err := ParseSize("")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLoadTOMLConfigUnmarshalsIntoStruct(t *testing.T) {
	type fileConfig struct {
		DataDir string
		Pool    struct {
			Size string
		}
	}
	f, err := ioutil.TempFile("", "nodeutil-cfg-*.toml")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString("DataDir = \"/var/lib/bl\"\n[Pool]\nSize = \"256MiB\"\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var cfg fileConfig
	require.NoError(t, LoadTOMLConfig(f.Name(), &cfg))
	assert.Equal(t, "/var/lib/bl", cfg.DataDir)
	assert.Equal(t, "256MiB", cfg.Pool.Size)
}

func newTestContext(t *testing.T, fs func(*flag.FlagSet), args []string) *cli.Context {
	app := cli.NewApp()
	app.Flags = GatewayFlags
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, fl := range GatewayFlags {
		fl.Apply(set)
	}
	if fs != nil {
		fs(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestGatewayConfigFromContextParsesFullFlagSet(t *testing.T) {
	ctx := newTestContext(t, nil, []string{
		"--inbound-port", "9443",
		"--broker-endpoints", "10.0.0.1,10.0.0.2:31000",
		"--token-cookie-name", "session",
		"--token-cookie-name", "auth",
		"--request-timeout-in-seconds", "5",
		"--target-peer-id", "00112233445566778899aabbccddeeff",
	})

	cfg, err := GatewayConfigFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9443, cfg.InboundPort)
	require.Len(t, cfg.BrokerEndpoints, 2)
	assert.Equal(t, "10.0.0.1", cfg.BrokerEndpoints[0].Host)
	assert.Equal(t, DefaultBrokerPort, cfg.BrokerEndpoints[0].Port)
	assert.Equal(t, "10.0.0.2", cfg.BrokerEndpoints[1].Host)
	assert.Equal(t, 31000, cfg.BrokerEndpoints[1].Port)
	assert.ElementsMatch(t, []string{"session", "auth"}, cfg.TokenCookieNames)
	assert.False(t, cfg.TargetPeerID.IsZero())
}

func TestParsePeerIDRoundTripsWithString(t *testing.T) {
	id, err := parsePeerID("00112233445566778899aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "00112233445566778899aabbccddeeff", id.String())
}
