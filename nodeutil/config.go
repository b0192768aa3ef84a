package nodeutil

import (
	"io/ioutil"

	"github.com/alecthomas/units"
	"github.com/naoina/toml"
)

// LoadTOMLConfig reads the TOML file at path into cfg. Missing keys
// are left at their existing (default) values. Neither bl-broker nor
// bl-gateway calls it.
func LoadTOMLConfig(path string, cfg interface{}) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, cfg)
}

// ParseSize parses a human-sized flag value (e.g. "128MiB") into a
// byte count, as spec §6's max-chunk-size and this package's
// pool-size flag both require.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	b, err := units.ParseBase2Bytes(s)
	if err != nil {
		return 0, err
	}
	return int64(b), nil
}
