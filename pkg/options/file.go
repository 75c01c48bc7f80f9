package options

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// LoadFile reads an option file. The format is taken from the extension
// (yaml, yml, json, toml). When envPrefix is not empty, environment
// variables such as PREFIX_TRANSPORT_HOST override keys found in the file.
//
// Keys come back lowercased, which Resolve tolerates because it matches
// schema keys case-insensitively.
func LoadFile(path, envPrefix string) (map[string]any, error) {
	if path == "" {
		return nil, ErrNoFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	return v.AllSettings(), nil
}
