// Package config assembles the layered configuration CoDriver reads
// its options from.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/fs/config/configmap"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"
)

// EnvPrefix is prepended to upper cased config keys to find
// environment overrides.
const EnvPrefix = "CODRIVER"

// Dir returns the directory holding the config file and, by default,
// the credentials.
func Dir() string {
	home, err := homedir.Dir()
	if err != nil {
		fs.Debugf(nil, "Couldn't find home directory: %v", err)
		return filepath.Join(".", ".codriver")
	}
	return filepath.Join(home, ".config", "codriver")
}

// DefaultPath is the config file read when none is given
func DefaultPath() string {
	return filepath.Join(Dir(), "codriver.yaml")
}

// File is a Getter backed by a flat YAML document of key: value pairs
type File map[string]string

// Get the value
func (f File) Get(key string) (value string, ok bool) {
	value, ok = f[key]
	return value, ok
}

// ReadFile parses the YAML config at path. Scalars of any type are
// turned back into strings so they parse like any other source.
func ReadFile(path string) (File, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %q", path)
	}
	f := make(File, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
			f[k] = ""
		case map[interface{}]interface{}, []interface{}:
			return nil, errors.Errorf("config file %q: %q must be a single value", path, k)
		default:
			f[k] = fmt.Sprint(x)
		}
	}
	return f, nil
}

// Load builds the config getter chain. Explicitly set flags win over
// environment variables, which win over the config file. A missing
// config file is not an error.
func Load(path string, flags *pflag.FlagSet) (*configmap.Map, error) {
	m := configmap.New()
	m.AddGetter(configmap.Flags{FlagSet: flags})
	m.AddGetter(configmap.Env(EnvPrefix))
	if path == "" {
		return m, nil
	}
	file, err := ReadFile(path)
	switch {
	case err == nil:
		fs.Debugf(nil, "Using config file %q", path)
		m.AddGetter(file)
	case os.IsNotExist(errors.Cause(err)):
		fs.Debugf(nil, "Config file %q not found - using defaults", path)
	default:
		return nil, err
	}
	return m, nil
}
