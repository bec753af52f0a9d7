// Package configmap provides an abstraction for reading layered config
package configmap

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// Getter provides an interface to get config items
type Getter interface {
	// Get should get an item with the key passed in and return
	// the value. If the item is found then it should return true,
	// otherwise false.
	Get(key string) (value string, ok bool)
}

// Map stacks Getters. Earlier getters win.
type Map struct {
	getters []Getter
}

// New returns an empty Map
func New() *Map {
	return &Map{}
}

// AddGetter appends a getter onto the end of the getters
func (c *Map) AddGetter(getter Getter) *Map {
	c.getters = append(c.getters, getter)
	return c
}

// Get gets an item with the key passed in and return the value from
// the first getter. If the item is found then it returns true,
// otherwise false.
func (c *Map) Get(key string) (value string, ok bool) {
	for _, do := range c.getters {
		value, ok = do.Get(key)
		if ok {
			return value, ok
		}
	}
	return "", false
}

// Simple is a simple Getter backed by a map
type Simple map[string]string

// Get the value
func (c Simple) Get(key string) (value string, ok bool) {
	value, ok = c[key]
	return value, ok
}

// String the map value with sorted keys for reproducibility
func (c Simple) String() string {
	var ks = make([]string, 0, len(c))
	for k := range c {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	var out strings.Builder
	for _, k := range ks {
		if out.Len() > 0 {
			out.WriteRune(',')
		}
		out.WriteString(k)
		out.WriteString("='")
		out.WriteString(strings.ReplaceAll(c[k], "'", "''"))
		out.WriteRune('\'')
	}
	return out.String()
}

// Env reads config items from environment variables named
// PREFIX_KEY, eg CODRIVER_CHUNK_SIZE for chunk_size.
type Env string

// Get the value
func (prefix Env) Get(key string) (value string, ok bool) {
	return os.LookupEnv(string(prefix) + "_" + strings.ToUpper(key))
}

// Flags reads config items from command line flags. Only flags the
// user actually set are returned so that defaults don't shadow the
// lower layers. Underscores in keys become dashes in flag names.
type Flags struct {
	*pflag.FlagSet
}

// Get the value
func (f Flags) Get(key string) (value string, ok bool) {
	if f.FlagSet == nil {
		return "", false
	}
	flag := f.Lookup(strings.Replace(key, "_", "-", -1))
	if flag == nil || !flag.Changed {
		return "", false
	}
	return flag.Value.String(), true
}
