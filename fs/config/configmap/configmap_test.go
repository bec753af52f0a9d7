package configmap

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Getter = Simple(nil)
	_ Getter = (*Map)(nil)
	_ Getter = Env("")
	_ Getter = Flags{}
)

func TestMapPriority(t *testing.T) {
	m := New()
	m.AddGetter(Simple{"a": "one"}).AddGetter(Simple{"a": "two", "b": "three"})

	value, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "one", value)

	value, ok = m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "three", value)

	_, ok = m.Get("c")
	assert.False(t, ok)
}

func TestSimpleString(t *testing.T) {
	assert.Equal(t, "", Simple(nil).String())
	assert.Equal(t, "one='1',two='it''s'", Simple{"two": "it's", "one": "1"}.String())
}

func TestEnv(t *testing.T) {
	require.NoError(t, os.Setenv("CODRIVER_TEST_CHUNK_SIZE", "16Mi"))
	defer func() { _ = os.Unsetenv("CODRIVER_TEST_CHUNK_SIZE") }()

	value, ok := Env("CODRIVER_TEST").Get("chunk_size")
	assert.True(t, ok)
	assert.Equal(t, "16Mi", value)

	_, ok = Env("CODRIVER_TEST").Get("list_chunk")
	assert.False(t, ok)
}

func TestFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("chunk-size", "8Mi", "")
	flags.String("token-file", "creds.json", "")
	require.NoError(t, flags.Parse([]string{"--chunk-size", "32Mi"}))

	value, ok := Flags{flags}.Get("chunk_size")
	assert.True(t, ok)
	assert.Equal(t, "32Mi", value)

	// unchanged flags fall through to the next layer
	_, ok = Flags{flags}.Get("token_file")
	assert.False(t, ok)

	_, ok = Flags{}.Get("chunk_size")
	assert.False(t, ok)
}
