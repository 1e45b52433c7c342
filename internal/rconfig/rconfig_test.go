package rconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func Test_Load_OverridesMerge(t *testing.T) {
	doc := `
trace = true
store_dir = "/var/lib/marsha"

[http]
listen_address = "0.0.0.0:9090"
token_lifetime_ms = 60000
`
	cfg, err := Load(strings.NewReader(doc))
	assert.NoError(t, err)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "/var/lib/marsha", cfg.StoreDir)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.ListenAddress)
	assert.Equal(t, int64(60000), cfg.HTTP.TokenLifetimeMs)
	assert.Equal(t, Default().ChartCapacityHint, cfg.ChartCapacityHint)
}

func Test_Load_RejectsEmptyListenAddress(t *testing.T) {
	doc := `
[http]
listen_address = ""
`
	_, err := Load(strings.NewReader(doc))
	assert.Error(t, err)
}

func Test_LoadFile_MissingIsDefault(t *testing.T) {
	cfg, err := LoadFile("/nonexistent/path/marsha.toml")
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
