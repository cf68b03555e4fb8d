package config

import (
	"testing"
	"time"

	"github.com/danmuck/slime/internal/testutil/testlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatchesDefault(t *testing.T) {
	testlog.Start(t)
	cfg, err := Build()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:8080", cfg.Ingress.Address)
	assert.Equal(t, "127.0.0.1:8081", cfg.Dashboard.Address)
	assert.Equal(t, "/run/slime/egress.sock", cfg.Egress.Socket)
}

func TestParseOverridesOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	cfg, err := Parse([]byte(`
[ingress]
read_timeout = "250ms"

[egress]
socket = "/tmp/slime.sock"
actuator_uid = 0

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingress.ReadTimeout)
	assert.Equal(t, 256, cfg.Ingress.MaxHandlers)
	assert.Equal(t, "/tmp/slime.sock", cfg.Egress.Socket)
	assert.Equal(t, 0, cfg.Egress.ActuatorUID)
	assert.Equal(t, 2*time.Second, cfg.Egress.DialTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.Dashboard.Enabled)
}

func TestParseRejects(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"public ingress":    "[ingress]\naddress = \"0.0.0.0:8080\"\n",
		"public dashboard":  "[dashboard]\naddress = \"10.0.0.1:8081\"\n",
		"no port":           "[ingress]\naddress = \"127.0.0.1\"\n",
		"bad duration":      "[egress]\ndial_timeout = \"soon\"\n",
		"negative duration": "[egress]\nwrite_timeout = \"-1s\"\n",
		"zero handlers":     "[ingress]\nmax_handlers = 0\n",
		"empty socket":      "[egress]\nsocket = \"\"\n",
		"unknown key":       "[ingress]\nport = 8080\n",
		"bad level":         "[log]\nlevel = \"loud\"\n",
		"syntax":            "[ingress\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
	_, err := Parse([]byte("[ingress]\naddress = \"192.168.1.1:8080\"\n"))
	assert.ErrorIs(t, err, ErrNotLoopback)
}

func TestParseAcceptsLoopbackForms(t *testing.T) {
	testlog.Start(t)
	for _, addr := range []string{"127.0.0.1:9000", "[::1]:9000", "localhost:9000", "127.0.0.2:0"} {
		_, err := Parse([]byte("[ingress]\naddress = \"" + addr + "\"\n"))
		assert.NoError(t, err, addr)
	}
}

func TestDisabledDashboardSkipsAddressCheck(t *testing.T) {
	testlog.Start(t)
	cfg, err := Parse([]byte("[dashboard]\nenabled = false\naddress = \"0.0.0.0:8081\"\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Dashboard.Enabled)
}

func TestRenderRoundTrips(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	cfg.Ingress.ReadTimeout = 0
	cfg.LogLevel = zerolog.WarnLevel

	doc, err := Render(cfg)
	require.NoError(t, err)
	back, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestBuildSourceIsCopy(t *testing.T) {
	testlog.Start(t)
	src := BuildSource()
	require.NotEmpty(t, src)
	src[0] = 'x'
	assert.NotEqual(t, src[0], BuildSource()[0])
}
