//go:build linux

package egress

import (
	"context"
	"net"
	"os"
	"testing"

	"github.com/danmuck/slime/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptOne(ln net.Listener) {
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			buf := make([]byte, 1)
			_, _ = conn.Read(buf)
		}
	}()
}

func TestDialVerifiesPeerUID(t *testing.T) {
	testlog.Start(t)
	path, ln := listenUnix(t)
	acceptOne(ln)

	cfg := testConfig(path)
	cfg.ActuatorUID = os.Getuid()
	ch, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, ch.Close())
}

func TestDialRejectsForeignPeer(t *testing.T) {
	testlog.Start(t)
	path, ln := listenUnix(t)
	acceptOne(ln)

	cfg := testConfig(path)
	cfg.ActuatorUID = os.Getuid() + 1
	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrPeer)
}
