//go:build agent

package engine

import (
	"testing"

	"github.com/danmuck/slime/internal/abi"
	"github.com/danmuck/slime/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentRule(t *testing.T) {
	testlog.Start(t)
	e, err := New()
	require.NoError(t, err)
	assert.Equal(t, "agent", e.Variant())

	assert.True(t, e.Resolve(abi.NewActionRequest([]byte("test"), 1000, make([]byte, 4096))).Authorized())
	assert.False(t, e.Resolve(abi.NewActionRequest([]byte("test"), 1001, nil)).Authorized())
	assert.False(t, e.Resolve(abi.NewActionRequest([]byte("test"), 10, make([]byte, 4097))).Authorized())
}
