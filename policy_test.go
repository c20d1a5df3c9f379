package negotio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRegistryCapacityBound(t *testing.T) {
	reg := NewPolicyRegistry(0)

	for i := uint32(1); i <= MaxPolicies; i++ {
		require.NoError(t, reg.Add(PolicyConfig{PolicyID: i, RemoteIP: "127.0.0.1", RemotePort: 9000}))
	}

	err := reg.Add(PolicyConfig{PolicyID: MaxPolicies + 1, RemoteIP: "127.0.0.1", RemotePort: 9000})
	require.Error(t, err)
	assert.Equal(t, InvalidParam, codeOf(err))
}

func TestPolicyRegistryRejectsDuplicates(t *testing.T) {
	reg := NewPolicyRegistry(0)
	cfg := PolicyConfig{PolicyID: 1, RemoteIP: "127.0.0.1", RemotePort: 9000}

	require.NoError(t, reg.Add(cfg))
	err := reg.Add(cfg)
	require.Error(t, err)
}

func TestPolicyRegistryRejectsZeroID(t *testing.T) {
	reg := NewPolicyRegistry(0)
	err := reg.Add(PolicyConfig{PolicyID: 0, RemoteIP: "127.0.0.1", RemotePort: 9000})
	require.Error(t, err)
}

func TestPolicyRegistryDefaults(t *testing.T) {
	reg := NewPolicyRegistry(0)
	require.NoError(t, reg.Add(PolicyConfig{PolicyID: 1, RemoteIP: "127.0.0.1", RemotePort: 9000}))

	cfg, ok := reg.Get(1)
	require.True(t, ok)
	assert.EqualValues(t, DefaultTimeoutMs, cfg.TimeoutMs)
	assert.EqualValues(t, DefaultRetryTimes, cfg.RetryTimes)
}

func TestPolicyRegistryHonorsConfiguredDefaultTimeout(t *testing.T) {
	reg := NewPolicyRegistry(5000)

	require.NoError(t, reg.Add(PolicyConfig{PolicyID: 1, RemoteIP: "127.0.0.1", RemotePort: 9000}))
	cfg, ok := reg.Get(1)
	require.True(t, ok)
	assert.EqualValues(t, 5000, cfg.TimeoutMs)
	assert.EqualValues(t, 5000, reg.TimeoutMsFor(1))

	require.NoError(t, reg.Add(PolicyConfig{PolicyID: 2, RemoteIP: "127.0.0.1", RemotePort: 9000, TimeoutMs: 250}))
	cfg2, ok := reg.Get(2)
	require.True(t, ok)
	assert.EqualValues(t, 250, cfg2.TimeoutMs, "an explicit timeout_ms must not be overridden by the configured default")

	assert.EqualValues(t, 5000, reg.TimeoutMsFor(99), "an unknown policy falls back to the configured default, not the hardcoded constant")
}

func TestPolicyRegistrySnapshotOrder(t *testing.T) {
	reg := NewPolicyRegistry(0)
	for i := uint32(1); i <= 3; i++ {
		require.NoError(t, reg.Add(PolicyConfig{PolicyID: i, RemoteIP: "127.0.0.1", RemotePort: 9000}))
	}

	snap := reg.Snapshot()
	require.Len(t, snap, 3)
	for i, cfg := range snap {
		assert.Equal(t, fmt.Sprintf("policy-%d", i+1), fmt.Sprintf("policy-%d", cfg.PolicyID))
	}
}
