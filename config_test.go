package negotio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsSweepInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"network": {"udp_port": 9100, "unix_socket_path": "/tmp/negotio.sock"},
		"negotiation": {"timeout_ms": 1000}
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.EqualValues(t, 9100, cfg.Network.UDPPort)
	assert.EqualValues(t, 0, cfg.Negotiation.SweepIntervalMs)
}

func TestLoadConfigRejectsMissingPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network": {"unix_socket_path": "/tmp/negotio.sock"}}`), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRejectsMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
}
