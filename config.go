package negotio

import (
	"encoding/json"
	"os"
)

// Config is the on-disk JSON configuration document read at startup.
type Config struct {
	Network     NetworkConfig     `json:"network"`
	Negotiation NegotiationConfig `json:"negotiation"`
}

type NetworkConfig struct {
	UDPPort        uint16 `json:"udp_port"`
	UnixSocketPath string `json:"unix_socket_path"`
}

type NegotiationConfig struct {
	TimeoutMs       uint32 `json:"timeout_ms"`
	SweepIntervalMs uint32 `json:"sweep_interval_ms"`
}

// LoadConfig reads and parses the configuration file at path. A missing
// sweep_interval_ms defaults to DefaultSweepIntervalMs when the
// supervisor constructs the sweeper.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newErrInvalidParam("cannot read config file: " + err.Error())
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, newErrInvalidParam("cannot parse config file: " + err.Error())
	}

	if cfg.Network.UDPPort == 0 {
		return nil, newErrInvalidParam("network.udp_port is required")
	}
	if cfg.Network.UnixSocketPath == "" {
		return nil, newErrInvalidParam("network.unix_socket_path is required")
	}
	if cfg.Negotiation.TimeoutMs == 0 {
		cfg.Negotiation.TimeoutMs = DefaultTimeoutMs
	}

	return &cfg, nil
}
