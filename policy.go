package negotio

import (
	"net"
	"sync"
)

// MaxPolicies is the capacity bound of the registry.
const MaxPolicies = 4096

// DefaultTimeoutMs is the fallback used only when no configured default
// is available (e.g. in tests that build a registry directly).
const DefaultTimeoutMs = 1000

// DefaultRetryTimes mirrors the source's default; nothing currently
// wires retransmission to it (see the retry Open Question).
const DefaultRetryTimes = 3

// PolicyConfig is one externally supplied negotiation target.
type PolicyConfig struct {
	PolicyID   uint32 `json:"policy_id"`
	RemoteIP   string `json:"remote_ip"`
	RemotePort uint16 `json:"remote_port"`
	TimeoutMs  uint32 `json:"timeout_ms"`
	RetryTimes uint32 `json:"retry_times"`
}

func (p PolicyConfig) addr() (*net.UDPAddr, error) {
	ip := net.ParseIP(p.RemoteIP)
	if ip == nil {
		return nil, newErrInvalidParam("remote_ip is not a valid IPv4 address")
	}
	return &net.UDPAddr{IP: ip, Port: int(p.RemotePort)}, nil
}

// PolicyRegistry is a bounded, unique-keyed store of policy
// configurations. Add rejects duplicates and inserts past capacity.
type PolicyRegistry struct {
	mu               sync.Mutex
	policies         map[uint32]PolicyConfig
	order            []uint32
	defaultTimeoutMs uint32
}

// NewPolicyRegistry builds an empty registry with the capacity bound of
// MaxPolicies. defaultTimeoutMs is the negotiation.timeout_ms value from
// the loaded configuration; any policy add that omits timeout_ms falls
// back to it. A zero defaultTimeoutMs falls back to DefaultTimeoutMs.
func NewPolicyRegistry(defaultTimeoutMs uint32) *PolicyRegistry {
	if defaultTimeoutMs == 0 {
		defaultTimeoutMs = DefaultTimeoutMs
	}
	return &PolicyRegistry{
		policies:         make(map[uint32]PolicyConfig),
		defaultTimeoutMs: defaultTimeoutMs,
	}
}

// Add inserts cfg, defaulting TimeoutMs to the registry's configured
// default and RetryTimes to DefaultRetryTimes when the caller left them
// zero, and fails if the policy id already exists or the registry is at
// capacity.
func (r *PolicyRegistry) Add(cfg PolicyConfig) error {
	if cfg.PolicyID == 0 {
		return newErrInvalidParam("policy id is zero")
	}
	if cfg.TimeoutMs == 0 {
		cfg.TimeoutMs = r.defaultTimeoutMs
	}
	if cfg.RetryTimes == 0 {
		cfg.RetryTimes = DefaultRetryTimes
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[cfg.PolicyID]; exists {
		return newErrAlreadyExists(cfg.PolicyID)
	}
	if len(r.policies) >= MaxPolicies {
		return newErrInvalidParam("policy registry at capacity")
	}

	r.policies[cfg.PolicyID] = cfg
	r.order = append(r.order, cfg.PolicyID)
	return nil
}

// Get returns the stored policy for policyID, if any.
func (r *PolicyRegistry) Get(policyID uint32) (PolicyConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.policies[policyID]
	return cfg, ok
}

// Remove deletes the policy for policyID, if present.
func (r *PolicyRegistry) Remove(policyID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.policies, policyID)
	for i, id := range r.order {
		if id == policyID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// TimeoutMsFor is a convenience accessor the sweep uses; it falls back
// to the registry's configured default if the policy is unknown (e.g.
// already removed).
func (r *PolicyRegistry) TimeoutMsFor(policyID uint32) uint32 {
	cfg, ok := r.Get(policyID)
	if !ok {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.defaultTimeoutMs
	}
	return cfg.TimeoutMs
}

// Snapshot returns every stored policy in insertion order, for
// diagnostics.
func (r *PolicyRegistry) Snapshot() []PolicyConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PolicyConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.policies[id])
	}
	return out
}
