package negotio

import (
	"context"
	"net"
	"sync"
	"time"
)

// Supervisor owns startup and shutdown: it wires the transport, control
// listener, policy registry, engine, and stats sink together, runs the
// receive and control-accept loops on dedicated goroutines, and joins
// everything on cancellation.
type Supervisor struct {
	cfg       *Config
	logger    Logger
	transport *Transport
	control   *ControlListener
	policies  *PolicyRegistry
	engine    *Engine
	stats     *Stats
	sweep     *sweeper
}

// NewSupervisor constructs every collaborator from cfg, binding the UDP
// socket and the control socket, but does not start any loops; call Run
// for that.
func NewSupervisor(cfg *Config, logger Logger) (*Supervisor, error) {
	logger = ensureLogger(logger)

	transport, err := NewTransport(cfg.Network.UDPPort, logger)
	if err != nil {
		return nil, err
	}

	stats := NewStats(logger)
	engine := NewEngine(transport, stats, logger)
	policies := NewPolicyRegistry(cfg.Negotiation.TimeoutMs)

	sup := &Supervisor{
		cfg:       cfg,
		logger:    logger,
		transport: transport,
		policies:  policies,
		engine:    engine,
		stats:     stats,
	}

	control, err := NewControlListener(cfg.Network.UnixSocketPath, logger, sup.handleAddPolicy)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}
	sup.control = control
	sup.sweep = newSweeper(engine, policies, stats, logger, cfg.Negotiation.SweepIntervalMs)

	return sup, nil
}

// handleAddPolicy is the control listener's onAdd callback: insert into
// the registry, then — if inserted — immediately start negotiation.
func (s *Supervisor) handleAddPolicy(cfg PolicyConfig) error {
	if err := s.policies.Add(cfg); err != nil {
		return err
	}

	addr, err := cfg.addr()
	if err != nil {
		s.policies.Remove(cfg.PolicyID)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.engine.Start(ctx, cfg.PolicyID, addr); err != nil {
		s.logger.Error("supervisor.handleAddPolicy", err)
		return err
	}
	return nil
}

// Run locks memory, launches the control-accept loop (pinned to core 0),
// the UDP receive loop (pinned to core 1), the stats emitter, and the
// timeout sweep, then blocks until ctx is canceled before joining every
// goroutine.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := lockMemory(); err != nil {
		s.logger.Debugf("lockMemory: %v (non-fatal)", err)
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		lockAndPin(0, func() { s.control.Run(ctx) })
	}()

	go func() {
		defer wg.Done()
		lockAndPin(1, func() { s.receiveLoop(ctx) })
	}()

	go func() {
		defer wg.Done()
		s.stats.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		s.sweep.Run(ctx)
	}()

	<-ctx.Done()
	s.logger.Infof("shutting down")
	_ = s.control.Close()
	_ = s.transport.Close()
	wg.Wait()
	return nil
}

func (s *Supervisor) receiveLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pkt, addr, err := s.transport.Recv(200 * time.Millisecond)
		if err != nil {
			if codeOf(err) == Timeout {
				continue
			}
			s.logger.Error("supervisor.receiveLoop", err)
			continue
		}

		s.dispatch(ctx, pkt, addr)
	}
}

func (s *Supervisor) dispatch(ctx context.Context, pkt *NegotiationPacket, addr *net.UDPAddr) {
	if err := s.engine.Handle(ctx, pkt, addr); err != nil {
		s.logger.Debugf("dropped packet policy=%d type=%s: %v", pkt.Header.Sequence, pkt.Header.Type, err)
	}
}
