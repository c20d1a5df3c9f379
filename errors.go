package negotio

import (
	"fmt"

	"github.com/xaionaro-go/errors"
)

// ErrorCode is one of the tagged results an engine/transport/registry
// operation can surface.
type ErrorCode uint8

const (
	Success ErrorCode = iota
	Timeout
	InvalidParam
	NegotiationFailed
	MemoryError
	SocketError
)

func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	case InvalidParam:
		return "invalid_param"
	case NegotiationFailed:
		return "negotiation_failed"
	case MemoryError:
		return "memory_error"
	case SocketError:
		return "socket_error"
	default:
		return "unknown"
	}
}

// Coded is implemented by every error type this package returns, letting
// callers recover the ErrorCode without string-matching.
type Coded interface {
	error
	Code() ErrorCode
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrap(err)
	wrapped.(*errors.Error).Traceback.CutOffFirstNLines++
	return wrapped
}

// ErrTimeout indicates no datagram was available within the requested wait.
type ErrTimeout struct{}

func newErrTimeout() error {
	err := errors.New(ErrTimeout{})
	err.Traceback.CutOffFirstNLines++
	return err
}
func (ErrTimeout) Error() string   { return "timeout" }
func (ErrTimeout) Code() ErrorCode { return Timeout }

// ErrInvalidParam indicates a protocol violation, a bad argument, a
// malformed payload for the message type, or a zero policy id.
type ErrInvalidParam struct {
	Reason string
}

func newErrInvalidParam(reason string) error {
	err := errors.New(ErrInvalidParam{Reason: reason})
	err.Traceback.CutOffFirstNLines++
	return err
}
func (e ErrInvalidParam) Error() string {
	if e.Reason == "" {
		return "invalid parameter"
	}
	return fmt.Sprintf("invalid parameter: %s", e.Reason)
}
func (ErrInvalidParam) Code() ErrorCode { return InvalidParam }

// ErrNegotiationFailed marks a session abandoned by the timeout sweep.
type ErrNegotiationFailed struct {
	PolicyID uint32
}

func newErrNegotiationFailed(policyID uint32) error {
	err := errors.New(ErrNegotiationFailed{PolicyID: policyID})
	err.Traceback.CutOffFirstNLines++
	return err
}
func (e ErrNegotiationFailed) Error() string {
	return fmt.Sprintf("negotiation failed for policy %d", e.PolicyID)
}
func (ErrNegotiationFailed) Code() ErrorCode { return NegotiationFailed }

// ErrMemory indicates an RNG or allocation failure.
type ErrMemory struct {
	Reason string
}

func newErrMemory(reason string) error {
	err := errors.New(ErrMemory{Reason: reason})
	err.Traceback.CutOffFirstNLines++
	return err
}
func (e ErrMemory) Error() string  { return fmt.Sprintf("memory error: %s", e.Reason) }
func (ErrMemory) Code() ErrorCode { return MemoryError }

// ErrSocket indicates a transport-level failure: bind, send, or receive.
type ErrSocket struct {
	Op     string
	Reason error
}

func newErrSocket(op string, reason error) error {
	err := errors.Wrap(reason, ErrSocket{Op: op, Reason: reason}).(*errors.Error)
	err.Traceback.CutOffFirstNLines += 2
	return err
}
func (e ErrSocket) Error() string  { return fmt.Sprintf("socket error during %s: %v", e.Op, e.Reason) }
func (ErrSocket) Code() ErrorCode { return SocketError }

// ErrAlreadyExists indicates a session or policy with the given id is
// already present on this endpoint.
type ErrAlreadyExists struct {
	PolicyID uint32
}

func newErrAlreadyExists(policyID uint32) error {
	err := errors.New(ErrAlreadyExists{PolicyID: policyID})
	err.Traceback.CutOffFirstNLines++
	return err
}
func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("policy %d already exists", e.PolicyID)
}
func (ErrAlreadyExists) Code() ErrorCode { return InvalidParam }

// codeOf extracts the ErrorCode carried by err, defaulting to InvalidParam
// since decode/validation failures in this package are always tagged
// before they escape a component.
func codeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	if coded, ok := err.(Coded); ok {
		return coded.Code()
	}
	if xerr, ok := err.(*errors.Error); ok {
		if coded, ok := xerr.GetErr().(Coded); ok {
			return coded.Code()
		}
		for _, arg := range xerr.Args {
			if coded, ok := arg.(Coded); ok {
				return coded.Code()
			}
		}
	}
	return InvalidParam
}
