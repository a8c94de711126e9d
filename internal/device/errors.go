package device

import (
	"errors"
	"fmt"
)

// Kind tags an Error with the operation it came from.
type Kind string

const (
	// KindDiscovery marks errors reported by the platform during a scan.
	KindDiscovery Kind = "discovery"
	// KindConnection marks errors from a failed connection attempt.
	KindConnection Kind = "connection"
)

// Error is the tagged error raised by scan and connect operations.
type Error struct {
	Kind     Kind
	DeviceID string // empty for discovery errors
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch e.Kind {
	case KindDiscovery:
		prefix = "discovery failed"
	case KindConnection:
		prefix = "connection failed"
		if e.DeviceID != "" {
			prefix = fmt.Sprintf("connection to %s failed", e.DeviceID)
		}
	default:
		prefix = string(e.Kind)
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error of the same Kind, so errors.Is(err, ErrDiscovery)
// works regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks against the two error kinds.
var (
	ErrDiscovery  = &Error{Kind: KindDiscovery}
	ErrConnection = &Error{Kind: KindConnection}
)

// NewDiscoveryError wraps err as a discovery error. A nil err stays nil.
func NewDiscoveryError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindDiscovery, Err: err}
}

// NewConnectionError wraps err as a connection error for deviceID. A nil err stays nil.
func NewConnectionError(deviceID string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindConnection, DeviceID: deviceID, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Kind, true
	}
	return "", false
}

// Platform errors, usually wrapped by a backend's NormalizeError.
var (
	ErrBluetoothOff     = errors.New("bluetooth is turned off")
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrUnknownDevice    = errors.New("unknown device")
	ErrUnsupported      = errors.New("unsupported")
	ErrUnauthorized     = errors.New("bluetooth access not authorized")
	ErrTimeout          = errors.New("timeout")
)
