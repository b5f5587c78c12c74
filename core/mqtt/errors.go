package mqtt

import "errors"

// ErrAckTimeout is returned when a device does not acknowledge a setpoint
// before the configured timeout.
var ErrAckTimeout = errors.New("timeout waiting for setpoint ack")
