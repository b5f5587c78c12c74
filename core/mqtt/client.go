package mqtt

import "time"

// Setpoint is the per-period schedule of one resource for a solved run.
// Positive battery and grid values mean discharge and import.
type Setpoint struct {
	CommandID   string    `json:"command_id"`
	RunID       string    `json:"run_id"`
	Resource    string    `json:"resource"`
	Mode        string    `json:"mode"`
	Objective   string    `json:"objective"`
	Unit        string    `json:"unit"`
	Start       time.Time `json:"start"`
	StepMinutes float64   `json:"step_minutes"`
	Values      []float64 `json:"values"`
	Timestamp   int64     `json:"timestamp"`
}

// Client delivers setpoints to field controllers and tracks their
// acknowledgments.
type Client interface {
	// SendSetpoint publishes sp and returns the command identifier used
	// to track the acknowledgment.
	SendSetpoint(sp Setpoint) (commandID string, err error)

	// WaitForAck waits for the acknowledgment of commandID or until the
	// timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)
}
