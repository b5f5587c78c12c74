package model

import (
	"fmt"
	"strings"
)

// SchedulingMode selects which resources of the portfolio take part in a run.
type SchedulingMode int

const (
	ModeRenewableStorage SchedulingMode = iota
	ModeAdjustableStorage
	ModeTraditional
	ModeNoRenewable
	ModeStorageOnly
	ModeFullSystem
)

var modeNames = [...]string{
	ModeRenewableStorage:  "renewable_storage",
	ModeAdjustableStorage: "adjustable_storage",
	ModeTraditional:       "traditional",
	ModeNoRenewable:       "no_renewable",
	ModeStorageOnly:       "storage_only",
	ModeFullSystem:        "full_system",
}

// AllModes returns every scheduling mode in declaration order.
func AllModes() []SchedulingMode {
	return []SchedulingMode{
		ModeRenewableStorage,
		ModeAdjustableStorage,
		ModeTraditional,
		ModeNoRenewable,
		ModeStorageOnly,
		ModeFullSystem,
	}
}

// String returns the snake_case identifier used in configs and on the CLI.
func (m SchedulingMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// Valid reports whether m is one of the enumerated modes.
func (m SchedulingMode) Valid() bool {
	return m >= 0 && int(m) < len(modeNames)
}

// ParseMode accepts the identifier in any case, with dashes or underscores.
func ParseMode(s string) (SchedulingMode, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range modeNames {
		if name == norm {
			return SchedulingMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scheduling mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m SchedulingMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid scheduling mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SchedulingMode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
