package metrics

import "github.com/kilianp07/vpp/core/factory"

// Config defines the metrics section: the sinks to build and the address
// the Prometheus handler is served on.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	Addr  string                 `json:"addr"`
}
