// Package infra contains technical adapters: the LP backend, the MQTT
// setpoint publisher, metrics exporters, tracing and error reporting.
// These packages should depend only on the interfaces defined in the core
// packages.
package infra
