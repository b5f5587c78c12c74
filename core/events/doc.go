// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - RunStarted: a (mode, objective) run was accepted
//   - AttemptFinished: one optimizer call returned
//   - RunFinished: the run produced a schedule or a classified failure
package events
