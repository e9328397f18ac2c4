// Package daemon provides the orchestration pieces of fbhwcd that sit
// between the display registry and the outside world: the event bridge,
// the recent event log and configuration hot-reload.
package daemon
