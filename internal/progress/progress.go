// Package progress defines the notification interface the collection engine
// uses to report live status, plus the two implementations the CLI needs.
package progress

import "github.com/pterm/pterm"

// Sink receives a fire-and-forget notification before each remote operation.
// Implementations must not block; there is no return value and no backpressure.
type Sink interface {
	Notify(repo, task string)
}

// Noop discards every notification. Used in tests and quiet runs.
type Noop struct{}

func (Noop) Notify(string, string) {}

// Pterm renders notifications as debug lines, so they only show up when
// debug output has been enabled (the --verbose flag).
type Pterm struct{}

func (Pterm) Notify(repo, task string) {
	pterm.Debug.Printfln("%s: %s", repo, task)
}
