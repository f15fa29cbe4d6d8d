// Released under an MIT license. See LICENSE.

// Package interrupt holds the process-wide interrupt flag. A signal
// handler sets it; the evaluator and the bytecode interpreter poll it
// at safe points and turn it into a condition.
package interrupt

import (
	"os"
	"os/signal"
	"sync/atomic"
)

//nolint:gochecknoglobals
var (
	pending atomic.Bool
	signals chan os.Signal
)

// Notify starts fielding SIGINT. Delivery only raises the flag; the
// interpreter decides when to act on it.
func Notify() {
	if signals != nil {
		return
	}

	signals = make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	go func() {
		for range signals {
			pending.Store(true)
		}
	}()
}

// Ignore restores default SIGINT handling.
func Ignore() {
	if signals == nil {
		return
	}

	signal.Reset(os.Interrupt)
	close(signals)
	signals = nil
}

// Raise marks an interrupt as pending, as if SIGINT had arrived.
func Raise() {
	pending.Store(true)
}

// Requested reports whether an interrupt is pending, clearing it when
// it is. The caller owns the interrupt once it sees true.
func Requested() bool {
	return pending.Swap(false)
}
