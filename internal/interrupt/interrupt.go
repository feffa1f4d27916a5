// Package interrupt implements bdx's process-wide cooperative
// cancellation primitive (spec §5 "Cancellation"): a signal handler
// flips an atomic flag observed at explicit checkpoints by the
// Indexer Pipeline's main loop and the Graph Search loop. The first
// SIGINT sets the flag and logs once; the second restores the
// default handler and lets the OS kill the process (spec §9 "Signal
// handling").
package interrupt

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Flag is an owned, scoped signal listener — not a package-level
// global — so tests and independent commands each get their own
// instance (spec §9 mirrors this guidance for the demangler
// collaborator; the same reasoning applies to signal state).
type Flag struct {
	flagged atomic.Bool

	mu      sync.Mutex
	signals chan os.Signal
	hits    int
}

// New returns an unarmed Flag; call Listen to start observing
// SIGINT.
func New() *Flag {
	return &Flag{}
}

// Listen installs the signal handler and returns a Stop function that
// must be called to release it (typically deferred by the caller).
func (f *Flag) Listen() (stop func()) {
	f.mu.Lock()
	f.signals = make(chan os.Signal, 1)
	ch := f.signals
	f.mu.Unlock()

	signal.Notify(ch, os.Interrupt)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				f.mu.Lock()
				f.hits++
				hits := f.hits
				f.mu.Unlock()

				if hits == 1 {
					f.flagged.Store(true)
					log.Printf("interrupt: received SIGINT, finishing in-flight work and stopping (press again to force quit)")
					continue
				}

				// Second interrupt: restore the default handler and
				// let the OS terminate the process (spec §5 "the
				// second SIGINT restores the default handler and
				// lets the default action kill the process").
				signal.Stop(ch)
				signal.Reset(os.Interrupt)
				proc, err := os.FindProcess(os.Getpid())
				if err == nil {
					proc.Signal(os.Interrupt)
				}
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		signal.Stop(ch)
	}
}

// ShouldQuit reports whether a first interrupt has been observed.
// Indexer workers and graph search loops poll this after completing a
// unit of work (spec §5, §9).
func (f *Flag) ShouldQuit() bool {
	return f.flagged.Load()
}

// Trip forces ShouldQuit to report true without waiting for a signal,
// for tests and for callers that want to cancel programmatically.
func (f *Flag) Trip() {
	f.flagged.Store(true)
}
