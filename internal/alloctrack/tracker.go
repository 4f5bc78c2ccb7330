// Package alloctrack implements the session's heap-bytes ceiling.
//
// The reference design intercepts the embedded interpreter's allocator
// directly, prepending a size header to every allocation so frees can
// always find their accounted size. Go's runtime gives no equivalent
// hook: there is no per-VM allocator to intercept, and no safe way to
// tag a live Go allocation with an out-of-band header. Tracker instead
// combines two real signals that together approximate the same ceiling:
//
//  1. explicit accounting for every byte that crosses a boundary this
//     package's caller controls — marshalled tool-call arguments and
//     results, and bytes appended to the output buffer — charged via
//     Reserve/Release, exactly mirroring the "header on every owned
//     allocation" bookkeeping described by the design;
//  2. periodic sampling of process heap growth via runtime.ReadMemStats,
//     which catches allocation pressure generated purely inside the
//     interpreter (e.g. a huge in-VM string repeat) that never crosses
//     the boundary in (1).
//
// A Tracker is owned exclusively by one Session; unlike the reference
// design's thread-local activation (needed because the interpreter's
// allocator hook is a process-wide C global), a Go Tracker is simply a
// private field of the owning session, which gives the same per-session
// isolation without any global or goroutine-local state.
package alloctrack

import (
	"runtime"
	"sync"
)

// Tracker accounts bytes against a configurable limit and flags an
// exceeded condition once a reservation would push the running total
// past it. A zero limit means unlimited.
type Tracker struct {
	mu           sync.Mutex
	limit        uint64
	current      uint64
	exceeded     bool
	heapBaseline uint64
}

// New returns an unarmed Tracker (limit zero, i.e. unlimited).
func New() *Tracker {
	return &Tracker{}
}

// Arm resets the exceeded flag, sets the byte limit for the next
// evaluation (zero means unlimited) and records the current process heap
// size as the baseline for SampleHeap. current is intentionally left
// untouched: callers that want a fully fresh count should pair Arm with
// a Reset.
func (t *Tracker) Arm(limit uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limit = limit
	t.exceeded = false
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	t.heapBaseline = ms.HeapAlloc
}

// Disarm lifts the limit (sets it to unlimited) without clearing the
// exceeded flag or the running total; this mirrors the reference design
// keeping the allocator armed-but-unlimited between evaluations so every
// allocation still bears a size header.
func (t *Tracker) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limit = 0
}

// Reset zeroes the running total and exceeded flag; used when building a
// fresh interpreter during Session.Reset.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = 0
	t.exceeded = false
}

// Reserve charges n bytes against the running total. If the limit is
// positive and charging n would exceed it, the reservation is refused,
// the exceeded flag is set, and ErrMemoryLimit is returned — the Go
// analog of the allocator returning allocation failure so the
// interpreter can raise its out-of-memory error.
func (t *Tracker) Reserve(n uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limit > 0 && t.current+n > t.limit {
		t.exceeded = true
		return ErrMemoryLimit
	}
	t.current += n
	return nil
}

// Release returns n bytes to the tracker, e.g. when a value that was
// reserved is discarded without being retained by the session.
func (t *Tracker) Release(n uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n > t.current {
		t.current = 0
		return
	}
	t.current -= n
}

// SampleHeap compares current process heap growth since the last Arm
// call against the limit. It is the coarse-grained half of the ceiling,
// invoked by the deadline/memory watchdog goroutine on a fixed poll
// interval; it never refuses an in-flight Reserve, it only flags
// exceeded so the watchdog can interrupt the running script.
func (t *Tracker) SampleHeap() bool {
	t.mu.Lock()
	limit := t.limit
	baseline := t.heapBaseline
	t.mu.Unlock()
	if limit == 0 {
		return false
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	grown := uint64(0)
	if ms.HeapAlloc > baseline {
		grown = ms.HeapAlloc - baseline
	}
	if grown > limit {
		t.mu.Lock()
		t.exceeded = true
		t.mu.Unlock()
		return true
	}
	return false
}

// Exceeded reports whether the limit has been crossed since the last Arm.
func (t *Tracker) Exceeded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exceeded
}

// Current returns the running byte total charged via Reserve/Release.
func (t *Tracker) Current() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
