// Released under an MIT license. See LICENSE.

// Package profile is the sampling profiler. A companion goroutine
// ticks at the sample interval and raises a flag; the evaluator polls
// the flag at its safe points and hands the profiler a snapshot of
// the call stack. All formatting happens on the evaluator's side of
// the handshake, into a fixed line buffer, so a sample never
// allocates on the hot path and never contends with user I/O.
package profile

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one sampled call: a quoted name and, when line profiling
// is on, where its source lives.
type Frame struct {
	Name string
	File string
	Line int
}

// Config selects what Start records.
type Config struct {
	Path     string
	Interval time.Duration
	Lines    bool // Per-frame source references.
	Memory   bool // Memory tuple before each sample.
	Filter   bool // Only the trailing branch of the call tree.
}

// The fixed per-sample buffer. A sample that does not fit is
// truncated at a frame boundary rather than grown.
const lineMax = 4096

// T (profile) is one profiling run.
type T struct {
	cfg Config

	out     *os.File
	buf     []byte
	files   map[string]int
	pending atomic.Bool

	quit chan struct{}
	done sync.WaitGroup
}

type profiler = T

//nolint:gochecknoglobals
var active atomic.Pointer[T]

// Active returns the running profiler, or nil.
func Active() *T {
	return active.Load()
}

// Start begins a profiling run, replacing any already active.
func Start(cfg Config) error {
	Stop()

	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Millisecond
	}

	f, err := os.Create(cfg.Path)
	if err != nil {
		return err
	}

	p := &profiler{
		cfg:   cfg,
		out:   f,
		buf:   make([]byte, 0, lineMax),
		files: map[string]int{},
		quit:  make(chan struct{}),
	}

	p.header()

	p.done.Add(1)

	go p.tick()

	active.Store(p)

	return nil
}

// Stop ends the active profiling run, if any, waiting for the
// sampler goroutine to finish.
func Stop() {
	p := active.Swap(nil)
	if p == nil {
		return
	}

	close(p.quit)
	p.done.Wait()

	_ = p.out.Close()
}

// Lines reports whether per-frame source references are wanted.
func (p *profiler) Lines() bool {
	return p.cfg.Lines
}

// Filter reports whether only the trailing call branch is wanted.
func (p *profiler) Filter() bool {
	return p.cfg.Filter
}

// Pending reports whether a sample is due, clearing the flag. The
// evaluator calls this at its poll points.
func (p *profiler) Pending() bool {
	return p.pending.Swap(false)
}

// Sample records one stack snapshot, innermost frame first. It runs
// on the evaluator's thread.
func (p *profiler) Sample(frames []Frame) {
	p.buf = p.buf[:0]

	if p.cfg.Memory {
		p.memory()
	}

	for _, f := range frames {
		if len(p.buf)+len(f.Name)+32 > lineMax {
			break
		}

		if p.cfg.Lines && f.File != "" {
			p.buf = appendInt(p.buf, p.fileNum(f.File))
			p.buf = append(p.buf, '#')
			p.buf = appendInt(p.buf, f.Line)
			p.buf = append(p.buf, ' ')
		}

		p.buf = append(p.buf, '"')
		p.buf = append(p.buf, f.Name...)
		p.buf = append(p.buf, '"', ' ')
	}

	p.buf = append(p.buf, '\n')

	_, _ = p.out.Write(p.buf)
}

// Tick is the companion sampler: it never reads evaluator state, it
// only raises the flag the evaluator polls.
func (p *profiler) tick() {
	defer p.done.Done()

	t := time.NewTicker(p.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			p.pending.Store(true)
		case <-p.quit:
			return
		}
	}
}

func (p *profiler) header() {
	p.buf = p.buf[:0]

	if p.cfg.Memory {
		p.buf = append(p.buf, "memory profiling: "...)
	}

	if p.cfg.Lines {
		p.buf = append(p.buf, "line profiling: "...)
	}

	p.buf = append(p.buf, "sample.interval="...)
	p.buf = appendInt(p.buf, int(p.cfg.Interval/time.Microsecond))
	p.buf = append(p.buf, '\n')

	_, _ = p.out.Write(p.buf)
}

// FileNum returns the reference number for a source file, emitting
// its `#File N:` line the first time the file is seen.
func (p *profiler) fileNum(path string) int {
	if n, ok := p.files[path]; ok {
		return n
	}

	n := len(p.files) + 1
	p.files[path] = n

	line := make([]byte, 0, len(path)+16)
	line = append(line, "#File "...)
	line = appendInt(line, n)
	line = append(line, ": "...)
	line = append(line, path...)
	line = append(line, '\n')

	_, _ = p.out.Write(line)

	return n
}

// Memory prefixes the sample with heap-in-use, heap-reserved, and
// completed-GC counts.
func (p *profiler) memory() {
	var m runtime.MemStats

	runtime.ReadMemStats(&m)

	p.buf = append(p.buf, ':')
	p.buf = appendInt(p.buf, int(m.HeapAlloc))
	p.buf = append(p.buf, ':')
	p.buf = appendInt(p.buf, int(m.HeapSys))
	p.buf = append(p.buf, ':')
	p.buf = appendInt(p.buf, int(m.NumGC))
	p.buf = append(p.buf, ':')
}

func appendInt(buf []byte, n int) []byte {
	if n < 0 {
		buf = append(buf, '-')
		n = -n
	}

	var digits [20]byte

	i := len(digits)

	for {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10

		if n == 0 {
			break
		}
	}

	return append(buf, digits[i:]...)
}
