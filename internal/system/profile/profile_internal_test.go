// Released under an MIT license. See LICENSE.

package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func start(t *testing.T, cfg Config) string {
	t.Helper()

	cfg.Path = filepath.Join(t.TempDir(), "profile.out")

	if err := Start(cfg); err != nil {
		t.Fatalf("start: %s", err.Error())
	}

	t.Cleanup(Stop)

	return cfg.Path
}

func contents(t *testing.T, path string) string {
	t.Helper()

	Stop()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %s", path, err.Error())
	}

	return string(b)
}

func TestAppendInt(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"}, {7, "7"}, {42, "42"}, {20000, "20000"}, {-3, "-3"},
	}

	for _, test := range tests {
		if got := string(appendInt(nil, test.n)); got != test.want {
			t.Fatalf("appendInt(%d) = %q, want %q", test.n, got, test.want)
		}
	}
}

func TestHeader(t *testing.T) {
	path := start(t, Config{Interval: 20 * time.Millisecond})

	got := contents(t, path)
	if !strings.HasPrefix(got, "sample.interval=20000\n") {
		t.Fatalf("unexpected header %q", got)
	}
}

func TestHeaderFlags(t *testing.T) {
	path := start(t, Config{
		Interval: time.Millisecond, Lines: true, Memory: true,
	})

	got := contents(t, path)

	want := "memory profiling: line profiling: sample.interval=1000\n"
	if !strings.HasPrefix(got, want) {
		t.Fatalf("header %q, want prefix %q", got, want)
	}
}

func TestSampleQuotesFrames(t *testing.T) {
	path := start(t, Config{Interval: time.Second})

	Active().Sample([]Frame{{Name: "inner"}, {Name: "outer"}})

	got := contents(t, path)
	if !strings.Contains(got, "\"inner\" \"outer\" \n") {
		t.Fatalf("sample line missing from %q", got)
	}
}

func TestSampleEmitsFileLinesLazily(t *testing.T) {
	path := start(t, Config{Interval: time.Second, Lines: true})

	p := Active()

	p.Sample([]Frame{{Name: "f", File: "a.rho", Line: 3}})
	p.Sample([]Frame{
		{Name: "g", File: "a.rho", Line: 9},
		{Name: "h", File: "b.rho", Line: 1},
	})

	got := contents(t, path)

	if strings.Count(got, "#File 1: a.rho\n") != 1 {
		t.Fatalf("file a.rho not declared exactly once in %q", got)
	}

	if !strings.Contains(got, "#File 2: b.rho\n") {
		t.Fatalf("file b.rho not declared in %q", got)
	}

	if !strings.Contains(got, "1#3 \"f\" \n") {
		t.Fatalf("line reference missing from %q", got)
	}

	if !strings.Contains(got, "1#9 \"g\" 2#1 \"h\" \n") {
		t.Fatalf("second sample malformed in %q", got)
	}
}

func TestOversizedSampleTruncatesAtFrameBoundary(t *testing.T) {
	path := start(t, Config{Interval: time.Second})

	frames := make([]Frame, 1000)
	for i := range frames {
		frames[i] = Frame{Name: strings.Repeat("x", 100)}
	}

	Active().Sample(frames)

	got := contents(t, path)

	lines := strings.Split(got, "\n")
	sample := lines[1]

	if len(sample) > lineMax {
		t.Fatalf("sample line is %d bytes", len(sample))
	}

	if !strings.HasSuffix(sample, "\" ") {
		t.Fatalf("sample truncated mid-frame: %q", sample[len(sample)-20:])
	}
}

func TestPendingClearsOnRead(t *testing.T) {
	start(t, Config{Interval: time.Millisecond})

	p := Active()

	deadline := time.Now().Add(time.Second)
	for !p.pending.Load() {
		if time.Now().After(deadline) {
			t.Fatal("sampler never raised the flag")
		}

		time.Sleep(time.Millisecond)
	}

	if !p.Pending() {
		t.Fatal("raised flag not reported")
	}

	if p.Pending() {
		t.Fatal("flag not cleared by the read")
	}
}

func TestStartReplacesActiveRun(t *testing.T) {
	first := start(t, Config{Interval: time.Second})
	second := start(t, Config{Interval: time.Second})

	if Active() == nil {
		t.Fatal("no active profiler after restart")
	}

	Active().Sample([]Frame{{Name: "only"}})

	Stop()

	if Active() != nil {
		t.Fatal("profiler still active after stop")
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)

	if strings.Contains(string(a), "only") {
		t.Fatal("sample written to the replaced run's file")
	}

	if !strings.Contains(string(b), "only") {
		t.Fatal("sample missing from the active run's file")
	}
}
