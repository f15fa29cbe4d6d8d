// Released under an MIT license. See LICENSE.

package history

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathPrefersEnvironment(t *testing.T) {
	t.Setenv("R_HISTFILE", "/tmp/rho-test-history")

	if got := Path(); got != "/tmp/rho-test-history" {
		t.Fatalf("path %q", got)
	}
}

func TestPathDefaultsToHomeDirectory(t *testing.T) {
	t.Setenv("R_HISTFILE", "")

	got := Path()
	if filepath.Base(got) != ".rho_history" {
		t.Fatalf("path %q", got)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("R_HISTFILE", filepath.Join(t.TempDir(), "absent"))

	err := Load(func(r io.Reader) (int, error) {
		t.Fatal("read called for a missing file")

		return 0, nil
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Setenv("R_HISTFILE", filepath.Join(t.TempDir(), "history"))

	lines := []string{"x <- 1", "f(x)"}

	err := Save(func(w io.Writer) (int, error) {
		n, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")

		return n, err
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got := []string{}

	err = Load(func(r io.Reader) (int, error) {
		s := bufio.NewScanner(r)
		for s.Scan() {
			got = append(got, s.Text())
		}

		return len(got), s.Err()
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(got) != len(lines) {
		t.Fatalf("lines %v", got)
	}

	for i, want := range lines {
		if got[i] != want {
			t.Fatalf("line %d: %q, want %q", i, got[i], want)
		}
	}
}

func TestSaveReportsUnwritablePath(t *testing.T) {
	t.Setenv("R_HISTFILE", filepath.Join(t.TempDir(), "no", "such", "dir", "h"))

	err := Save(func(w io.Writer) (int, error) {
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	if !os.IsNotExist(err) {
		t.Fatalf("unexpected error: %v", err)
	}
}
