// Released under an MIT license. See LICENSE.

package options

import (
	"testing"
)

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func TestLegacyRewritesSlave(t *testing.T) {
	got := legacy([]string{"--slave", "-f", "script.rho"})

	if !equal(got, []string{"--no-echo", "-f", "script.rho"}) {
		t.Fatalf("legacy = %v", got)
	}
}

func TestLegacyDropsDeprecatedForms(t *testing.T) {
	got := legacy([]string{"-nosave", "--verbose", "-q"})

	if !equal(got, []string{"--verbose", "-q"}) {
		t.Fatalf("legacy = %v", got)
	}
}

func TestLegacyStopsAtArgs(t *testing.T) {
	got := legacy([]string{"--quiet", "--args", "-whatever", "--slave"})

	if !equal(got, []string{"--quiet", "--args", "-whatever", "--slave"}) {
		t.Fatalf("legacy = %v", got)
	}
}

func TestEnvSize(t *testing.T) {
	t.Setenv("R_VSIZE", "16M")

	if got := envSize("R_VSIZE"); got != 16*1024*1024 {
		t.Fatalf("envSize = %d", got)
	}

	t.Setenv("R_VSIZE", "junk")

	if got := envSize("R_VSIZE"); got != 0 {
		t.Fatalf("malformed size parsed to %d", got)
	}

	if got := envSize("R_UNSET_SIZE_VAR"); got != 0 {
		t.Fatalf("unset variable parsed to %d", got)
	}
}

func TestDisableBytecode(t *testing.T) {
	t.Setenv("R_DISABLE_BYTECODE", "")

	if DisableBytecode() {
		t.Fatal("unset variable disabled the bytecode engine")
	}

	t.Setenv("R_DISABLE_BYTECODE", "1")

	if !DisableBytecode() {
		t.Fatal("set variable did not disable the bytecode engine")
	}
}
