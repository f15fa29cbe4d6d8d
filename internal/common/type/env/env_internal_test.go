// Released under an MIT license. See LICENSE.

package env

import (
	"testing"

	"github.com/rho-lang/rho/internal/common/type/sym"
	"github.com/rho-lang/rho/internal/common/type/vec"
)

func TestFindWalksEnclosingChain(t *testing.T) {
	outer := New(nil)
	inner := New(outer)

	x := sym.New("x")
	outer.Define(x, vec.Int(1))

	found, b := inner.Find(x)
	if found != outer || b == nil {
		t.Fatal("binding in the enclosing frame not found")
	}

	if inner.Local(x) != nil {
		t.Fatal("Local crossed a frame boundary")
	}
}

func TestDefineShadows(t *testing.T) {
	outer := New(nil)
	inner := New(outer)

	x := sym.New("x")
	outer.Define(x, vec.Int(1))
	inner.Define(x, vec.Int(2))

	found, b := inner.Find(x)
	if found != inner {
		t.Fatal("inner definition did not shadow the outer one")
	}

	if vec.To(b.Get()).Integers()[0] != 2 {
		t.Fatal("wrong binding value")
	}
}

// A removed binding must invalidate through any cached reference, so
// removal writes the unbound marker into the binding itself.
func TestRemoveInvalidatesCachedBindings(t *testing.T) {
	e := New(nil)
	x := sym.New("x")

	cached := e.Define(x, vec.Int(1))

	if !e.Remove(x) {
		t.Fatal("remove failed")
	}

	if !cached.IsUnbound() {
		t.Fatal("cached binding still appears bound")
	}

	if _, b := e.Find(x); b != nil {
		t.Fatal("removed binding still found")
	}

	if e.Remove(x) {
		t.Fatal("second remove reported success")
	}
}

func TestNamesPreserveDefinitionOrder(t *testing.T) {
	e := New(nil)

	for _, n := range []string{"c", "a", "b"} {
		e.Define(sym.New(n), vec.Int(1))
	}

	names := e.Names()
	if len(names) != 3 || names[0] != "c" || names[1] != "a" || names[2] != "b" {
		t.Fatalf("names = %v", names)
	}
}

func TestLockedEnvironmentRejectsNewBindings(t *testing.T) {
	e := New(nil)
	x := sym.New("x")

	e.Define(x, vec.Int(1))
	e.Lock()

	// Existing bindings may still be written.
	e.Define(x, vec.Int(2))

	defer func() {
		if recover() == nil {
			t.Fatal("new binding in a locked environment did not panic")
		}
	}()

	e.Define(sym.New("y"), vec.Int(3))
}

func TestNoSpecialsHint(t *testing.T) {
	e := New(nil)
	e.Define(sym.New("x"), vec.Int(1))

	if !e.NoSpecials() {
		t.Fatal("plain names flipped the specials hint")
	}

	e.Define(sym.New("+"), vec.Int(1))

	if e.NoSpecials() {
		t.Fatal("binding + did not flip the specials hint")
	}
}
