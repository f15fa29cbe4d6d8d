// Released under an MIT license. See LICENSE.

package vec

import (
	"testing"
)

func TestSeq(t *testing.T) {
	tests := []struct {
		from, to int32
		want     []int32
	}{
		{1, 5, []int32{1, 2, 3, 4, 5}},
		{3, 3, []int32{3}},
		{5, 1, []int32{5, 4, 3, 2, 1}},
		{-2, 2, []int32{-2, -1, 0, 1, 2}},
	}

	for _, test := range tests {
		v := Seq(test.from, test.to)

		if v.Len() != len(test.want) {
			t.Fatalf("Seq(%d, %d) has length %d", test.from, test.to, v.Len())
		}

		for i, n := range v.Integers() {
			if n != test.want[i] {
				t.Fatalf("Seq(%d, %d)[%d] = %d, want %d",
					test.from, test.to, i, n, test.want[i])
			}
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	v := Seq(1, 3)
	v.SetAttr("names", Str("a"))

	w := v.Copy()

	w.Integers()[0] = 99
	w.SetAttr("names", Str("b"))

	if v.Integers()[0] != 1 {
		t.Fatal("writing the copy changed the original")
	}

	if To(v.Attr("names")).Strings()[0] != "a" {
		t.Fatal("attribute write on the copy changed the original")
	}

	if v.Equal(w) {
		t.Fatal("diverged copy still compares equal")
	}
}

func TestEqual(t *testing.T) {
	if !Seq(1, 3).Equal(Seq(1, 3)) {
		t.Fatal("equal vectors compare unequal")
	}

	if Seq(1, 3).Equal(Seq(1, 4)) {
		t.Fatal("different lengths compare equal")
	}

	if Int(1).Equal(Real(1)) {
		t.Fatal("different kinds compare equal")
	}

	// Missing values compare equal to themselves.
	if !NA().Equal(NA()) {
		t.Fatal("NA != NA under Equal")
	}

	if !Real(NAReal).Equal(Real(NAReal)) {
		t.Fatal("missing double != itself under Equal")
	}

	a := Int(1)
	a.SetAttr("class", Str("c"))

	if a.Equal(Int(1)) {
		t.Fatal("attribute difference ignored by Equal")
	}
}

func TestScalarLiteral(t *testing.T) {
	tests := []struct {
		v    *T
		want string
	}{
		{Int(3), "3L"},
		{Real(2.5), "2.5"},
		{Bool(true), "TRUE"},
		{Str("hi"), "\"hi\""},
		{NA(), "NA"},
	}

	for _, test := range tests {
		if got := test.v.Literal(); got != test.want {
			t.Fatalf("Literal() = %q, want %q", got, test.want)
		}
	}
}
