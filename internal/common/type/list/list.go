// Released under an MIT license. See LICENSE.

// Package list provides common pairlist operations. A list is not a
// true type. Lists are more of a type by convention. They are composed
// of pair cells.
package list

import (
	"github.com/rho-lang/rho/internal/common/interface/cell"
	"github.com/rho-lang/rho/internal/common/type/pair"
	"github.com/rho-lang/rho/internal/common/type/sym"
)

// Append appends each element in elements to list.
// If list is Null, a new list is created.
// The list must be non-circular.
func Append(start cell.I, elements ...cell.I) cell.I {
	if start == nil {
		panic("cannot append to non-existent list")
	}

	if len(elements) == 0 {
		return start
	}

	if start == pair.Null {
		start = pair.Cons(elements[0], pair.Null)
		elements = elements[1:]
	}

	var end cell.I
	for list := start; list != pair.Null; list = pair.Cdr(list) {
		end = list
	}

	for _, e := range elements {
		p := pair.Cons(e, pair.Null)
		pair.SetCdr(end, p)
		end = p
	}

	return start
}

// Join extends the first non-nil, non-Null list in lists
// with every element from every list remaining in lists.
func Join(lists ...cell.I) cell.I {
	var end, start cell.I

	for len(lists) != 0 {
		start = lists[0]
		lists = lists[1:]

		if start != nil && start != pair.Null {
			break
		}
	}

	if start == nil {
		panic("join must be passed at least one list")
	}

	if start == pair.Null {
		return start
	}

	for list := start; list != pair.Null; list = pair.Cdr(list) {
		end = list
	}

	for _, list := range lists {
		if list == nil {
			continue
		}

		for list != pair.Null {
			p := pair.ConsTagged(pair.Tag(list), pair.Car(list), pair.Null)
			pair.SetCdr(end, p)
			end = p

			list = pair.Cdr(list)
		}
	}

	return start
}

// Length returns the number of elements in list.
func Length(list cell.I) int {
	length := 0

	for list != nil && list != pair.Null {
		length++

		list = pair.Cdr(list)
	}

	return length
}

// New creates a new list composed of all of the elements in elements.
func New(elements ...cell.I) cell.I {
	if len(elements) == 0 {
		return pair.Null
	}

	start := pair.Cons(elements[0], pair.Null)
	end := start

	for _, e := range elements[1:] {
		p := pair.Cons(e, pair.Null)
		pair.SetCdr(end, p)
		end = p
	}

	return start
}

// Call creates a new language list with head and the elements in args.
func Call(head cell.I, args ...cell.I) cell.I {
	rest := New(args...)

	return pair.Lang1(head, rest)
}

// Reverse reverses list, preserving tags.
func Reverse(list cell.I) cell.I {
	reversed := pair.Null

	for list != nil && list != pair.Null {
		reversed = pair.ConsTagged(pair.Tag(list), pair.Car(list), reversed)

		list = pair.Cdr(list)
	}

	return reversed
}

// Tag returns the tag of the pair c as a sym, or nil if it is untagged.
func Tag(c cell.I) *sym.T {
	t := pair.Tag(c)
	if t == nil {
		return nil
	}

	return sym.To(t)
}

// Tail returns the sublist of list starting at element index.
func Tail(list cell.I, index int) cell.I {
	for index > 0 && list != pair.Null {
		list = pair.Cdr(list)

		index--
	}

	return list
}
