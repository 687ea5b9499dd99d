package main

import "testing"

func TestFocusListOrdering(t *testing.T) {
	a, b, c := &Client{}, &Client{}, &Client{}
	fl := &FocusList{}
	fl.Append(a)
	fl.Append(b)
	fl.Append(c)

	if fl.Head() != a {
		t.Fatal("head is not the first appended client")
	}
	fl.MoveToFront(c)
	if fl.Head() != c {
		t.Fatal("MoveToFront did not move the client to the head")
	}
	if n := len(fl.Clients()); n != 3 {
		t.Fatalf("list length = %d after MoveToFront", n)
	}

	// Appending an existing client must not duplicate it.
	fl.Append(c)
	if n := len(fl.Clients()); n != 3 {
		t.Fatalf("list length = %d after re-append", n)
	}

	fl.Remove(b)
	if n := len(fl.Clients()); n != 2 {
		t.Fatalf("list length = %d after remove", n)
	}
	fl.Remove(b) // removing twice is fine
	if n := len(fl.Clients()); n != 2 {
		t.Fatalf("list length = %d after double remove", n)
	}
}

func TestFocusListRotate(t *testing.T) {
	a, b, c := &Client{}, &Client{}, &Client{}
	fl := &FocusList{}
	fl.Append(a)
	fl.Append(b)
	fl.Append(c)

	if got := fl.Rotate(a, 1); got != b {
		t.Error("Rotate(+1) from a is not b")
	}
	if got := fl.Rotate(a, -1); got != c {
		t.Error("Rotate(-1) from a is not c")
	}
	if got := fl.Rotate(c, 1); got != a {
		t.Error("Rotate(+1) wraps to the head")
	}
	if got := fl.Rotate(a, 3); got != a {
		t.Error("Rotate by the list length is the identity")
	}
}

func TestFocusListEmpty(t *testing.T) {
	fl := &FocusList{}
	if fl.Head() != nil {
		t.Error("empty head is not nil")
	}
	if fl.Rotate(nil, 1) != nil {
		t.Error("rotate on empty list is not nil")
	}
	fl.Remove(&Client{}) // must not panic
}
