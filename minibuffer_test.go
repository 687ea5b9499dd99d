package main

import "testing"

func TestStringBufferEditing(t *testing.T) {
	b := NewStringBuffer("hello world")
	if b.Point() != 11 {
		t.Fatalf("initial point = %d", b.Point())
	}

	b.BackwardWord()
	if b.Point() != 6 {
		t.Fatalf("point after backward-word = %d", b.Point())
	}
	b.InsertString("big ")
	if b.String() != "hello big world" {
		t.Fatalf("after insert: %q", b.String())
	}

	b.BeginningOfBuffer()
	b.ForwardWord()
	if b.Point() != 5 {
		t.Fatalf("point after forward-word = %d", b.Point())
	}
	if killed := b.KillWord(); killed != " big" {
		t.Fatalf("kill-word removed %q", killed)
	}
	if b.String() != "hello world" {
		t.Fatalf("after kill-word: %q", b.String())
	}
}

func TestStringBufferCharOps(t *testing.T) {
	b := NewStringBuffer("ab")
	if b.ForwardChar() {
		t.Error("forward past the end succeeded")
	}
	if !b.BackwardChar() || b.Point() != 1 {
		t.Error("backward-char failed")
	}
	if !b.DeleteForwardChar() || b.String() != "a" {
		t.Errorf("delete-forward: %q", b.String())
	}
	if !b.DeleteBackwardChar() || b.String() != "" {
		t.Errorf("delete-backward: %q", b.String())
	}
	if b.DeleteBackwardChar() {
		t.Error("delete at the beginning succeeded")
	}
}

func TestStringBufferKills(t *testing.T) {
	b := NewStringBuffer("one two three")
	b.BeginningOfBuffer()
	b.ForwardWord()
	if killed := b.KillLine(); killed != " two three" {
		t.Errorf("kill-line = %q", killed)
	}
	if b.String() != "one" {
		t.Errorf("buffer = %q", b.String())
	}
	if killed := b.KillWholeLine(); killed != "one" {
		t.Errorf("kill-whole-line = %q", killed)
	}
	if b.Len() != 0 || b.Point() != 0 {
		t.Errorf("buffer not empty: %q point %d", b.String(), b.Point())
	}
}

func TestStringBufferBackwardKillWord(t *testing.T) {
	b := NewStringBuffer("alpha beta")
	if killed := b.BackwardKillWord(); killed != "beta" {
		t.Errorf("backward-kill-word = %q", killed)
	}
	if b.String() != "alpha " {
		t.Errorf("buffer = %q", b.String())
	}
}

func TestStringBufferUnicode(t *testing.T) {
	b := NewStringBuffer("héllo")
	if b.Len() != 5 {
		t.Errorf("rune length = %d", b.Len())
	}
	b.BackwardWord()
	if b.Point() != 0 {
		t.Errorf("backward-word over multibyte = %d", b.Point())
	}
}

func TestAppendHistory(t *testing.T) {
	h := appendHistory(nil, "a")
	h = appendHistory(h, "b")
	h = appendHistory(h, "b") // consecutive duplicate collapses
	if len(h) != 2 || h[0] != "a" || h[1] != "b" {
		t.Errorf("history = %v", h)
	}
}
