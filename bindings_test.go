package main

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

// testKeymap builds a keymap by hand: keycode 36 is Return, 23 is
// Tab, 38/39 are a/s, 90 is KP_0, 79 is KP_Home. Mod2 acts as NumLock.
func testKeymap() *Keymap {
	km := &Keymap{symToCodes: make(map[xproto.Keysym][]xproto.Keycode)}
	bind := func(code xproto.Keycode, plain, shifted xproto.Keysym) {
		km.codeToSyms[code] = []xproto.Keysym{plain, shifted}
		km.symToCodes[plain] = append(km.symToCodes[plain], code)
		if shifted != 0 && shifted != plain {
			km.symToCodes[shifted] = append(km.symToCodes[shifted], code)
		}
	}
	bind(36, xkReturn, 0)
	bind(23, xkTab, xkTab)
	bind(38, 'a', 'A')
	bind(39, 's', 'S')
	bind(90, xkKP0, xkKP0)
	bind(79, xkKPHome, xkKPHome)
	km.numLockMask = xproto.ModMask2
	return km
}

func TestLookupKeysymShift(t *testing.T) {
	km := testKeymap()
	if sym := km.LookupKeysym(38, 0); sym != 'a' {
		t.Errorf("plain a = %c", rune(sym))
	}
	if sym := km.LookupKeysym(38, xproto.ModMaskShift); sym != 'A' {
		t.Errorf("shifted a = %c", rune(sym))
	}
	if sym := km.LookupKeysym(38, xproto.ModMaskLock); sym != 'A' {
		t.Errorf("capslocked a = %c", rune(sym))
	}
	if sym := km.LookupKeysym(38, xproto.ModMaskShift|xproto.ModMaskLock); sym != 'A' {
		t.Errorf("shift+caps a = %c", rune(sym))
	}
}

func TestBindingNormalizesLockMods(t *testing.T) {
	km := testKeymap()
	m := NewBindingMap()
	fired := false
	m.BindKey(xproto.ModMaskControl, xkReturn, &Binding{Do: func(Input) error {
		fired = true
		return nil
	}})
	b := NewBindings(km, m)

	// NumLock (Mod2) and CapsLock must not break the match.
	state := uint16(xproto.ModMaskControl | xproto.ModMask2 | xproto.ModMaskLock)
	bind, kind := b.PressKey(36, state)
	if kind != TerminalMatch || bind == nil {
		t.Fatalf("press with lock mods: kind = %v", kind)
	}
	bind.Do(Input{})
	if !fired {
		t.Error("binding did not fire")
	}
}

func TestBindingKeypadAlias(t *testing.T) {
	km := testKeymap()
	m := NewBindingMap()
	m.BindKey(0, '0', &Binding{Name: "zero", Do: func(Input) error { return nil }})
	m.BindKey(0, xkKPHome, &Binding{Name: "kp-home", Do: func(Input) error { return nil }})
	m.BindKey(0, xkHome, &Binding{Name: "home", Do: func(Input) error { return nil }})
	b := NewBindings(km, m)

	// KP_0 has no direct binding, so it aliases to the digit.
	bind, kind := b.PressKey(90, 0)
	if kind != TerminalMatch || bind.Name != "zero" {
		t.Fatalf("KP_0 resolved to %v/%v, want zero", kind, bind)
	}
	// KP_Home is bound directly; the alias must not shadow it.
	bind, kind = b.PressKey(79, 0)
	if kind != TerminalMatch || bind.Name != "kp-home" {
		t.Fatalf("KP_Home resolved to %v, want kp-home", bind)
	}
}

func TestBindingShiftImplied(t *testing.T) {
	// A binding on the shifted symbol matches without naming shift.
	km := testKeymap()
	m := NewBindingMap()
	m.BindKey(0, 'A', &Binding{Name: "upper", Do: func(Input) error { return nil }})
	b := NewBindings(km, m)

	bind, kind := b.PressKey(38, xproto.ModMaskShift)
	if kind != TerminalMatch || bind.Name != "upper" {
		t.Fatalf("shifted press resolved to %v", bind)
	}
}

func TestPrefixChain(t *testing.T) {
	km := testKeymap()
	inner := NewBindingMap()
	inner.BindKey(0, xkReturn, &Binding{Name: "fullscreen", Do: func(Input) error { return nil }})
	m := NewBindingMap()
	m.BindKey(xproto.ModMaskControl, 'a', &Binding{Prefix: inner})
	b := NewBindings(km, m)

	_, kind := b.PressKey(38, xproto.ModMaskControl)
	if kind != PrefixMatch || !b.InPrefix() {
		t.Fatalf("prefix chord: kind = %v, inPrefix = %v", kind, b.InPrefix())
	}
	bind, kind := b.PressKey(36, 0)
	if kind != TerminalMatch || bind.Name != "fullscreen" {
		t.Fatalf("chain completion resolved to %v/%v", kind, bind)
	}
	if b.InPrefix() {
		t.Error("prefix still active after terminal")
	}
}

func TestPrefixAbortsOnMismatch(t *testing.T) {
	km := testKeymap()
	inner := NewBindingMap()
	inner.BindKey(0, xkReturn, &Binding{Name: "x", Do: func(Input) error { return nil }})
	m := NewBindingMap()
	m.BindKey(xproto.ModMaskControl, 'a', &Binding{Prefix: inner})
	m.BindKey(0, 's', &Binding{Name: "top-s", Do: func(Input) error { return nil }})
	b := NewBindings(km, m)

	b.PressKey(38, xproto.ModMaskControl)
	// 's' is not in the chain: the prefix aborts silently and the
	// main map is NOT consulted for the aborting press.
	bind, kind := b.PressKey(39, 0)
	if kind != NoMatch || bind != nil {
		t.Fatalf("mismatching press = %v/%v, want no match", kind, bind)
	}
	if b.InPrefix() {
		t.Error("prefix survived a mismatch")
	}
	// The main map works again afterwards.
	bind, kind = b.PressKey(39, 0)
	if kind != TerminalMatch || bind.Name != "top-s" {
		t.Fatalf("post-abort press = %v/%v", kind, bind)
	}
}

func TestParseChords(t *testing.T) {
	mods, sym, err := ParseKeyChord("control+meta+Return")
	if err != nil || mods != xproto.ModMaskControl|xproto.ModMask1 || sym != xkReturn {
		t.Errorf("ParseKeyChord = %v %v %v", mods, sym, err)
	}
	if _, _, err := ParseKeyChord("control+bogus+x"); err == nil {
		t.Error("unknown modifier accepted")
	}
	if _, _, err := ParseKeyChord("control+NoSuchKey"); err == nil {
		t.Error("unknown keysym accepted")
	}

	mods, button, err := ParseButtonChord("shift+meta+button3")
	if err != nil || mods != xproto.ModMaskShift|xproto.ModMask1 || button != 3 {
		t.Errorf("ParseButtonChord = %v %v %v", mods, button, err)
	}
	if _, _, err := ParseButtonChord("meta+button9"); err == nil {
		t.Error("bad button accepted")
	}
}

func TestLockVariants(t *testing.T) {
	km := testKeymap()
	variants := km.lockVariants()
	want := map[uint16]bool{
		0: true,
		xproto.ModMaskLock:                    true,
		xproto.ModMask2:                       true,
		xproto.ModMaskLock | xproto.ModMask2:  true,
	}
	if len(variants) != len(want) {
		t.Fatalf("variants = %v", variants)
	}
	for _, v := range variants {
		if !want[v] {
			t.Errorf("unexpected variant %x", v)
		}
	}
}
