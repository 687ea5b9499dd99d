package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/xgb/xproto"
)

// Input carries the parts of a key or button event a bound action needs.
type Input struct {
	Time         xproto.Timestamp
	RootX, RootY int16
	State        uint16
	Child        xproto.Window
	Press        bool
}

// Action is a callback bound to a chord.
type Action func(in Input) error

// Binding is either a terminal action or a nested prefix map.
type Binding struct {
	Do     Action
	Prefix *BindingMap
	Name   string
}

type keyChord struct {
	mods uint16
	sym  xproto.Keysym
}

type buttonChord struct {
	mods   uint16
	button xproto.Button
}

// BindingMap maps normalized chords to bindings.
type BindingMap struct {
	keys    map[keyChord]*Binding
	buttons map[buttonChord]*Binding
}

func NewBindingMap() *BindingMap {
	return &BindingMap{
		keys:    make(map[keyChord]*Binding),
		buttons: make(map[buttonChord]*Binding),
	}
}

func (m *BindingMap) BindKey(mods uint16, sym xproto.Keysym, b *Binding) {
	m.keys[keyChord{mods, sym}] = b
}

func (m *BindingMap) BindButton(mods uint16, button xproto.Button, b *Binding) {
	m.buttons[buttonChord{mods, button}] = b
}

// MatchKind is the outcome of a binding lookup.
type MatchKind int

const (
	NoMatch MatchKind = iota
	PrefixMatch
	TerminalMatch
)

// prefixTimeout aborts a prefix chain that sees no input; checked
// lazily against the next event since the loop has no timers.
const prefixTimeout = 5 * time.Second

// Bindings matches events against a binding map, tracking an active
// prefix chain. While a prefix is active the manager grabs the
// keyboard so the rest of the chain routes here.
type Bindings struct {
	keymap *Keymap
	root   *BindingMap

	active      *BindingMap // nil when no prefix chain is active
	activeSince time.Time
}

func NewBindings(keymap *Keymap, root *BindingMap) *Bindings {
	return &Bindings{keymap: keymap, root: root}
}

func (b *Bindings) InPrefix() bool { return b.active != nil }

// AbortPrefix restores the main binding state.
func (b *Bindings) AbortPrefix() { b.active = nil }

func (b *Bindings) current() *BindingMap {
	if b.active != nil {
		if time.Since(b.activeSince) > prefixTimeout {
			b.active = nil
		} else {
			return b.active
		}
	}
	return b.root
}

// PressKey resolves a key press. A terminal match returns the binding;
// a prefix match activates the nested map. Non-matching input while a
// prefix is active aborts the chain silently.
func (b *Bindings) PressKey(code xproto.Keycode, state uint16) (*Binding, MatchKind) {
	sym := b.keymap.LookupKeysym(code, state)
	if isModifierKeysym(sym) {
		return nil, NoMatch
	}
	m := b.current()
	inPrefix := b.active != nil

	bind := m.lookupKey(b.normalize(state), sym)
	if bind == nil {
		if inPrefix {
			b.active = nil
		}
		return nil, NoMatch
	}
	if bind.Prefix != nil {
		b.active = bind.Prefix
		b.activeSince = time.Now()
		return bind, PrefixMatch
	}
	b.active = nil
	return bind, TerminalMatch
}

// PressButton resolves a button press against the main map; prefix
// chains are keyboard-only.
func (b *Bindings) PressButton(button xproto.Button, state uint16) (*Binding, MatchKind) {
	bind := b.root.buttons[buttonChord{b.normalize(state), button}]
	if bind == nil {
		return nil, NoMatch
	}
	return bind, TerminalMatch
}

// normalize masks the lock modifiers out of an event state.
func (b *Bindings) normalize(state uint16) uint16 {
	return state &^ b.keymap.IgnoredMods() & 0xff
}

func (m *BindingMap) lookupKey(mods uint16, sym xproto.Keysym) *Binding {
	if bind, ok := m.keys[keyChord{mods, sym}]; ok {
		return bind
	}
	// A binding on an uppercase or shifted symbol implies Shift.
	if mods&xproto.ModMaskShift != 0 {
		if bind, ok := m.keys[keyChord{mods &^ xproto.ModMaskShift, sym}]; ok {
			return bind
		}
	}
	// Keypad aliases resolve only when the raw symbol is unbound.
	if alias, ok := keypadAliases[sym]; ok {
		return m.lookupKey(mods, alias)
	}
	return nil
}

var modifierNames = map[string]uint16{
	"shift":   xproto.ModMaskShift,
	"control": xproto.ModMaskControl,
	"ctrl":    xproto.ModMaskControl,
	"meta":    xproto.ModMask1,
	"alt":     xproto.ModMask1,
	"mod1":    xproto.ModMask1,
	"mod2":    xproto.ModMask2,
	"mod3":    xproto.ModMask3,
	"mod4":    xproto.ModMask4,
	"super":   xproto.ModMask4,
	"mod5":    xproto.ModMask5,
}

// ParseKeyChord parses a spec like "control+meta+Return" or "super+q".
func ParseKeyChord(spec string) (uint16, xproto.Keysym, error) {
	mods, last, err := parseChord(spec)
	if err != nil {
		return 0, 0, err
	}
	sym, ok := stringToKeysym(last)
	if !ok {
		return 0, 0, fmt.Errorf("unknown keysym %q in %q", last, spec)
	}
	return mods, sym, nil
}

// ParseButtonChord parses a spec like "meta+button1".
func ParseButtonChord(spec string) (uint16, xproto.Button, error) {
	mods, last, err := parseChord(spec)
	if err != nil {
		return 0, 0, err
	}
	if !strings.HasPrefix(last, "button") {
		return 0, 0, fmt.Errorf("expected buttonN in %q", spec)
	}
	n, err := strconv.Atoi(last[len("button"):])
	if err != nil || n < 1 || n > 5 {
		return 0, 0, fmt.Errorf("bad button number in %q", spec)
	}
	return mods, xproto.Button(n), nil
}

func parseChord(spec string) (uint16, string, error) {
	parts := strings.Split(spec, "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return 0, "", fmt.Errorf("empty chord %q", spec)
	}
	var mods uint16
	for _, part := range parts[:len(parts)-1] {
		mask, ok := modifierNames[strings.ToLower(part)]
		if !ok {
			return 0, "", fmt.Errorf("unknown modifier %q in %q", part, spec)
		}
		mods |= mask
	}
	return mods, parts[len(parts)-1], nil
}
