package main

// These constants come from /usr/include/X11/keysymdef.h.

import (
	xp "github.com/BurntSushi/xgb/xproto"
)

const (
	xkVoidSymbol = 0xffffff

	xkBackspace  = 0xff08
	xkTab        = 0xff09
	xkReturn     = 0xff0d
	xkPause      = 0xff13
	xkScrollLock = 0xff14
	xkEscape     = 0xff1b
	xkHome       = 0xff50
	xkLeft       = 0xff51
	xkUp         = 0xff52
	xkRight      = 0xff53
	xkDown       = 0xff54
	xkPageUp     = 0xff55
	xkPageDown   = 0xff56
	xkEnd        = 0xff57
	xkInsert     = 0xff63
	xkNumLock    = 0xff7f
	xkDelete     = 0xffff

	xkKPEnter    = 0xff8d
	xkKPHome     = 0xff95
	xkKPLeft     = 0xff96
	xkKPUp       = 0xff97
	xkKPRight    = 0xff98
	xkKPDown     = 0xff99
	xkKPPageUp   = 0xff9a
	xkKPPageDown = 0xff9b
	xkKPEnd      = 0xff9c
	xkKPInsert   = 0xff9e
	xkKPDelete   = 0xff9f
	xkKP0        = 0xffb0
	xkKP9        = 0xffb9

	xkF1  = 0xffbe
	xkF12 = 0xffc9

	xkShiftL    = 0xffe1
	xkShiftR    = 0xffe2
	xkControlL  = 0xffe3
	xkControlR  = 0xffe4
	xkCapsLock  = 0xffe5
	xkShiftLock = 0xffe6
	xkMetaL     = 0xffe7
	xkMetaR     = 0xffe8
	xkAltL      = 0xffe9
	xkAltR      = 0xffea
	xkSuperL    = 0xffeb
	xkSuperR    = 0xffec
	xkHyperL    = 0xffed
	xkHyperR    = 0xffee
)

// keypadAliases maps keypad motion and digit keysyms to the plain
// equivalents used when a binding is not found for the raw symbol.
var keypadAliases = map[xp.Keysym]xp.Keysym{
	xkKPEnter:    xkReturn,
	xkKPHome:     xkHome,
	xkKPLeft:     xkLeft,
	xkKPUp:       xkUp,
	xkKPRight:    xkRight,
	xkKPDown:     xkDown,
	xkKPPageUp:   xkPageUp,
	xkKPPageDown: xkPageDown,
	xkKPEnd:      xkEnd,
	xkKPInsert:   xkInsert,
	xkKPDelete:   xkDelete,
	xkKP0 + 0:    '0',
	xkKP0 + 1:    '1',
	xkKP0 + 2:    '2',
	xkKP0 + 3:    '3',
	xkKP0 + 4:    '4',
	xkKP0 + 5:    '5',
	xkKP0 + 6:    '6',
	xkKP0 + 7:    '7',
	xkKP0 + 8:    '8',
	xkKP0 + 9:    '9',
}

var keysymNames = map[string]xp.Keysym{
	"BackSpace": xkBackspace,
	"Tab":       xkTab,
	"Return":    xkReturn,
	"Pause":     xkPause,
	"Escape":    xkEscape,
	"Home":      xkHome,
	"Left":      xkLeft,
	"Up":        xkUp,
	"Right":     xkRight,
	"Down":      xkDown,
	"Prior":     xkPageUp,
	"Next":      xkPageDown,
	"End":       xkEnd,
	"Insert":    xkInsert,
	"Delete":    xkDelete,
	"space":     ' ',
	"F1":        xkF1,
	"F2":        xkF1 + 1,
	"F3":        xkF1 + 2,
	"F4":        xkF1 + 3,
	"F5":        xkF1 + 4,
	"F6":        xkF1 + 5,
	"F7":        xkF1 + 6,
	"F8":        xkF1 + 7,
	"F9":        xkF1 + 8,
	"F10":       xkF1 + 9,
	"F11":       xkF1 + 10,
	"F12":       xkF1 + 11,
}

// stringToKeysym resolves a keysym designator from a binding spec: a
// named function key or a single Latin-1 character.
func stringToKeysym(s string) (xp.Keysym, bool) {
	if sym, ok := keysymNames[s]; ok {
		return sym, true
	}
	r := []rune(s)
	if len(r) == 1 && r[0] >= 0x20 && r[0] <= 0xff {
		return xp.Keysym(r[0]), true
	}
	return 0, false
}

// keysymToRune reports the self-inserting character for a keysym, if any.
func keysymToRune(sym xp.Keysym) (rune, bool) {
	if sym >= 0x20 && sym <= 0x7e || sym >= 0xa0 && sym <= 0xff {
		return rune(sym), true
	}
	return 0, false
}

func isModifierKeysym(sym xp.Keysym) bool {
	return sym >= xkShiftL && sym <= xkHyperR
}

func lowerKeysym(sym xp.Keysym) xp.Keysym {
	if sym >= 'A' && sym <= 'Z' {
		return sym + 0x20
	}
	return sym
}

func upperKeysym(sym xp.Keysym) xp.Keysym {
	if sym >= 'a' && sym <= 'z' {
		return sym - 0x20
	}
	return sym
}
