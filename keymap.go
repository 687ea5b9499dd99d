package main

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const (
	keyLo = 8
	keyHi = 255
)

// Keymap mirrors the server's keyboard and modifier maps and knows
// which modifier bits currently act as NumLock and ScrollLock.
type Keymap struct {
	codeToSyms [256][]xproto.Keysym
	symToCodes map[xproto.Keysym][]xproto.Keycode

	numLockMask    uint16
	scrollLockMask uint16
}

// NewKeymap fetches the keyboard and modifier mappings from the server.
func NewKeymap(xc *xgb.Conn) (*Keymap, error) {
	km := &Keymap{symToCodes: make(map[xproto.Keysym][]xproto.Keycode)}
	if err := km.Refresh(xc); err != nil {
		return nil, err
	}
	return km, nil
}

// Refresh re-reads both maps, e.g. after a MappingNotify.
func (km *Keymap) Refresh(xc *xgb.Conn) error {
	kmReply, err := xproto.GetKeyboardMapping(xc, keyLo, keyHi-keyLo+1).Reply()
	if err != nil {
		return fmt.Errorf("get keyboard mapping: %w", err)
	}
	n := int(kmReply.KeysymsPerKeycode)
	if n < 2 {
		return fmt.Errorf("too few keysyms per keycode: %d", n)
	}
	km.symToCodes = make(map[xproto.Keysym][]xproto.Keycode)
	for code := keyLo; code <= keyHi; code++ {
		start := (code - keyLo) * n
		syms := kmReply.Keysyms[start : start+n]
		km.codeToSyms[code] = syms
		for _, sym := range syms {
			if sym == 0 {
				continue
			}
			km.symToCodes[sym] = append(km.symToCodes[sym], xproto.Keycode(code))
		}
	}

	mmReply, err := xproto.GetModifierMapping(xc).Reply()
	if err != nil {
		return fmt.Errorf("get modifier mapping: %w", err)
	}
	km.numLockMask = km.scryModifier(mmReply, xkNumLock)
	km.scrollLockMask = km.scryModifier(mmReply, xkScrollLock)
	return nil
}

// scryModifier finds the modifier bit a keysym is currently bound to.
func (km *Keymap) scryModifier(mm *xproto.GetModifierMappingReply, sym xproto.Keysym) uint16 {
	per := int(mm.KeycodesPerModifier)
	for index := 0; index < 8; index++ {
		for _, code := range mm.Keycodes[index*per : (index+1)*per] {
			for _, s := range km.codeToSyms[code] {
				if s == sym {
					return 1 << uint(index)
				}
			}
		}
	}
	return 0
}

// IgnoredMods is the mask of lock modifiers stripped from event state
// before binding lookup.
func (km *Keymap) IgnoredMods() uint16 {
	return xproto.ModMaskLock | km.numLockMask | km.scrollLockMask
}

// LookupKeysym resolves a key event to its effective keysym. Only the
// first two columns (plain and shifted) are considered; that covers
// every binding the manager establishes.
func (km *Keymap) LookupKeysym(code xproto.Keycode, state uint16) xproto.Keysym {
	syms := km.codeToSyms[code]
	if len(syms) == 0 {
		return 0
	}
	shift := state&xproto.ModMaskShift != 0
	caps := state&xproto.ModMaskLock != 0
	plain := syms[0]
	shifted := plain
	if len(syms) > 1 && syms[1] != 0 {
		shifted = syms[1]
	} else {
		shifted = upperKeysym(plain)
	}
	if shift != caps {
		return shifted
	}
	if caps {
		return upperKeysym(plain)
	}
	return plain
}

// Keycodes returns every keycode generating the given keysym in either
// its plain or shifted column.
func (km *Keymap) Keycodes(sym xproto.Keysym) []xproto.Keycode {
	codes := km.symToCodes[sym]
	if lower := lowerKeysym(sym); lower != sym {
		codes = append(append([]xproto.Keycode(nil), codes...), km.symToCodes[lower]...)
	}
	return codes
}

// lockVariants is the set of lock-bit combinations a passive grab must
// cover so that bindings fire regardless of Caps/Num/Scroll Lock.
func (km *Keymap) lockVariants() []uint16 {
	masks := []uint16{0}
	for _, lock := range []uint16{xproto.ModMaskLock, km.numLockMask, km.scrollLockMask} {
		if lock == 0 {
			continue
		}
		for _, m := range masks {
			masks = append(masks, m|lock)
		}
	}
	return masks
}
