package main

import (
	"testing"

	"github.com/BurntSushi/xgb"
)

func packU32(values ...uint32) []byte {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		xgb.Put32(data[i*4:], v)
	}
	return data
}

func TestDecodeSizeHints(t *testing.T) {
	raw := packU32(
		HintPMinSize|HintPResizeInc|HintPBaseSize, // flags
		0, 0, 0, 0, // obsolete x, y, width, height
		80, 25, // min
		0, 0, // max
		6, 13, // inc
		0, 0, 0, 0, // aspect
		4, 4, // base
		1, // gravity
	)
	h := decodeSizeHints(raw)
	if h.MinWidth != 80 || h.MinHeight != 25 {
		t.Errorf("min = %d, %d", h.MinWidth, h.MinHeight)
	}
	if h.WidthInc != 6 || h.HeightInc != 13 {
		t.Errorf("inc = %d, %d", h.WidthInc, h.HeightInc)
	}
	if h.BaseWidth != 4 || h.BaseHeight != 4 {
		t.Errorf("base = %d, %d", h.BaseWidth, h.BaseHeight)
	}

	// A short (pre-ICCCM) property keeps the defaults for the tail.
	short := decodeSizeHints(raw[:4*9])
	if short.Flags != h.Flags || short.MinWidth != 80 || short.BaseWidth != 0 {
		t.Errorf("short decode: %+v", short)
	}

	// Absent property constrains nothing.
	none := decodeSizeHints(nil)
	if w, hh := none.Constrain(123, 77); w != 123 || hh != 77 {
		t.Errorf("empty hints constrained to %d, %d", w, hh)
	}
}

func TestDecodeWMHints(t *testing.T) {
	// Input hint explicitly false.
	h := decodeWMHints(packU32(HintInput, 0, 0, 0, 0, 0, 0, 0, 0))
	if h.Input {
		t.Error("explicit input=0 decoded as true")
	}
	// Absent property defaults to accepting input.
	h = decodeWMHints(nil)
	if !h.Input {
		t.Error("missing WM_HINTS must default input to true")
	}
	// Initial state field.
	h = decodeWMHints(packU32(HintState, 1, StateIconic))
	if h.InitialState != StateIconic {
		t.Errorf("initial state = %d", h.InitialState)
	}
}

func TestParseColor(t *testing.T) {
	for s, want := range map[string]uint32{
		"#ffffff": 0xffffff,
		"#1f3f1f": 0x1f3f1f,
		"0x000000": 0,
	} {
		got, err := ParseColor(s)
		if err != nil || got != want {
			t.Errorf("ParseColor(%q) = %x, %v", s, got, err)
		}
	}
	if _, err := ParseColor("red"); err == nil {
		t.Error("ParseColor accepted a name")
	}
}
