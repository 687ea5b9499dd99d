package main

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Glyph indices from cursorfont.h.
const (
	xcBottomLeftCorner  = 12
	xcBottomRightCorner = 14
	xcBottomSide        = 16
	xcFleur             = 52
	xcLeftPtr           = 68
	xcLeftSide          = 70
	xcRightSide         = 96
	xcTopLeftCorner     = 134
	xcTopRightCorner    = 136
	xcTopSide           = 138
)

// Cursors holds the glyph cursors used for the root pointer and the
// move/resize handles, loaded once from the "cursor" font.
type Cursors struct {
	byGlyph map[uint16]xproto.Cursor
}

func NewCursors(xc *xgb.Conn) (*Cursors, error) {
	font, err := xproto.NewFontId(xc)
	if err != nil {
		return nil, err
	}
	if err := xproto.OpenFontChecked(xc, font, uint16(len("cursor")), "cursor").Check(); err != nil {
		return nil, err
	}
	defer xproto.CloseFont(xc, font)

	cs := &Cursors{byGlyph: make(map[uint16]xproto.Cursor)}
	for _, glyph := range []uint16{
		xcLeftPtr, xcFleur,
		xcTopSide, xcBottomSide, xcLeftSide, xcRightSide,
		xcTopLeftCorner, xcTopRightCorner,
		xcBottomLeftCorner, xcBottomRightCorner,
	} {
		cursor, err := xproto.NewCursorId(xc)
		if err != nil {
			return nil, err
		}
		if err := xproto.CreateGlyphCursorChecked(
			xc, cursor, font, font, glyph, glyph+1,
			0, 0, 0, 0xffff, 0xffff, 0xffff).Check(); err != nil {
			return nil, err
		}
		cs.byGlyph[glyph] = cursor
	}
	return cs, nil
}

func (cs *Cursors) Glyph(glyph uint16) xproto.Cursor {
	return cs.byGlyph[glyph]
}
