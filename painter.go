package main

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const gxXor = 6 // GXxor from X.h

// Painter wraps the low-level drawing calls for titlebars, the
// minibuffer and move/resize guidelines. Text uses a core X font; we
// assume 24-bit RGB pixels.
type Painter struct {
	xc   *xgb.Conn
	root xproto.Window

	font    xproto.Font
	ascent  int
	descent int
	width   int // advance of the widest glyph

	xorGC xproto.Gcontext // on the root, for guidelines and cursors
}

// NewPainter opens the named font, falling back to "fixed". A missing
// fallback is fatal for the caller.
func NewPainter(xc *xgb.Conn, screen *xproto.ScreenInfo, fontName string) (*Painter, error) {
	p := &Painter{xc: xc, root: screen.Root}

	font, err := openFont(xc, fontName)
	if err != nil && fontName != "fixed" {
		font, err = openFont(xc, "fixed")
	}
	if err != nil {
		return nil, fmt.Errorf("open font: %w", err)
	}
	p.font = font

	info, err := xproto.QueryFont(xc, xproto.Fontable(font)).Reply()
	if err != nil {
		return nil, fmt.Errorf("query font: %w", err)
	}
	p.ascent = int(info.FontAscent)
	p.descent = int(info.FontDescent)
	p.width = int(info.MaxBounds.CharacterWidth)

	xor, err := xproto.NewGcontextId(xc)
	if err != nil {
		return nil, err
	}
	if err := xproto.CreateGCChecked(xc, xor, xproto.Drawable(p.root),
		xproto.GcFunction|xproto.GcForeground|xproto.GcSubwindowMode|xproto.GcGraphicsExposures,
		[]uint32{gxXor, 0xffffff, xproto.SubwindowModeIncludeInferiors, 0}).Check(); err != nil {
		return nil, err
	}
	p.xorGC = xor
	return p, nil
}

func openFont(xc *xgb.Conn, name string) (xproto.Font, error) {
	font, err := xproto.NewFontId(xc)
	if err != nil {
		return 0, err
	}
	if err := xproto.OpenFontChecked(xc, font, uint16(len(name)), name).Check(); err != nil {
		return 0, err
	}
	return font, nil
}

func (p *Painter) Ascent() int  { return p.ascent }
func (p *Painter) Descent() int { return p.descent }

// LineHeight is the height of a padded line of text, used for the
// titlebar and minibuffer heights.
func (p *Painter) LineHeight() int {
	return p.ascent + 2*p.descent
}

func (p *Painter) TextWidth(s string) int {
	return p.width * len(s)
}

// Style is a foreground/background GC pair for one color scheme.
type Style struct {
	Fg, Bg uint32
	fgGC   xproto.Gcontext
	bgGC   xproto.Gcontext
}

func (p *Painter) NewStyle(fg, bg uint32) (*Style, error) {
	s := &Style{Fg: fg, Bg: bg}
	for _, part := range []struct {
		gc       *xproto.Gcontext
		fg       uint32
		withFont bool
	}{
		{&s.fgGC, fg, true},
		{&s.bgGC, bg, false},
	} {
		gc, err := xproto.NewGcontextId(p.xc)
		if err != nil {
			return nil, err
		}
		mask := uint32(xproto.GcForeground | xproto.GcBackground)
		values := []uint32{part.fg, bg}
		if part.withFont {
			mask |= xproto.GcFont
			values = append(values, uint32(p.font))
		}
		if err := xproto.CreateGCChecked(p.xc, gc, xproto.Drawable(p.root), mask, values).Check(); err != nil {
			return nil, err
		}
		*part.gc = gc
	}
	return s, nil
}

// Clear fills a rectangle with the style's background color.
func (p *Painter) Clear(d xproto.Drawable, s *Style, x, y, w, h int) {
	xproto.PolyFillRectangle(p.xc, d, s.bgGC, []xproto.Rectangle{{
		X: int16(x), Y: int16(y), Width: uint16(w), Height: uint16(h),
	}})
}

// Text draws a string with its baseline at y.
func (p *Painter) Text(d xproto.Drawable, s *Style, x, y int, text string) {
	if len(text) > 255 {
		text = text[:255]
	}
	xproto.ImageText8(p.xc, byte(len(text)), d, s.fgGC, int16(x), int16(y), text)
}

// XORRect inverts a rectangle; drawing it twice restores the pixels.
func (p *Painter) XORRect(d xproto.Drawable, x, y, w, h int) {
	xproto.PolyFillRectangle(p.xc, d, p.xorGC, []xproto.Rectangle{{
		X: int16(x), Y: int16(y), Width: uint16(w), Height: uint16(h),
	}})
}

// GuidelineV draws (or erases) a 1-pixel vertical XOR line across the
// screen at x.
func (p *Painter) GuidelineV(x, top, bottom int) {
	xproto.PolySegment(p.xc, xproto.Drawable(p.root), p.xorGC, []xproto.Segment{{
		X1: int16(x), Y1: int16(top), X2: int16(x), Y2: int16(bottom),
	}})
}

// GuidelineH draws (or erases) a 1-pixel horizontal XOR line across
// the screen at y.
func (p *Painter) GuidelineH(y, left, right int) {
	xproto.PolySegment(p.xc, xproto.Drawable(p.root), p.xorGC, []xproto.Segment{{
		X1: int16(left), Y1: int16(y), X2: int16(right), Y2: int16(y),
	}})
}
