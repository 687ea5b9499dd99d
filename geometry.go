package main

import "fmt"

// Geometry is the position and size of a window, border included,
// in root coordinates.
type Geometry struct {
	X, Y          int
	Width, Height int
	Border        int
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d%+d%+d", g.Width, g.Height, g.X, g.Y)
}

// Outer returns the rectangle the window occupies on screen, border
// included on all four sides.
func (g Geometry) Outer() Rect {
	return Rect{
		Left:   g.X,
		Top:    g.Y,
		Right:  g.X + g.Width + 2*g.Border,
		Bottom: g.Y + g.Height + 2*g.Border,
	}
}

// Rect is an axis-aligned rectangle given by its edges.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

func (r Rect) Contains(x, y int) bool {
	return r.Left <= x && x < r.Right && r.Top <= y && y < r.Bottom
}

// SizeHints is the decoded WM_NORMAL_HINTS property (ICCCM §4.1.2.3).
// Zero-valued fields fall back to the ICCCM defaults in the accessors.
type SizeHints struct {
	Flags                  uint32
	MinWidth, MinHeight    int
	MaxWidth, MaxHeight    int
	WidthInc, HeightInc    int
	MinAspectX, MinAspectY int
	MaxAspectX, MaxAspectY int
	BaseWidth, BaseHeight  int
	WinGravity             int
}

// WM_SIZE_HINTS flag bits.
const (
	HintUSPosition = 1 << iota
	HintUSSize
	HintPPosition
	HintPSize
	HintPMinSize
	HintPMaxSize
	HintPResizeInc
	HintPAspect
	HintPBaseSize
	HintPWinGravity
)

func (h SizeHints) baseSize() (int, int) {
	if h.Flags&HintPBaseSize != 0 {
		return h.BaseWidth, h.BaseHeight
	}
	if h.Flags&HintPMinSize != 0 {
		return h.MinWidth, h.MinHeight
	}
	return 0, 0
}

func (h SizeHints) minSize() (int, int) {
	if h.Flags&HintPMinSize != 0 {
		return h.MinWidth, h.MinHeight
	}
	if h.Flags&HintPBaseSize != 0 {
		return h.BaseWidth, h.BaseHeight
	}
	return 1, 1
}

func (h SizeHints) maxSize() (int, int) {
	if h.Flags&HintPMaxSize != 0 {
		return h.MaxWidth, h.MaxHeight
	}
	return 0x7fffffff, 0x7fffffff
}

func (h SizeHints) inc() (int, int) {
	if h.Flags&HintPResizeInc != 0 && h.WidthInc > 0 && h.HeightInc > 0 {
		return h.WidthInc, h.HeightInc
	}
	return 1, 1
}

// Constrain snaps a candidate size to the closest size the hints allow:
// aspect ratio first, then resize increments, then the min/max bounds.
func (h SizeHints) Constrain(width, height int) (int, int) {
	width, height = h.constrainAspect(width, height)

	bw, bh := h.baseSize()
	iw, ih := h.inc()
	if width > bw {
		width = bw + (width-bw)/iw*iw
	}
	if height > bh {
		height = bh + (height-bh)/ih*ih
	}

	minW, minH := h.minSize()
	maxW, maxH := h.maxSize()
	width = clamp(width, minW, maxW)
	height = clamp(height, minH, maxH)
	return width, height
}

func (h SizeHints) constrainAspect(width, height int) (int, int) {
	if h.Flags&HintPAspect == 0 {
		return width, height
	}
	bw, bh := 0, 0
	if h.Flags&HintPBaseSize != 0 {
		bw, bh = h.BaseWidth, h.BaseHeight
	}
	w, ht := width-bw, height-bh
	// max aspect bounds width/height from above, min aspect from below.
	if h.MaxAspectX > 0 && h.MaxAspectY > 0 && w*h.MaxAspectY > ht*h.MaxAspectX {
		w = ht * h.MaxAspectX / h.MaxAspectY
	}
	if h.MinAspectX > 0 && h.MinAspectY > 0 && w*h.MinAspectY < ht*h.MinAspectX {
		ht = w * h.MinAspectY / h.MinAspectX
	}
	return w + bw, ht + bh
}

// Increments reports the i, j of width = base + i*inc (and likewise for
// height) for an already-constrained size.
func (h SizeHints) Increments(width, height int) (int, int) {
	bw, bh := h.baseSize()
	iw, ih := h.inc()
	return (width - bw) / iw, (height - bh) / ih
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
