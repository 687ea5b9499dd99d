package main

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Handle identifies which edges an interactive resize moves, as a
// normalized offset: -1/0/+1 per axis. The zero handle moves the
// whole window.
type Handle struct {
	X, Y int
}

var handleCursors = map[Handle]uint16{
	{-1, -1}: xcTopLeftCorner,
	{+0, -1}: xcTopSide,
	{+1, -1}: xcTopRightCorner,
	{-1, +0}: xcLeftSide,
	{+0, +0}: xcFleur,
	{+1, +0}: xcRightSide,
	{-1, +1}: xcBottomLeftCorner,
	{+0, +1}: xcBottomSide,
	{+1, +1}: xcBottomRightCorner,
}

// handleOrder is the Space-bar cycling order, clockwise from
// north-west.
var handleOrder = []Handle{
	{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0},
}

// handleAt picks the resize handle from the pointer position within
// the frame, splitting each axis into thirds.
func handleAt(px, py int, frame Rect) Handle {
	third := func(p, start, length int) int {
		switch {
		case p < start+length/3:
			return -1
		case p < start+2*length/3:
			return 0
		default:
			return 1
		}
	}
	return Handle{
		X: third(px, frame.Left, frame.Width()),
		Y: third(py, frame.Top, frame.Height()),
	}
}

func nextHandle(h Handle) Handle {
	for i, hh := range handleOrder {
		if hh == h {
			return handleOrder[(i+1)%len(handleOrder)]
		}
	}
	return handleOrder[0]
}

// SnapEdges is the ordered candidate edge list built at operation
// start: screen edges, per-CRTC edges, then other visible clients'
// outer edges.
type SnapEdges struct {
	Vert []int // x coordinates
	Horz []int // y coordinates
}

func CollectSnapEdges(screen Rect, crtcs []Rect, others []Rect) SnapEdges {
	var e SnapEdges
	add := func(r Rect) {
		e.Vert = append(e.Vert, r.Left, r.Right)
		e.Horz = append(e.Horz, r.Top, r.Bottom)
	}
	add(screen)
	for _, r := range crtcs {
		add(r)
	}
	for _, r := range others {
		add(r)
	}
	return e
}

// snapAxis finds the candidate edge within threshold of any target
// edge, preferring the smallest perpendicular distance. It returns
// the delta to apply and the snapped target position.
func snapAxis(candidates []int, targets []int, threshold int) (delta int, at int, ok bool) {
	best := threshold + 1
	for _, c := range candidates {
		for _, t := range targets {
			d := t - c
			if abs(d) < abs(best) || (abs(d) == abs(best) && !ok) {
				if abs(d) <= threshold {
					best, at, ok = d, t, true
				}
			}
		}
	}
	if !ok {
		return 0, 0, false
	}
	return best, at, true
}

// SnapMove snaps a candidate outer rectangle against the edge list.
// The returned guideline positions are -1 when no snap happened on
// that axis.
func SnapMove(cand Rect, edges SnapEdges, threshold int) (Rect, int, int) {
	gx, gy := -1, -1
	if dx, at, ok := snapAxis([]int{cand.Left, cand.Right}, edges.Vert, threshold); ok {
		cand.Left += dx
		cand.Right += dx
		gx = at
	}
	if dy, at, ok := snapAxis([]int{cand.Top, cand.Bottom}, edges.Horz, threshold); ok {
		cand.Top += dy
		cand.Bottom += dy
		gy = at
	}
	return cand, gx, gy
}

// SnapResize snaps only the active edges of a candidate rectangle.
func SnapResize(cand Rect, h Handle, edges SnapEdges, threshold int) (Rect, int, int) {
	gx, gy := -1, -1
	switch h.X {
	case -1:
		if dx, at, ok := snapAxis([]int{cand.Left}, edges.Vert, threshold); ok {
			cand.Left += dx
			gx = at
		}
	case 1:
		if dx, at, ok := snapAxis([]int{cand.Right}, edges.Vert, threshold); ok {
			cand.Right += dx
			gx = at
		}
	}
	switch h.Y {
	case -1:
		if dy, at, ok := snapAxis([]int{cand.Top}, edges.Horz, threshold); ok {
			cand.Top += dy
			gy = at
		}
	case 1:
		if dy, at, ok := snapAxis([]int{cand.Bottom}, edges.Horz, threshold); ok {
			cand.Bottom += dy
			gy = at
		}
	}
	return cand, gx, gy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// moveResizeOp is the modal state of an interactive move or resize.
// Escape restores the snapshot geometry byte for byte; release
// commits.
type moveResizeOp struct {
	wm     *WM
	c      *Client
	resize bool
	handle Handle

	startX, startY int // pointer at grab time
	orig           Geometry
	anchor         Geometry // re-anchored on handle cycling

	moveDelta int  // minimum drag before a move engages
	engaged   bool

	edges  SnapEdges
	guideV int // -1 when not drawn
	guideH int
}

// MoveWindow starts an interactive move with an active pointer grab.
// moveDelta is the drag distance below which the press stays a click.
func (wm *WM) MoveWindow(c *Client, in Input, moveDelta int) {
	wm.startMoveResize(c, in, false, moveDelta)
}

// ResizeWindow starts an interactive resize; the initial pointer
// position selects one of the eight handles.
func (wm *WM) ResizeWindow(c *Client, in Input) {
	wm.startMoveResize(c, in, true, 0)
}

func (wm *WM) startMoveResize(c *Client, in Input, resize bool, moveDelta int) {
	if wm.moveresize != nil || c == nil || c.Net.Fullscreen {
		return
	}
	op := &moveResizeOp{
		wm:        wm,
		c:         c,
		resize:    resize,
		startX:    int(in.RootX),
		startY:    int(in.RootY),
		orig:      c.Geom,
		anchor:    c.Geom,
		moveDelta: moveDelta,
		engaged:   moveDelta == 0,
		guideV:    -1,
		guideH:    -1,
	}
	op.handle = Handle{}
	if resize {
		op.handle = handleAt(op.startX, op.startY, c.frameGeometry().Outer())
		if op.handle == (Handle{}) {
			// Center means a plain move.
			op.resize = false
		}
	}
	op.edges = CollectSnapEdges(wm.screenRect(), wm.crtcs, wm.visibleFrameRects(c))

	cursor := wm.cursors.Glyph(handleCursors[op.handle])
	xproto.GrabPointer(wm.xc, false, wm.root,
		uint16(xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|
			xproto.EventMaskPointerMotion),
		xproto.GrabModeAsync, xproto.GrabModeAsync,
		xproto.WindowNone, cursor, in.Time)
	xproto.GrabKeyboard(wm.xc, false, wm.root, in.Time,
		xproto.GrabModeAsync, xproto.GrabModeAsync)

	wm.moveresize = op
	wm.pushModal(op)
}

func (op *moveResizeOp) HandleEvent(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.MotionNotifyEvent:
		op.update(int(e.RootX), int(e.RootY))
		return true
	case xproto.ButtonReleaseEvent:
		op.commit(e.Time)
		return true
	case xproto.ButtonPressEvent:
		return true
	case xproto.KeyPressEvent:
		sym := op.wm.keymap.LookupKeysym(e.Detail, e.State)
		switch sym {
		case xkEscape:
			op.rollback(e.Time)
		case xkReturn:
			op.commit(e.Time)
		case ' ':
			op.cycleHandle(e.Time, int(e.RootX), int(e.RootY))
		}
		return true
	case xproto.KeyReleaseEvent:
		return true
	}
	return false
}

func (op *moveResizeOp) Abort() {
	op.rollback(op.wm.eventTime)
}

func (op *moveResizeOp) update(px, py int) {
	dx, dy := px-op.startX, py-op.startY
	if !op.engaged {
		if abs(dx) < op.moveDelta && abs(dy) < op.moveDelta {
			return
		}
		op.engaged = true
	}
	if op.resize {
		op.updateResize(dx, dy)
	} else {
		op.updateMove(dx, dy)
	}
}

func (op *moveResizeOp) updateMove(dx, dy int) {
	g := op.anchor
	g.X += dx
	g.Y += dy
	cand := candidateOuter(op.c, g)
	snapped, gx, gy := SnapMove(cand, op.edges, op.wm.cfg.SnapThreshold)
	g.X += snapped.Left - cand.Left
	g.Y += snapped.Top - cand.Top
	op.drawGuidelines(gx, gy)
	op.c.Move(g.X, g.Y)
}

func (op *moveResizeOp) updateResize(dx, dy int) {
	g := op.anchor
	// Move only the selected edges.
	if op.handle.X < 0 {
		g.X += dx
		g.Width -= dx
	} else if op.handle.X > 0 {
		g.Width += dx
	}
	if op.handle.Y < 0 {
		g.Y += dy
		g.Height -= dy
	} else if op.handle.Y > 0 {
		g.Height += dy
	}

	cand := candidateOuter(op.c, g)
	snapped, gx, gy := SnapResize(cand, op.handle, op.edges, op.wm.cfg.SnapThreshold)
	if op.handle.X < 0 {
		g.X += snapped.Left - cand.Left
		g.Width -= snapped.Left - cand.Left
	} else if op.handle.X > 0 {
		g.Width += snapped.Right - cand.Right
	}
	if op.handle.Y < 0 {
		g.Y += snapped.Top - cand.Top
		g.Height -= snapped.Top - cand.Top
	} else if op.handle.Y > 0 {
		g.Height += snapped.Bottom - cand.Bottom
	}

	// Size hints are enforced after every step; edges anchored on the
	// west or north keep their opposite edge fixed.
	w, h := op.c.ConstrainSize(g.Width, g.Height)
	if op.handle.X < 0 {
		g.X += g.Width - w
	}
	if op.handle.Y < 0 {
		g.Y += g.Height - h
	}
	g.Width, g.Height = w, h

	op.drawGuidelines(gx, gy)
	op.c.Geom = g
	op.c.applyGeometry()
}

// candidateOuter is the outer frame rect a client would occupy with
// the candidate geometry.
func candidateOuter(c *Client, g Geometry) Rect {
	saved := c.Geom
	c.Geom = g
	r := c.frameGeometry().Outer()
	c.Geom = saved
	return r
}

// drawGuidelines redraws the XOR guidelines when the snap target
// changed; drawing twice at the same place erases.
func (op *moveResizeOp) drawGuidelines(gx, gy int) {
	p := op.wm.painter
	sr := op.wm.screenRect()
	if op.guideV != gx {
		if op.guideV >= 0 {
			p.GuidelineV(op.guideV, sr.Top, sr.Bottom)
		}
		if gx >= 0 {
			p.GuidelineV(gx, sr.Top, sr.Bottom)
		}
		op.guideV = gx
	}
	if op.guideH != gy {
		if op.guideH >= 0 {
			p.GuidelineH(op.guideH, sr.Left, sr.Right)
		}
		if gy >= 0 {
			p.GuidelineH(gy, sr.Left, sr.Right)
		}
		op.guideH = gy
	}
}

func (op *moveResizeOp) cycleHandle(time xproto.Timestamp, px, py int) {
	if !op.resize {
		return
	}
	op.handle = nextHandle(op.handle)
	op.anchor = op.c.Geom
	op.startX, op.startY = px, py
	xproto.ChangeActivePointerGrab(op.wm.xc,
		op.wm.cursors.Glyph(handleCursors[op.handle]), time,
		uint16(xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease|
			xproto.EventMaskPointerMotion))
}

// commit finishes the operation with a single final configure.
func (op *moveResizeOp) commit(time xproto.Timestamp) {
	op.finish(time)
	op.c.applyGeometry()
}

// rollback restores the pre-operation snapshot exactly.
func (op *moveResizeOp) rollback(time xproto.Timestamp) {
	op.finish(time)
	op.c.Geom = op.orig
	op.c.applyGeometry()
}

func (op *moveResizeOp) finish(time xproto.Timestamp) {
	op.drawGuidelines(-1, -1)
	xproto.UngrabPointer(op.wm.xc, time)
	xproto.UngrabKeyboard(op.wm.xc, time)
	op.wm.moveresize = nil
	op.wm.popModal()
}
