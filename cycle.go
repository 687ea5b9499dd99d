package main

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// modifierMask maps a modifier keysym to the mask bit it commonly
// occupies, for detecting the release that ends a focus cycle.
func modifierMask(sym xproto.Keysym) uint16 {
	switch sym {
	case xkShiftL, xkShiftR:
		return xproto.ModMaskShift
	case xkControlL, xkControlR:
		return xproto.ModMaskControl
	case xkMetaL, xkMetaR, xkAltL, xkAltR:
		return xproto.ModMask1
	case xkSuperL, xkSuperR:
		return xproto.ModMask4
	}
	return 0
}

// FocusCycle is the modal next/prev focus traversal. The modifiers
// held in the starting chord form the cycle modifier set; releasing
// the last of them commits the target.
type FocusCycle struct {
	wm        *WM
	mods      uint16
	target    *Client
	cands     []*Client
	win       xproto.Window
	width     int
	height    int
}

// StartFocusCycle begins a cycle; a second start while one is active
// is a no-op.
func (wm *WM) StartFocusCycle(in Input, delta int) {
	if wm.cycle != nil {
		return
	}
	var cands []*Client
	for _, c := range wm.focusList.Clients() {
		if c.WMState == StateNormal && c.AcceptsFocus() {
			cands = append(cands, c)
		}
	}
	if len(cands) < 2 {
		return
	}
	fc := &FocusCycle{
		wm:    wm,
		mods:  in.State &^ wm.keymap.IgnoredMods() & 0xff,
		cands: cands,
	}
	fc.target = fc.step(cands[0], delta)

	if err := fc.createStrip(); err != nil {
		wm.log.Warn("focus cycle strip", "error", err)
		return
	}
	xproto.GrabKeyboard(wm.xc, false, wm.root, in.Time,
		xproto.GrabModeAsync, xproto.GrabModeAsync)
	wm.cycle = fc
	wm.pushModal(fc)
	fc.draw()
}

func (fc *FocusCycle) step(from *Client, delta int) *Client {
	n := len(fc.cands)
	at := 0
	for i, c := range fc.cands {
		if c == from {
			at = i
			break
		}
	}
	return fc.cands[((at+delta)%n+n)%n]
}

func (fc *FocusCycle) createStrip() error {
	win, err := xproto.NewWindowId(fc.wm.xc)
	if err != nil {
		return err
	}
	fc.win = win
	line := fc.wm.painter.LineHeight()
	fc.height = line * len(fc.cands)
	fc.width = int(fc.wm.screen.WidthInPixels) / 3
	x := (int(fc.wm.screen.WidthInPixels) - fc.width) / 2
	y := (int(fc.wm.screen.HeightInPixels) - fc.height) / 2
	if err := xproto.CreateWindowChecked(fc.wm.xc, fc.wm.screen.RootDepth,
		win, fc.wm.root,
		int16(x), int16(y), uint16(fc.width), uint16(fc.height), 1,
		xproto.WindowClassInputOutput, fc.wm.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			fc.wm.minibufferStyle.Bg,
			fc.wm.minibufferStyle.Fg,
			1,
			xproto.EventMaskExposure,
		}).Check(); err != nil {
		return err
	}
	xproto.MapWindow(fc.wm.xc, win)
	return nil
}

func (fc *FocusCycle) draw() {
	p := fc.wm.painter
	d := xproto.Drawable(fc.win)
	line := p.LineHeight()
	p.Clear(d, fc.wm.minibufferStyle, 0, 0, fc.width, fc.height)
	for i, c := range fc.cands {
		y := i * line
		title := c.Title
		if title == "" {
			title = c.Class.Instance
		}
		p.Text(d, fc.wm.minibufferStyle, 5, y+p.Descent()+p.Ascent(), title)
		if c == fc.target {
			p.XORRect(d, 0, y, fc.width, line)
		}
	}
}

func (fc *FocusCycle) HandleEvent(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		fc.handleKey(e)
		return true
	case xproto.KeyReleaseEvent:
		// The None binding: releasing the last held modifier of the
		// starting chord commits the target.
		sym := fc.wm.keymap.LookupKeysym(e.Detail, e.State)
		if mask := modifierMask(sym); mask != 0 && e.State&^mask&fc.mods == 0 {
			fc.commit(e.Time)
		}
		return true
	case xproto.ExposeEvent:
		fc.draw()
		return true
	}
	return false
}

func (fc *FocusCycle) handleKey(e xproto.KeyPressEvent) {
	sym := fc.wm.keymap.LookupKeysym(e.Detail, e.State)
	shift := e.State&xproto.ModMaskShift != 0
	switch {
	case sym == xkEscape:
		fc.abort(e.Time)
	case sym == xkReturn:
		fc.commit(e.Time)
	case sym == xkTab && shift, sym == xkLeft, sym == xkUp:
		fc.target = fc.step(fc.target, -1)
		fc.draw()
	case sym == xkTab, sym == xkRight, sym == xkDown:
		fc.target = fc.step(fc.target, +1)
		fc.draw()
	case sym == 'r':
		fc.target.Raise()
	case sym == 'l':
		fc.target.Lower()
	case sym == 'w':
		fc.warp()
	}
}

// warp moves the pointer into the target.
func (fc *FocusCycle) warp() {
	g := fc.target.frameGeometry()
	xproto.WarpPointer(fc.wm.xc, xproto.WindowNone, fc.target.Frame,
		0, 0, 0, 0, int16(g.Width/2), int16(g.Height/2))
}

func (fc *FocusCycle) Abort() {
	fc.abort(fc.wm.eventTime)
}

func (fc *FocusCycle) commit(time xproto.Timestamp) {
	target := fc.target
	fc.teardown(time)
	fc.wm.focusClient(target, time)
	target.Raise()
}

func (fc *FocusCycle) abort(time xproto.Timestamp) {
	fc.teardown(time)
}

func (fc *FocusCycle) teardown(time xproto.Timestamp) {
	xproto.UngrabKeyboard(fc.wm.xc, time)
	xproto.DestroyWindow(fc.wm.xc, fc.win)
	fc.wm.cycle = nil
	fc.wm.popModal()
}
