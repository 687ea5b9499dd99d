package main

import (
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// NetState is the subset of _NET_WM_STATE the manager maintains.
type NetState struct {
	Fullscreen bool
	MaxHorz    bool
	MaxVert    bool
	Above      bool
}

// Client is a managed top-level window, reparented into a frame the
// manager owns. While the client is in Normal state the frame exists
// and its geometry equals the client geometry inflated by the border
// and the titlebar height.
type Client struct {
	wm *WM

	Window xproto.Window
	Frame  xproto.Window
	deco   *Decorator

	// Geom is the client geometry: the frame's root position plus the
	// client's width and height. Border is the frame border width.
	Geom      Geometry
	savedGeom Geometry // last non-maximized, non-fullscreen geometry
	origBorder int     // client's own border width before adoption

	WMState  uint32
	Net      NetState
	Hints    SizeHints
	WMHints  WMHints
	Class    WMClass
	Title    string
	Tags     []xproto.Atom
	TransientFor xproto.Window

	wmDeleteWindow bool
	wmTakeFocus    bool
}

func (c *Client) log() *slog.Logger {
	return c.wm.log.With("client", c.Window)
}

// refreshProtocols reads WM_PROTOCOLS (ICCCM §4.1.2.7).
func (c *Client) refreshProtocols() {
	c.wmDeleteWindow, c.wmTakeFocus = false, false
	for _, atom := range c.wm.props.GetAtomList(c.Window, "WM_PROTOCOLS") {
		switch atom {
		case c.wm.atomWMDeleteWindow:
			c.wmDeleteWindow = true
		case c.wm.atomWMTakeFocus:
			c.wmTakeFocus = true
		}
	}
}

// frameGeometry is the frame's root-coordinate geometry implied by the
// client geometry.
func (c *Client) frameGeometry() Geometry {
	th := c.titlebarHeight()
	return Geometry{
		X:      c.Geom.X,
		Y:      c.Geom.Y,
		Width:  c.Geom.Width + 2*c.Geom.Border,
		Height: c.Geom.Height + 2*c.Geom.Border + th,
	}
}

func (c *Client) titlebarHeight() int {
	if c.Net.Fullscreen {
		return 0
	}
	return c.wm.titleHeight
}

// clientOffset is where the client window sits inside the frame.
func (c *Client) clientOffset() (int, int) {
	return c.Geom.Border, c.Geom.Border + c.titlebarHeight()
}

// applyGeometry pushes the current Geom to the server: one configure
// for the frame, one for the client, and a synthetic ConfigureNotify
// so the client learns its root position (ICCCM §4.1.5).
func (c *Client) applyGeometry() {
	fg := c.frameGeometry()
	ox, oy := c.clientOffset()
	xproto.ConfigureWindow(c.wm.xc, c.Frame,
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(fg.X), uint32(fg.Y), uint32(fg.Width), uint32(fg.Height)})
	xproto.ConfigureWindow(c.wm.xc, c.Window,
		xproto.ConfigWindowX|xproto.ConfigWindowY|
			xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(ox), uint32(oy), uint32(c.Geom.Width), uint32(c.Geom.Height)})
	c.sendSyntheticConfigure()
	if c.deco != nil {
		c.deco.Resize(fg.Width)
	}
}

func (c *Client) sendSyntheticConfigure() {
	ox, oy := c.clientOffset()
	ev := xproto.ConfigureNotifyEvent{
		Event:        c.Window,
		Window:       c.Window,
		AboveSibling: xproto.WindowNone,
		X:            int16(c.Geom.X + ox),
		Y:            int16(c.Geom.Y + oy),
		Width:        uint16(c.Geom.Width),
		Height:       uint16(c.Geom.Height),
		BorderWidth:  0,
	}
	xproto.SendEvent(c.wm.xc, false, c.Window,
		xproto.EventMaskStructureNotify, string(ev.Bytes()))
}

// ConstrainSize snaps a candidate size to WM_NORMAL_HINTS.
func (c *Client) ConstrainSize(w, h int) (int, int) {
	return c.Hints.Constrain(w, h)
}

// Move changes only the position; no size hints apply.
func (c *Client) Move(x, y int) {
	c.Geom.X, c.Geom.Y = x, y
	c.applyGeometry()
}

// UpdateGeometry applies a full geometry change with hints enforced.
func (c *Client) UpdateGeometry(g Geometry) {
	g.Width, g.Height = c.ConstrainSize(g.Width, g.Height)
	c.Geom = g
	c.applyGeometry()
}

// HandleConfigureRequest filters a client-initiated configure through
// the size hints. Maximized or fullscreen dimensions are pinned.
func (c *Client) HandleConfigureRequest(e xproto.ConfigureRequestEvent) {
	g := c.Geom
	if e.ValueMask&xproto.ConfigWindowX != 0 && !c.Net.MaxHorz && !c.Net.Fullscreen {
		g.X = int(e.X)
	}
	if e.ValueMask&xproto.ConfigWindowY != 0 && !c.Net.MaxVert && !c.Net.Fullscreen {
		g.Y = int(e.Y)
	}
	if e.ValueMask&xproto.ConfigWindowWidth != 0 && !c.Net.MaxHorz && !c.Net.Fullscreen {
		g.Width = int(e.Width)
	}
	if e.ValueMask&xproto.ConfigWindowHeight != 0 && !c.Net.MaxVert && !c.Net.Fullscreen {
		g.Height = int(e.Height)
	}
	if e.ValueMask&xproto.ConfigWindowStackMode != 0 && e.ValueMask&xproto.ConfigWindowSibling == 0 {
		xproto.ConfigureWindow(c.wm.xc, c.Frame,
			xproto.ConfigWindowStackMode, []uint32{uint32(e.StackMode)})
	}
	c.UpdateGeometry(g)
}

// Iconify withdraws the frame from view and marks the client Iconic.
func (c *Client) Iconify() {
	if c.WMState == StateIconic {
		return
	}
	c.WMState = StateIconic
	c.wm.props.SetWMState(c.Window, StateIconic)
	xproto.UnmapWindow(c.wm.xc, c.Frame)
	// The unmap we just caused must not be taken for a withdrawal.
	c.wm.expectUnmap[c.Window]++
	xproto.UnmapWindow(c.wm.xc, c.Window)
	// Unmapped clients leave the focus list.
	c.wm.focusList.Remove(c)
	if c.wm.focused == c {
		c.wm.focused = nil
	}
}

// Normalize maps the frame and marks the client Normal.
func (c *Client) Normalize() {
	if c.WMState == StateNormal {
		return
	}
	c.WMState = StateNormal
	c.wm.props.SetWMState(c.Window, StateNormal)
	xproto.MapWindow(c.wm.xc, c.Window)
	xproto.MapWindow(c.wm.xc, c.Frame)
	c.wm.focusList.Append(c)
}

// Raise restacks the frame above its siblings.
func (c *Client) Raise() {
	xproto.ConfigureWindow(c.wm.xc, c.Frame,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeTopIf})
}

func (c *Client) Lower() {
	xproto.ConfigureWindow(c.wm.xc, c.Frame,
		xproto.ConfigWindowStackMode, []uint32{xproto.StackModeBottomIf})
}

// AcceptsFocus reports whether the client participates in input per
// its WM_HINTS input field or WM_TAKE_FOCUS.
func (c *Client) AcceptsFocus() bool {
	return c.WMHints.Input || c.wmTakeFocus
}

// Focus offers the input focus to the client, honoring its input
// model (ICCCM §4.1.7). The time must be a server timestamp.
func (c *Client) Focus(time xproto.Timestamp) bool {
	if !c.AcceptsFocus() || c.WMState != StateNormal {
		return false
	}
	if c.WMHints.Input {
		xproto.SetInputFocus(c.wm.xc, xproto.InputFocusPointerRoot, c.Window, time)
	}
	if c.wmTakeFocus {
		c.wm.sendProtocolMessage(c.Window, c.wm.atomWMTakeFocus, time)
	}
	return true
}

// Delete asks the client to go away politely, or kills it.
func (c *Client) Delete(time xproto.Timestamp) {
	if c.wmDeleteWindow {
		c.wm.sendProtocolMessage(c.Window, c.wm.atomWMDeleteWindow, time)
	} else {
		xproto.KillClient(c.wm.xc, uint32(c.Window))
	}
}

// SetFullscreen covers the CRTC containing the client, bypassing size
// hints, and unmaps the titlebar. Clearing it restores the saved
// geometry.
func (c *Client) SetFullscreen(on bool) {
	if c.Net.Fullscreen == on {
		return
	}
	if on {
		if !c.Net.MaxHorz && !c.Net.MaxVert {
			c.savedGeom = c.Geom
		}
		c.Net.Fullscreen = true
		crtc := c.wm.crtcContaining(c.Geom.X+c.Geom.Width/2, c.Geom.Y+c.Geom.Height/2)
		// Border zero and no titlebar: the frame covers the CRTC exactly.
		c.Geom = Geometry{X: crtc.Left, Y: crtc.Top, Width: crtc.Width(), Height: crtc.Height()}
		c.deco.SetMapped(false)
		c.applyGeometry()
		c.Raise()
	} else {
		c.Net.Fullscreen = false
		c.Geom = c.savedGeom
		c.deco.SetMapped(true)
		c.applyGeometry()
	}
	c.publishNetState()
}

// SetMaximized maximizes along the requested axes within the CRTC.
func (c *Client) SetMaximized(horz, vert bool) {
	if horz == c.Net.MaxHorz && vert == c.Net.MaxVert {
		return
	}
	if (horz || vert) && !c.Net.MaxHorz && !c.Net.MaxVert && !c.Net.Fullscreen {
		c.savedGeom = c.Geom
	}
	c.Net.MaxHorz, c.Net.MaxVert = horz, vert
	crtc := c.wm.crtcContaining(c.Geom.X+c.Geom.Width/2, c.Geom.Y+c.Geom.Height/2)
	g := c.Geom
	if horz {
		g.X = crtc.Left
		g.Width = crtc.Width() - 2*g.Border
	} else {
		g.X, g.Width = c.savedGeom.X, c.savedGeom.Width
	}
	if vert {
		g.Y = crtc.Top
		g.Height = crtc.Height() - 2*g.Border - c.titlebarHeight()
	} else {
		g.Y, g.Height = c.savedGeom.Y, c.savedGeom.Height
	}
	if !horz && !vert {
		g = c.savedGeom
	}
	c.Geom = g
	c.applyGeometry()
	c.publishNetState()
}

func (c *Client) publishNetState() {
	var atoms []xproto.Atom
	if c.Net.Fullscreen {
		atoms = append(atoms, c.wm.atomNetWMStateFullscreen)
	}
	if c.Net.MaxHorz {
		atoms = append(atoms, c.wm.atomNetWMStateMaxHorz)
	}
	if c.Net.MaxVert {
		atoms = append(atoms, c.wm.atomNetWMStateMaxVert)
	}
	if c.Net.Above {
		atoms = append(atoms, c.wm.atomNetWMStateAbove)
	}
	c.wm.props.SetAtomList(c.Window, "_NET_WM_STATE", atoms)
}

// refreshTitle re-reads the title, preferring _NET_WM_NAME. The reads
// go through the coalescing asynchronous path since title churn is the
// most frequent property traffic.
func (c *Client) refreshTitle() {
	c.wm.props.GetAsync(c.Window, "_NET_WM_NAME", func(net []byte) {
		if len(net) > 0 {
			c.setTitle(string(net))
			return
		}
		c.wm.props.GetAsync(c.Window, "WM_NAME", func(icccm []byte) {
			c.setTitle(string(icccm))
		})
	})
}

func (c *Client) setTitle(title string) {
	c.Title = title
	if c.deco != nil {
		c.deco.SetTitle(title)
	}
}

// handleClientEvent is the per-window handler chain entry registered
// with the demultiplexer for the client window.
func (c *Client) handleClientEvent(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.PropertyNotifyEvent:
		c.wm.props.HandlePropertyNotify(e)
		return true
	}
	return false
}
