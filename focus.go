package main

import (
	"github.com/BurntSushi/xgb/xproto"
)

// FocusList orders clients most-recently-focused first. Every mapped
// managed client appears exactly once.
type FocusList struct {
	clients []*Client
}

func (fl *FocusList) Head() *Client {
	if len(fl.clients) == 0 {
		return nil
	}
	return fl.clients[0]
}

func (fl *FocusList) Clients() []*Client {
	return fl.clients
}

func (fl *FocusList) MoveToFront(c *Client) {
	fl.Remove(c)
	fl.clients = append([]*Client{c}, fl.clients...)
}

func (fl *FocusList) Append(c *Client) {
	fl.Remove(c)
	fl.clients = append(fl.clients, c)
}

func (fl *FocusList) Remove(c *Client) {
	for i, cc := range fl.clients {
		if cc == c {
			fl.clients = append(fl.clients[:i], fl.clients[i+1:]...)
			return
		}
	}
}

// Rotate returns the client delta steps away from the current head,
// for the focus cycle.
func (fl *FocusList) Rotate(from *Client, delta int) *Client {
	n := len(fl.clients)
	if n == 0 {
		return nil
	}
	at := 0
	for i, c := range fl.clients {
		if c == from {
			at = i
			break
		}
	}
	return fl.clients[((at+delta)%n+n)%n]
}

// FocusPolicy decides how the input focus follows events. The chosen
// implementation is injected into the manager at construction.
type FocusPolicy interface {
	Name() string
	// OnEnter sees EnterNotify on a managed frame.
	OnEnter(c *Client, e xproto.EnterNotifyEvent)
	// OnEnterRoot sees the pointer entering the root window.
	OnEnterRoot(e xproto.EnterNotifyEvent)
	// OnMap runs after a MapRequest completes.
	OnMap(c *Client, time xproto.Timestamp)
	// OnButtonPress sees a press on a managed frame before the binding
	// engine; it reports whether it consumed the press.
	OnButtonPress(c *Client, e xproto.ButtonPressEvent) bool
	// OnManage / OnUnmanage bracket a client's managed lifetime.
	OnManage(c *Client)
	OnUnmanage(c *Client)
	// OnFocusChange is told about every focus movement.
	OnFocusChange(old, new *Client)
}

// SloppyFocus follows the pointer into clients; entering the root
// leaves focus where it was (PointerRoot, no autoraise).
type SloppyFocus struct {
	wm *WM
}

func (p *SloppyFocus) Name() string { return "sloppy" }

func (p *SloppyFocus) OnEnter(c *Client, e xproto.EnterNotifyEvent) {
	if e.Mode != xproto.NotifyModeNormal || e.Detail == xproto.NotifyDetailInferior {
		return
	}
	p.wm.focusClient(c, e.Time)
}

func (p *SloppyFocus) OnEnterRoot(e xproto.EnterNotifyEvent) {
	if e.Mode != xproto.NotifyModeNormal || e.Detail == xproto.NotifyDetailInferior {
		return
	}
	p.wm.focusRoot(e.Time)
}

func (p *SloppyFocus) OnMap(c *Client, time xproto.Timestamp)                 {}
func (p *SloppyFocus) OnButtonPress(c *Client, e xproto.ButtonPressEvent) bool { return false }
func (p *SloppyFocus) OnManage(c *Client)                                      {}
func (p *SloppyFocus) OnUnmanage(c *Client)                                    {}
func (p *SloppyFocus) OnFocusChange(old, new *Client)                          {}

// ClickToFocus moves focus only on a button press in a non-focused
// client. The press is grabbed synchronously on the frame (ICCCM §6.3
// forbids grabs on windows we do not own) and replayed so the
// application still sees it.
type ClickToFocus struct {
	wm *WM
}

func (p *ClickToFocus) Name() string { return "click" }

func (p *ClickToFocus) grab(c *Client) {
	xproto.GrabButton(p.wm.xc, false, c.Frame,
		uint16(xproto.EventMaskButtonPress),
		xproto.GrabModeSync, xproto.GrabModeAsync,
		xproto.WindowNone, xproto.CursorNone,
		1, xproto.ModMaskAny)
}

func (p *ClickToFocus) ungrab(c *Client) {
	xproto.UngrabButton(p.wm.xc, 1, c.Frame, xproto.ModMaskAny)
}

func (p *ClickToFocus) OnManage(c *Client) {
	p.grab(c)
}

func (p *ClickToFocus) OnUnmanage(c *Client) {}

func (p *ClickToFocus) OnEnter(c *Client, e xproto.EnterNotifyEvent) {}
func (p *ClickToFocus) OnEnterRoot(e xproto.EnterNotifyEvent)        {}
func (p *ClickToFocus) OnMap(c *Client, time xproto.Timestamp)       {}

func (p *ClickToFocus) OnButtonPress(c *Client, e xproto.ButtonPressEvent) bool {
	xproto.AllowEvents(p.wm.xc, xproto.AllowReplayPointer, e.Time)
	p.wm.focusClient(c, e.Time)
	return true
}

// OnFocusChange releases the grab on the focused client and restores
// it on the one that lost focus.
func (p *ClickToFocus) OnFocusChange(old, new *Client) {
	if old != nil && old != new {
		p.grab(old)
	}
	if new != nil {
		p.ungrab(new)
	}
}

// FocusNewWindows decorates any policy so that freshly mapped clients
// that accept focus get it.
type FocusNewWindows struct {
	FocusPolicy
	wm *WM
}

func (p *FocusNewWindows) Name() string { return p.FocusPolicy.Name() + "+new" }

func (p *FocusNewWindows) OnMap(c *Client, time xproto.Timestamp) {
	p.FocusPolicy.OnMap(c, time)
	if c.AcceptsFocus() {
		p.wm.focusClient(c, time)
	}
}

// focusClient offers focus to a client, updates decorations and moves
// it to the head of the focus list. The timestamp is always a server
// timestamp; CurrentTime is never used after adoption.
func (wm *WM) focusClient(c *Client, time xproto.Timestamp) {
	if c == nil || !c.Focus(time) {
		return
	}
	old := wm.focused
	if old == c {
		return
	}
	wm.focused = c
	if old != nil && old.deco != nil {
		old.deco.Redraw(false)
	}
	if c.deco != nil {
		c.deco.Redraw(true)
	}
	wm.focusList.MoveToFront(c)
	wm.props.SetWindow(wm.root, "_NET_ACTIVE_WINDOW", c.Window)
	wm.policy.OnFocusChange(old, c)
	wm.broadcast("focus", c.Window)
}

// focusRoot reverts to PointerRoot without disturbing decorations
// other than the previously focused client's.
func (wm *WM) focusRoot(time xproto.Timestamp) {
	old := wm.focused
	wm.focused = nil
	if old != nil && old.deco != nil {
		old.deco.Redraw(false)
	}
	xproto.SetInputFocus(wm.xc, xproto.InputFocusPointerRoot,
		xproto.InputFocusPointerRoot, time)
	wm.policy.OnFocusChange(old, nil)
}

// EnsureFocus requests a focus reconsideration via a client message so
// it happens after every queued event has been processed.
func (wm *WM) EnsureFocus(time xproto.Timestamp) {
	wm.sendRootMessage(wm.atomDimEnsureFocus, uint32(time), 0)
}

// handleEnsureFocus re-establishes a valid focus: the first visible
// Normal-state client on the focus list, else PointerRoot.
func (wm *WM) handleEnsureFocus(time xproto.Timestamp) {
	if wm.focused != nil && wm.focused.WMState == StateNormal {
		return
	}
	for _, c := range wm.focusList.Clients() {
		if c.WMState == StateNormal && c.AcceptsFocus() {
			wm.focusClient(c, time)
			return
		}
	}
	wm.focusRoot(time)
}
