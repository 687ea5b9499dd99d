package main

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Decorator owns a client's titlebar subwindow and border rendering.
// The titlebar doubles as an inline text entry via ReadFromUser.
type Decorator struct {
	wm     *WM
	client *Client

	win     xproto.Window // titlebar, child of the frame
	width   int
	focused bool
	title   string
	mapped  bool

	edit *EditField // non-nil while the titlebar is an input field
}

func NewDecorator(wm *WM, client *Client) (*Decorator, error) {
	d := &Decorator{wm: wm, client: client, mapped: true}

	win, err := xproto.NewWindowId(wm.xc)
	if err != nil {
		return nil, err
	}
	d.win = win
	d.width = client.frameGeometry().Width

	if err := xproto.CreateWindowChecked(wm.xc, xproto.WindowClassCopyFromParent,
		win, client.Frame,
		int16(client.Geom.Border), int16(client.Geom.Border),
		uint16(maxInt(1, d.width-2*client.Geom.Border)), uint16(wm.titleHeight), 0,
		xproto.WindowClassInputOutput, xproto.WindowClassCopyFromParent,
		xproto.CwEventMask,
		[]uint32{xproto.EventMaskExposure | xproto.EventMaskButtonPress}).Check(); err != nil {
		return nil, err
	}
	xproto.MapWindow(wm.xc, win)

	wm.demux.Register(win, d.handleEvent)
	return d, nil
}

func (d *Decorator) Destroy() {
	d.wm.demux.Unregister(d.win)
	xproto.DestroyWindow(d.wm.xc, d.win)
}

func (d *Decorator) style() *Style {
	if d.focused {
		return d.wm.focusedStyle
	}
	return d.wm.unfocusedStyle
}

// Redraw repaints the border and titlebar for the focus state.
func (d *Decorator) Redraw(focused bool) {
	d.focused = focused
	xproto.ChangeWindowAttributes(d.wm.xc, d.client.Frame,
		xproto.CwBackPixel, []uint32{d.style().Bg})
	xproto.ClearArea(d.wm.xc, false, d.client.Frame, 0, 0, 0, 0)
	d.draw()
}

func (d *Decorator) SetTitle(title string) {
	d.title = title
	d.draw()
}

// Resize follows a frame width change.
func (d *Decorator) Resize(frameWidth int) {
	d.width = frameWidth
	b := d.client.Geom.Border
	xproto.ConfigureWindow(d.wm.xc, d.win,
		xproto.ConfigWindowWidth,
		[]uint32{uint32(maxInt(1, frameWidth-2*b))})
	d.draw()
}

// SetMapped hides or shows the titlebar (fullscreen unmaps it).
func (d *Decorator) SetMapped(on bool) {
	if d.mapped == on {
		return
	}
	d.mapped = on
	if on {
		xproto.MapWindow(d.wm.xc, d.win)
	} else {
		xproto.UnmapWindow(d.wm.xc, d.win)
	}
}

func (d *Decorator) draw() {
	if !d.mapped {
		return
	}
	if d.edit != nil {
		d.edit.Draw()
		return
	}
	p := d.wm.painter
	s := d.style()
	w := maxInt(1, d.width-2*d.client.Geom.Border)
	p.Clear(xproto.Drawable(d.win), s, 0, 0, w, d.wm.titleHeight)
	p.Text(xproto.Drawable(d.win), s, 5, p.Descent()+p.Ascent(), d.title)
}

// ReadFromUser turns the titlebar into an inline input field driven by
// the minibuffer editing logic. Commit or rollback restores the title.
func (d *Decorator) ReadFromUser(prompt, initial string, commit func(string), rollback func(), time xproto.Timestamp) {
	if d.edit != nil {
		return
	}
	done := func() {
		d.edit = nil
		d.wm.popModal()
		xproto.UngrabKeyboard(d.wm.xc, d.wm.eventTime)
		d.draw()
	}
	d.edit = &EditField{
		wm:      d.wm,
		win:     d.win,
		style:   d.wm.minibufferStyle,
		width:   maxInt(1, d.width-2*d.client.Geom.Border),
		height:  d.wm.titleHeight,
		Prompt:  prompt,
		Buffer:  NewStringBuffer(initial),
		Commit:  func(s string) { done(); commit(s) },
		Exit: func() { done(); rollback() },
	}
	xproto.GrabKeyboard(d.wm.xc, false, d.win, time,
		xproto.GrabModeAsync, xproto.GrabModeAsync)
	d.wm.pushModal(d.edit)
	d.edit.Draw()
}

// handleEvent is the titlebar's demux chain: exposures repaint, button
// presses run the titlebar bindings.
func (d *Decorator) handleEvent(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.ExposeEvent:
		if e.Count == 0 {
			d.draw()
		}
		return true
	case xproto.ButtonPressEvent:
		return d.wm.handleTitlebarPress(d.client, e)
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
