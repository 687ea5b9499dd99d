package main

import (
	"unicode"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// killRingSize bounds the shared kill ring.
const killRingSize = 10

// StringBuffer is a line-editing buffer with a point (cursor).
type StringBuffer struct {
	runes []rune
	point int
}

func NewStringBuffer(initial string) *StringBuffer {
	r := []rune(initial)
	return &StringBuffer{runes: r, point: len(r)}
}

func (b *StringBuffer) String() string { return string(b.runes) }
func (b *StringBuffer) Point() int     { return b.point }
func (b *StringBuffer) Len() int       { return len(b.runes) }

func (b *StringBuffer) SetString(s string) {
	b.runes = []rune(s)
	b.point = len(b.runes)
}

func (b *StringBuffer) InsertRune(r rune) {
	b.runes = append(b.runes[:b.point], append([]rune{r}, b.runes[b.point:]...)...)
	b.point++
}

func (b *StringBuffer) InsertString(s string) {
	for _, r := range s {
		b.InsertRune(r)
	}
}

func (b *StringBuffer) BeginningOfBuffer() { b.point = 0 }
func (b *StringBuffer) EndOfBuffer()       { b.point = len(b.runes) }

// ForwardChar reports whether the point moved.
func (b *StringBuffer) ForwardChar() bool {
	if b.point >= len(b.runes) {
		return false
	}
	b.point++
	return true
}

func (b *StringBuffer) BackwardChar() bool {
	if b.point <= 0 {
		return false
	}
	b.point--
	return true
}

func (b *StringBuffer) ForwardWord() {
	for b.point < len(b.runes) && !isWordRune(b.runes[b.point]) {
		b.point++
	}
	for b.point < len(b.runes) && isWordRune(b.runes[b.point]) {
		b.point++
	}
}

func (b *StringBuffer) BackwardWord() {
	for b.point > 0 && !isWordRune(b.runes[b.point-1]) {
		b.point--
	}
	for b.point > 0 && isWordRune(b.runes[b.point-1]) {
		b.point--
	}
}

func (b *StringBuffer) DeleteForwardChar() bool {
	if b.point >= len(b.runes) {
		return false
	}
	b.runes = append(b.runes[:b.point], b.runes[b.point+1:]...)
	return true
}

func (b *StringBuffer) DeleteBackwardChar() bool {
	if b.point <= 0 {
		return false
	}
	b.point--
	b.runes = append(b.runes[:b.point], b.runes[b.point+1:]...)
	return true
}

// kill removes the region between the point and mark, returning it.
func (b *StringBuffer) kill(mark int) string {
	lo, hi := b.point, mark
	if lo > hi {
		lo, hi = hi, lo
	}
	killed := string(b.runes[lo:hi])
	b.runes = append(b.runes[:lo], b.runes[hi:]...)
	b.point = lo
	return killed
}

func (b *StringBuffer) KillWord() string {
	mark := b.point
	b.ForwardWord()
	p := b.point
	b.point = mark
	return b.kill(p)
}

func (b *StringBuffer) BackwardKillWord() string {
	mark := b.point
	b.BackwardWord()
	p := b.point
	b.point = mark
	return b.kill(p)
}

func (b *StringBuffer) KillLine() string {
	return b.kill(len(b.runes))
}

func (b *StringBuffer) KillWholeLine() string {
	b.point = 0
	return b.kill(len(b.runes))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// EditField renders an editable line into a window and interprets key
// events for it. It is pushed on the modal stack while active; the
// caller owns the keyboard grab.
type EditField struct {
	wm     *WM
	win    xproto.Window
	style  *Style
	width  int
	height int

	Prompt string
	Buffer *StringBuffer
	Commit func(string)
	Exit   func() // rollback

	History      []string
	historyIndex int
}

func (f *EditField) Draw() {
	p := f.wm.painter
	d := xproto.Drawable(f.win)
	p.Clear(d, f.style, 0, 0, f.width, f.height)

	x := 5
	y := p.Descent() + p.Ascent()
	if f.Prompt != "" {
		p.Text(d, f.style, x, y, f.Prompt)
		x += p.TextWidth(f.Prompt)
	}
	text := f.Buffer.String()
	p.Text(d, f.style, x, y, text)

	// XOR block cursor at the point.
	cx := x + p.TextWidth(string([]rune(text)[:f.Buffer.Point()]))
	p.XORRect(d, cx, y-p.Ascent(), p.TextWidth(" "), p.Ascent()+p.Descent())
}

// HandleEvent consumes key presses while the field is the top modal.
func (f *EditField) HandleEvent(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		f.handleKey(e)
		return true
	case xproto.KeyReleaseEvent:
		return true
	case xproto.SelectionNotifyEvent:
		f.handleSelection(e)
		return true
	case xproto.ExposeEvent:
		f.Draw()
		return true
	}
	return false
}

func (f *EditField) Abort() {
	f.Exit()
}

func (f *EditField) handleKey(e xproto.KeyPressEvent) {
	sym := f.wm.keymap.LookupKeysym(e.Detail, e.State)
	if isModifierKeysym(sym) {
		return
	}
	if alias, ok := keypadAliases[sym]; ok {
		sym = alias
	}
	mods := e.State &^ f.wm.keymap.IgnoredMods() & 0xff
	control := mods&xproto.ModMaskControl != 0
	meta := mods&xproto.ModMask1 != 0

	switch {
	case sym == xkReturn && mods == 0:
		f.Commit(f.Buffer.String())
		return
	case sym == xkEscape && mods == 0:
		f.Exit()
		return
	}

	b := f.Buffer
	switch {
	case meta && sym == 'p':
		f.historyStep(-1)
	case meta && sym == 'n':
		f.historyStep(+1)
	case sym == xkLeft || control && sym == 'b':
		b.BackwardChar()
	case sym == xkRight || control && sym == 'f':
		b.ForwardChar()
	case sym == xkHome || control && sym == 'a':
		b.BeginningOfBuffer()
	case sym == xkEnd || control && sym == 'e':
		b.EndOfBuffer()
	case meta && sym == 'f':
		b.ForwardWord()
	case meta && sym == 'b':
		b.BackwardWord()
	case sym == xkBackspace && meta:
		f.wm.pushKill(b.BackwardKillWord())
	case sym == xkBackspace:
		b.DeleteBackwardChar()
	case sym == xkDelete || control && sym == 'd':
		b.DeleteForwardChar()
	case meta && sym == 'd':
		f.wm.pushKill(b.KillWord())
	case control && sym == 'k':
		f.wm.pushKill(b.KillLine())
	case control && sym == 'u':
		f.wm.pushKill(b.KillWholeLine())
	case control && sym == 'y':
		f.yank(e.Time)
		return // redraw happens when the selection arrives or fell back
	default:
		if r, ok := keysymToRune(sym); ok && !control && !meta {
			b.InsertRune(r)
		}
	}
	f.Draw()
}

// yank asks for the PRIMARY selection; the SelectionNotify inserts it.
// An empty selection falls back to the head of the kill ring.
func (f *EditField) yank(time xproto.Timestamp) {
	xproto.ConvertSelection(f.wm.xc, f.win,
		xproto.AtomPrimary, f.wm.atomUTF8String, f.wm.atomDimSelection, time)
}

func (f *EditField) handleSelection(e xproto.SelectionNotifyEvent) {
	if e.Property == xproto.AtomNone {
		if kill := f.wm.topKill(); kill != "" {
			f.Buffer.InsertString(kill)
		}
	} else {
		text := f.wm.props.GetUTF8String(f.win, "_DIM_SELECTION")
		xproto.DeleteProperty(f.wm.xc, f.win, f.wm.atomDimSelection)
		f.Buffer.InsertString(text)
	}
	f.Draw()
}

func (f *EditField) historyStep(delta int) {
	if len(f.History) == 0 {
		return
	}
	f.historyIndex = (f.historyIndex + delta + len(f.History) + 1) % (len(f.History) + 1)
	if f.historyIndex == len(f.History) {
		f.Buffer.SetString("")
	} else {
		f.Buffer.SetString(f.History[f.historyIndex])
	}
}

// Minibuffer is a one-shot modal input window at the bottom edge of
// the screen. Only one is live at a time.
type Minibuffer struct {
	wm  *WM
	win xproto.Window
	EditField
}

// NewMinibuffer creates and maps the minibuffer, grabs the keyboard
// and pushes the editor modal.
func NewMinibuffer(wm *WM, prompt, initial string, commit func(string), rollback func(), time xproto.Timestamp) (*Minibuffer, error) {
	if wm.minibuffer != nil {
		return nil, errMinibufferBusy
	}
	win, err := xproto.NewWindowId(wm.xc)
	if err != nil {
		return nil, err
	}

	w := int(wm.screen.WidthInPixels) * 8 / 10
	h := wm.painter.LineHeight()
	x := (int(wm.screen.WidthInPixels) - w) / 2
	y := int(wm.screen.HeightInPixels) - h - 2

	if err := xproto.CreateWindowChecked(wm.xc, wm.screen.RootDepth,
		win, wm.root,
		int16(x), int16(y), uint16(w), uint16(h), 1,
		xproto.WindowClassInputOutput, wm.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			wm.minibufferStyle.Bg,
			wm.minibufferStyle.Fg,
			1,
			xproto.EventMaskExposure | xproto.EventMaskKeyPress,
		}).Check(); err != nil {
		return nil, err
	}

	m := &Minibuffer{wm: wm, win: win}
	m.EditField = EditField{
		wm:     wm,
		win:    win,
		style:  wm.minibufferStyle,
		width:  w,
		height: h,
		Prompt: prompt,
		Buffer: NewStringBuffer(initial),
	}
	m.EditField.History = wm.minibufferHistory
	m.EditField.historyIndex = len(wm.minibufferHistory)
	m.EditField.Commit = func(s string) {
		m.destroy()
		if s != "" {
			wm.minibufferHistory = appendHistory(wm.minibufferHistory, s)
		}
		commit(s)
	}
	m.EditField.Exit = func() {
		m.destroy()
		rollback()
	}

	xproto.MapWindow(wm.xc, win)
	xproto.GrabKeyboard(wm.xc, false, win, time,
		xproto.GrabModeAsync, xproto.GrabModeAsync)
	wm.minibuffer = m
	wm.pushModal(&m.EditField)
	m.Draw()
	return m, nil
}

func (m *Minibuffer) destroy() {
	m.wm.popModal()
	xproto.UngrabKeyboard(m.wm.xc, m.wm.eventTime)
	xproto.DestroyWindow(m.wm.xc, m.win)
	m.wm.minibuffer = nil
}

func appendHistory(history []string, s string) []string {
	if n := len(history); n > 0 && history[n-1] == s {
		return history
	}
	history = append(history, s)
	if len(history) > 50 {
		history = history[len(history)-50:]
	}
	return history
}
