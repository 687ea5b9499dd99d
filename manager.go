package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/k0kubun/pp"
)

var (
	errQuit           = errors.New("quit")
	errAnotherWM      = errors.New("another window manager is already running")
	errMinibufferBusy = errors.New("a minibuffer is already active")
)

// Modal is a temporarily event-intercepting subsystem (move/resize,
// minibuffer, focus cycle, prefix chain). The top of the modal stack
// sees events first; Abort restores pre-modal state.
type Modal interface {
	HandleEvent(ev xgb.Event) bool
	Abort()
}

// WM owns the X connection and all manager state. Everything runs on
// the single goroutine that calls Run; auxiliary services communicate
// through the connection or read published snapshots.
type WM struct {
	log *slog.Logger
	cfg Config

	xc     *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo
	root   xproto.Window

	atoms   *AtomCache
	props   *PropertyEngine
	demux   *Demux
	keymap  *Keymap
	cursors *Cursors
	painter *Painter

	focusedStyle    *Style
	unfocusedStyle  *Style
	minibufferStyle *Style
	titleHeight     int

	clients map[xproto.Window]*Client // by client window
	frames  map[xproto.Window]*Client // by frame window

	policy    FocusPolicy
	focusList *FocusList
	focused   *Client

	tags     *TagEngine
	bindings *Bindings

	// Modal stack; the slice top is consulted first.
	modals     []Modal
	moveresize *moveResizeOp
	cycle      *FocusCycle
	minibuffer *Minibuffer

	haveRandR bool
	crtcs     []Rect

	// expectUnmap counts unmaps the manager caused itself, so they
	// are not mistaken for client withdrawals.
	expectUnmap map[xproto.Window]int

	eventTime xproto.Timestamp
	killRing  []string
	minibufferHistory []string

	api *APIServer

	// Interned atoms the hot path needs.
	atomWMProtocols          xproto.Atom
	atomWMDeleteWindow       xproto.Atom
	atomWMTakeFocus          xproto.Atom
	atomWMChangeState        xproto.Atom
	atomNetWMState           xproto.Atom
	atomNetWMStateFullscreen xproto.Atom
	atomNetWMStateMaxHorz    xproto.Atom
	atomNetWMStateMaxVert    xproto.Atom
	atomNetWMStateAbove      xproto.Atom
	atomNetActiveWindow      xproto.Atom
	atomUTF8String           xproto.Atom
	atomDimTags              xproto.Atom
	atomDimWMExit            xproto.Atom
	atomDimTagsetExpression  xproto.Atom
	atomDimTagsetUpdate      xproto.Atom
	atomDimEnsureFocus       xproto.Atom
	atomDimSelection         xproto.Atom

	shutdownDone bool
	execArgv     []string // set when the exit message asks for an exec
}

func NewWM(cfg Config, log *slog.Logger) *WM {
	return &WM{
		log:         log.With("sub", "wm"),
		cfg:         cfg,
		clients:     make(map[xproto.Window]*Client),
		frames:      make(map[xproto.Window]*Client),
		focusList:   &FocusList{},
		expectUnmap: make(map[xproto.Window]int),
	}
}

// Init connects, wins the WM election on the root window, sets up all
// subsystems and adopts the existing clients.
func (wm *WM) Init(display string) error {
	xc, err := xgb.NewConnDisplay(display)
	if err != nil {
		return err
	}
	wm.xc = xc
	wm.setup = xproto.Setup(xc)
	wm.screen = wm.setup.DefaultScreen(xc)
	wm.root = wm.screen.Root

	// Selecting SubstructureRedirect is the election: it fails with
	// BadAccess while another manager holds it.
	if err := xproto.ChangeWindowAttributesChecked(xc, wm.root,
		xproto.CwEventMask, []uint32{
			xproto.EventMaskSubstructureRedirect |
				xproto.EventMaskSubstructureNotify |
				xproto.EventMaskStructureNotify |
				xproto.EventMaskPropertyChange |
				xproto.EventMaskEnterWindow,
		}).Check(); err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return errAnotherWM
		}
		return err
	}

	wm.atoms = NewAtomCache(xc)
	if err := wm.initAtoms(); err != nil {
		return err
	}
	wm.props = NewPropertyEngine(xc, wm.atoms, wm.log)
	wm.demux = NewDemux(wm.log)

	if wm.keymap, err = NewKeymap(xc); err != nil {
		return err
	}
	if wm.cursors, err = NewCursors(xc); err != nil {
		return err
	}
	if wm.painter, err = NewPainter(xc, wm.screen, wm.cfg.TitleFont); err != nil {
		return err
	}
	wm.titleHeight = wm.painter.LineHeight()
	if err := wm.initStyles(); err != nil {
		return err
	}

	xproto.ChangeWindowAttributes(xc, wm.root, xproto.CwCursor,
		[]uint32{uint32(wm.cursors.Glyph(xcLeftPtr))})

	wm.initRandR()
	wm.tags = NewTagEngine(wm)
	wm.initPolicy()
	if err := wm.initBindings(); err != nil {
		return err
	}
	wm.adoptExisting()
	wm.props.Flush()
	return nil
}

func (wm *WM) initAtoms() error {
	names := []string{
		"WM_PROTOCOLS", "WM_DELETE_WINDOW", "WM_TAKE_FOCUS", "WM_CHANGE_STATE",
		"WM_STATE", "WM_NAME", "WM_CLASS", "WM_NORMAL_HINTS", "WM_HINTS",
		"WM_TRANSIENT_FOR", "WM_COMMAND",
		"_NET_WM_NAME", "_NET_WM_STATE", "_NET_WM_STATE_FULLSCREEN",
		"_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT",
		"_NET_WM_STATE_ABOVE", "_NET_ACTIVE_WINDOW",
		"UTF8_STRING",
		"_DIM_TAGS", "_DIM_WM_EXIT", "_DIM_TAGSET_EXPRESSION",
		"_DIM_TAGSET_UPDATE", "_DIM_ENSURE_FOCUS", "_DIM_SELECTION",
	}
	if err := wm.atoms.Prime(names...); err != nil {
		return err
	}
	intern := func(name string) xproto.Atom {
		atom, _ := wm.atoms.Intern(name)
		return atom
	}
	wm.atomWMProtocols = intern("WM_PROTOCOLS")
	wm.atomWMDeleteWindow = intern("WM_DELETE_WINDOW")
	wm.atomWMTakeFocus = intern("WM_TAKE_FOCUS")
	wm.atomWMChangeState = intern("WM_CHANGE_STATE")
	wm.atomNetWMState = intern("_NET_WM_STATE")
	wm.atomNetWMStateFullscreen = intern("_NET_WM_STATE_FULLSCREEN")
	wm.atomNetWMStateMaxHorz = intern("_NET_WM_STATE_MAXIMIZED_HORZ")
	wm.atomNetWMStateMaxVert = intern("_NET_WM_STATE_MAXIMIZED_VERT")
	wm.atomNetWMStateAbove = intern("_NET_WM_STATE_ABOVE")
	wm.atomNetActiveWindow = intern("_NET_ACTIVE_WINDOW")
	wm.atomUTF8String = intern("UTF8_STRING")
	wm.atomDimTags = intern("_DIM_TAGS")
	wm.atomDimWMExit = intern("_DIM_WM_EXIT")
	wm.atomDimTagsetExpression = intern("_DIM_TAGSET_EXPRESSION")
	wm.atomDimTagsetUpdate = intern("_DIM_TAGSET_UPDATE")
	wm.atomDimEnsureFocus = intern("_DIM_ENSURE_FOCUS")
	wm.atomDimSelection = intern("_DIM_SELECTION")
	return nil
}

func (wm *WM) initStyles() error {
	styles := []struct {
		dst    **Style
		fg, bg string
	}{
		{&wm.focusedStyle, wm.cfg.Colors.FocusedFg, wm.cfg.Colors.FocusedBg},
		{&wm.unfocusedStyle, wm.cfg.Colors.UnfocusedFg, wm.cfg.Colors.UnfocusedBg},
		{&wm.minibufferStyle, wm.cfg.Colors.MinibufferFg, wm.cfg.Colors.MinibufferBg},
	}
	for _, s := range styles {
		fg, err := ParseColor(s.fg)
		if err != nil {
			return err
		}
		bg, err := ParseColor(s.bg)
		if err != nil {
			return err
		}
		if *s.dst, err = wm.painter.NewStyle(fg, bg); err != nil {
			return err
		}
	}
	return nil
}

func (wm *WM) initPolicy() {
	var policy FocusPolicy
	switch wm.cfg.FocusMode {
	case "click":
		policy = &ClickToFocus{wm: wm}
	default:
		policy = &SloppyFocus{wm: wm}
	}
	if wm.cfg.FocusNew {
		policy = &FocusNewWindows{FocusPolicy: policy, wm: wm}
	}
	wm.policy = policy
	wm.log.Info("focus policy", "mode", policy.Name())
}

// initRandR queries the extension and the CRTC layout; RandR is
// optional and its absence leaves a single screen-sized CRTC.
func (wm *WM) initRandR() {
	if err := randr.Init(wm.xc); err != nil {
		wm.log.Info("randr unavailable", "error", err)
		wm.crtcs = []Rect{wm.screenRect()}
		return
	}
	wm.haveRandR = true
	randr.SelectInput(wm.xc, wm.root, randr.NotifyMaskCrtcChange|randr.NotifyMaskScreenChange)
	wm.refreshCrtcs()
}

func (wm *WM) refreshCrtcs() {
	wm.crtcs = wm.crtcs[:0]
	res, err := randr.GetScreenResourcesCurrent(wm.xc, wm.root).Reply()
	if err != nil {
		wm.log.Warn("randr resources", "error", err)
		wm.crtcs = []Rect{wm.screenRect()}
		return
	}
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(wm.xc, crtc, res.ConfigTimestamp).Reply()
		if err != nil || info.Mode == 0 {
			continue
		}
		wm.crtcs = append(wm.crtcs, Rect{
			Left:   int(info.X),
			Top:    int(info.Y),
			Right:  int(info.X) + int(info.Width),
			Bottom: int(info.Y) + int(info.Height),
		})
	}
	if len(wm.crtcs) == 0 {
		wm.crtcs = []Rect{wm.screenRect()}
	}
	wm.log.Debug("crtc layout", "count", len(wm.crtcs))
}

func (wm *WM) screenRect() Rect {
	return Rect{
		Right:  int(wm.screen.WidthInPixels),
		Bottom: int(wm.screen.HeightInPixels),
	}
}

// crtcContaining picks the CRTC under a point, defaulting to the first.
func (wm *WM) crtcContaining(x, y int) Rect {
	for _, r := range wm.crtcs {
		if r.Contains(x, y) {
			return r
		}
	}
	return wm.crtcs[0]
}

// visibleFrameRects lists the outer rectangles of every visible
// client's frame except the excluded one, for snap targets.
func (wm *WM) visibleFrameRects(exclude *Client) []Rect {
	var rects []Rect
	for _, c := range wm.clients {
		if c == exclude || c.WMState != StateNormal {
			continue
		}
		rects = append(rects, c.frameGeometry().Outer())
	}
	return rects
}

// adoptExisting manages every already-mapped, non-override-redirect
// child of the root.
func (wm *WM) adoptExisting() {
	tree, err := xproto.QueryTree(wm.xc, wm.root).Reply()
	if err != nil {
		wm.log.Warn("query tree", "error", err)
		return
	}
	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(wm.xc, child).Reply()
		if err != nil || attrs.OverrideRedirect || attrs.MapState == xproto.MapStateUnmapped {
			continue
		}
		wm.manage(child)
	}
	wm.EnsureFocus(wm.lastTimestamp())
}

// lastTimestamp returns the most recent server timestamp seen. Only
// before the first event arrives does this yield CurrentTime, which is
// exactly the initial-adoption window where that is permitted.
func (wm *WM) lastTimestamp() xproto.Timestamp {
	return wm.eventTime
}

// manage adopts a top-level window: frame, save-set, reparent, map.
func (wm *WM) manage(win xproto.Window) *Client {
	if c, ok := wm.clients[win]; ok {
		return c
	}
	attrs, err := xproto.GetWindowAttributes(wm.xc, win).Reply()
	if err != nil || attrs.OverrideRedirect {
		return nil
	}
	geom, err := xproto.GetGeometry(wm.xc, xproto.Drawable(win)).Reply()
	if err != nil {
		return nil
	}

	c := &Client{
		wm:     wm,
		Window: win,
		Geom: Geometry{
			X:      int(geom.X),
			Y:      int(geom.Y),
			Width:  int(geom.Width),
			Height: int(geom.Height),
			Border: wm.cfg.BorderWidth,
		},
		origBorder: int(geom.BorderWidth),
		WMState:    StateNormal,
	}
	c.savedGeom = c.Geom
	c.Hints = wm.props.GetSizeHints(win)
	c.WMHints = wm.props.GetWMHints(win)
	c.Class = wm.props.GetWMClass(win)
	c.TransientFor = wm.props.GetWindow(win, "WM_TRANSIENT_FOR")
	c.Tags = wm.props.GetAtomList(win, "_DIM_TAGS")
	c.refreshProtocols()

	// The initial geometry honors the hints, too.
	c.Geom.Width, c.Geom.Height = c.ConstrainSize(c.Geom.Width, c.Geom.Height)

	frame, err := xproto.NewWindowId(wm.xc)
	if err != nil {
		return nil
	}
	c.Frame = frame
	fg := c.frameGeometry()
	if err := xproto.CreateWindowChecked(wm.xc, wm.screen.RootDepth,
		frame, wm.root,
		int16(fg.X), int16(fg.Y), uint16(fg.Width), uint16(fg.Height), 0,
		xproto.WindowClassInputOutput, wm.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			wm.unfocusedStyle.Bg,
			xproto.EventMaskSubstructureNotify |
				xproto.EventMaskButtonPress |
				xproto.EventMaskEnterWindow |
				xproto.EventMaskExposure,
		}).Check(); err != nil {
		wm.log.Warn("create frame", "client", win, "error", err)
		return nil
	}

	// The save-set reparents the client back to root if we die.
	xproto.ChangeSaveSet(wm.xc, xproto.SetModeInsert, win)
	ox, oy := c.clientOffset()
	xproto.ConfigureWindow(wm.xc, win, xproto.ConfigWindowBorderWidth, []uint32{0})
	if attrs.MapState != xproto.MapStateUnmapped {
		// Reparenting a mapped window unmaps and remaps it; that unmap
		// is ours, not a withdrawal.
		wm.expectUnmap[win]++
	}
	xproto.ReparentWindow(wm.xc, win, frame, int16(ox), int16(oy))
	xproto.ChangeWindowAttributes(wm.xc, win, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify})

	deco, err := NewDecorator(wm, c)
	if err != nil {
		wm.log.Warn("create decorator", "client", win, "error", err)
	}
	c.deco = deco

	xproto.MapWindow(wm.xc, frame)
	xproto.MapWindow(wm.xc, win)
	wm.props.SetWMState(win, StateNormal)

	wm.clients[win] = c
	wm.frames[frame] = c
	wm.focusList.Append(c)
	wm.tags.Note(c)

	wm.demux.Register(win, c.handleClientEvent)
	wm.watchClientProperties(c)
	c.refreshTitle()
	c.applyGeometry()
	if deco != nil {
		deco.Redraw(false)
	}
	wm.policy.OnManage(c)

	wm.log.Info("managed", "client", win, "class", c.Class.Instance, "geom", c.Geom)
	wm.broadcast("manage", win)
	return c
}

func (wm *WM) watchClientProperties(c *Client) {
	win := c.Window
	wm.props.Watch(win, "WM_NAME", func(bool, xproto.Timestamp) { c.refreshTitle() })
	wm.props.Watch(win, "_NET_WM_NAME", func(bool, xproto.Timestamp) { c.refreshTitle() })
	wm.props.Watch(win, "WM_NORMAL_HINTS", func(bool, xproto.Timestamp) {
		c.Hints = wm.props.GetSizeHints(win)
	})
	wm.props.Watch(win, "WM_HINTS", func(bool, xproto.Timestamp) {
		c.WMHints = wm.props.GetWMHints(win)
	})
	wm.props.Watch(win, "WM_PROTOCOLS", func(bool, xproto.Timestamp) {
		c.refreshProtocols()
	})
	wm.props.Watch(win, "_DIM_TAGS", func(deleted bool, _ xproto.Timestamp) {
		wm.tags.TagsChanged(c)
	})
}

// unmanage reverses adoption: the client goes back to the root at the
// frame's absolute position with its original border.
func (wm *WM) unmanage(c *Client) {
	if _, ok := wm.clients[c.Window]; !ok {
		return
	}
	wm.log.Info("unmanaged", "client", c.Window)
	wm.policy.OnUnmanage(c)
	wm.tags.Forget(c)
	wm.focusList.Remove(c)
	if wm.focused == c {
		wm.focused = nil
	}
	wm.props.Unwatch(c.Window)
	wm.demux.Unregister(c.Window)
	delete(wm.clients, c.Window)
	delete(wm.frames, c.Frame)

	fg := c.frameGeometry()
	xproto.ReparentWindow(wm.xc, c.Window, wm.root, int16(fg.X), int16(fg.Y))
	xproto.ConfigureWindow(wm.xc, c.Window, xproto.ConfigWindowBorderWidth,
		[]uint32{uint32(c.origBorder)})
	xproto.ChangeSaveSet(wm.xc, xproto.SetModeDelete, c.Window)
	if c.deco != nil {
		c.deco.Destroy()
	}
	xproto.DestroyWindow(wm.xc, c.Frame)
	wm.props.SetWMState(c.Window, StateWithdrawn)

	wm.EnsureFocus(wm.lastTimestamp())
	wm.broadcast("unmanage", c.Window)
}

func (wm *WM) pushModal(m Modal)   { wm.modals = append(wm.modals, m) }
func (wm *WM) popModal() {
	if n := len(wm.modals); n > 0 {
		wm.modals = wm.modals[:n-1]
	}
}
func (wm *WM) topModal() Modal {
	if n := len(wm.modals); n > 0 {
		return wm.modals[n-1]
	}
	return nil
}

// Run is the event loop. It returns errQuit on a graceful exit
// request; any other return is a connection failure.
func (wm *WM) Run() error {
	for {
		ev, xerr := wm.xc.WaitForEvent()
		if ev == nil && xerr == nil {
			return fmt.Errorf("connection closed")
		}
		if xerr != nil {
			wm.demux.HandleError(xerr)
			continue
		}
		if err := wm.handleEvent(ev); err != nil {
			return err
		}
		// Resolve coalesced property fetches before blocking again.
		wm.props.Flush()
	}
}

func (wm *WM) handleEvent(ev xgb.Event) error {
	if t, ok := eventTimestamp(ev); ok {
		wm.eventTime = t
	}
	if wm.log.Enabled(nil, slog.LevelDebug) {
		wm.log.Debug("event", "dump", pp.Sprint(ev))
	}

	// The top modal sees events first.
	if m := wm.topModal(); m != nil && m.HandleEvent(ev) {
		return nil
	}

	// Root-owned substructure-redirect events are never delegated.
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		wm.handleMapRequest(e)
		return nil
	case xproto.ConfigureRequestEvent:
		wm.handleConfigureRequest(e)
		return nil
	case xproto.CirculateRequestEvent:
		// Grant the request verbatim; nothing depends on stacking.
		xproto.CirculateWindow(wm.xc, e.Place, e.Window)
		return nil
	}

	if wm.demux.Dispatch(ev) {
		return nil
	}

	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return wm.handleKeyPress(e)
	case xproto.KeyReleaseEvent:
		// Only interesting to modals.
	case xproto.ButtonPressEvent:
		wm.handleButtonPress(e)
	case xproto.ButtonReleaseEvent:
	case xproto.EnterNotifyEvent:
		wm.handleEnterNotify(e)
	case xproto.UnmapNotifyEvent:
		wm.handleUnmapNotify(e)
	case xproto.DestroyNotifyEvent:
		if c, ok := wm.clients[e.Window]; ok {
			wm.unmanage(c)
		}
	case xproto.PropertyNotifyEvent:
		wm.props.HandlePropertyNotify(e)
	case xproto.ClientMessageEvent:
		return wm.handleClientMessage(e)
	case xproto.MappingNotifyEvent:
		if err := wm.keymap.Refresh(wm.xc); err != nil {
			wm.log.Warn("keymap refresh", "error", err)
		}
		wm.grabBindings()
	case xproto.ExposeEvent:
		if c, ok := wm.frames[e.Window]; ok && e.Count == 0 && c.deco != nil {
			c.deco.Redraw(wm.focused == c)
		}
	case randr.ScreenChangeNotifyEvent:
		wm.refreshCrtcs()
	case randr.NotifyEvent:
		wm.refreshCrtcs()
	}
	return nil
}

func (wm *WM) handleMapRequest(e xproto.MapRequestEvent) {
	if c, ok := wm.clients[e.Window]; ok {
		c.Normalize()
		return
	}
	c := wm.manage(e.Window)
	if c == nil {
		// Override-redirect or vanished; grant the map anyway.
		xproto.MapWindow(wm.xc, e.Window)
		return
	}
	wm.policy.OnMap(c, wm.lastTimestamp())
}

func (wm *WM) handleConfigureRequest(e xproto.ConfigureRequestEvent) {
	if c, ok := wm.clients[e.Window]; ok {
		c.HandleConfigureRequest(e)
		return
	}
	// Unmanaged windows get their request granted verbatim.
	mask, values := uint16(0), []uint32(nil)
	flags := []struct {
		bit   uint16
		value uint32
	}{
		{xproto.ConfigWindowX, uint32(e.X)},
		{xproto.ConfigWindowY, uint32(e.Y)},
		{xproto.ConfigWindowWidth, uint32(e.Width)},
		{xproto.ConfigWindowHeight, uint32(e.Height)},
		{xproto.ConfigWindowBorderWidth, uint32(e.BorderWidth)},
		{xproto.ConfigWindowSibling, uint32(e.Sibling)},
		{xproto.ConfigWindowStackMode, uint32(e.StackMode)},
	}
	for _, f := range flags {
		if e.ValueMask&f.bit != 0 {
			mask |= f.bit
			values = append(values, f.value)
		}
	}
	xproto.ConfigureWindow(wm.xc, e.Window, mask, values)
}

func (wm *WM) handleEnterNotify(e xproto.EnterNotifyEvent) {
	if e.Event == wm.root {
		wm.policy.OnEnterRoot(e)
		return
	}
	if c, ok := wm.frames[e.Event]; ok {
		wm.policy.OnEnter(c, e)
	}
}

// handleUnmapNotify treats client-initiated unmaps as withdrawals
// (ICCCM §4.1.4); unmaps the manager itself caused are counted off.
// The same unmap arrives once per selection; only the copy reported
// to the parent drives the state machine.
func (wm *WM) handleUnmapNotify(e xproto.UnmapNotifyEvent) {
	c, ok := wm.clients[e.Window]
	if !ok {
		return
	}
	if e.Event != c.Frame && e.Event != wm.root {
		return
	}
	if n := wm.expectUnmap[e.Window]; n > 0 {
		if n == 1 {
			delete(wm.expectUnmap, e.Window)
		} else {
			wm.expectUnmap[e.Window] = n - 1
		}
		return
	}
	wm.unmanage(c)
}

func (wm *WM) handleKeyPress(e xproto.KeyPressEvent) error {
	wasPrefix := wm.bindings.InPrefix()
	bind, kind := wm.bindings.PressKey(e.Detail, e.State)
	switch kind {
	case PrefixMatch:
		// Grab the keyboard so the rest of the chain routes here.
		xproto.GrabKeyboard(wm.xc, false, wm.root, e.Time,
			xproto.GrabModeAsync, xproto.GrabModeAsync)
		return nil
	case TerminalMatch:
		if wasPrefix {
			xproto.UngrabKeyboard(wm.xc, e.Time)
		}
		return bind.Do(wm.inputFromKey(e))
	default:
		if wasPrefix {
			// Non-matching input silently aborts the chain.
			xproto.UngrabKeyboard(wm.xc, e.Time)
		}
		return nil
	}
}

func (wm *WM) inputFromKey(e xproto.KeyPressEvent) Input {
	return Input{
		Time:  e.Time,
		RootX: e.RootX,
		RootY: e.RootY,
		State: e.State,
		Child: e.Child,
		Press: true,
	}
}

func (wm *WM) handleButtonPress(e xproto.ButtonPressEvent) {
	// A press on a frame consults the focus policy first.
	if c, ok := wm.frames[e.Event]; ok {
		if wm.policy.OnButtonPress(c, e) {
			return
		}
	}
	bind, kind := wm.bindings.PressButton(e.Detail, e.State)
	if kind != TerminalMatch {
		return
	}
	in := Input{
		Time:  e.Time,
		RootX: e.RootX,
		RootY: e.RootY,
		State: e.State,
		Child: e.Child,
		Press: true,
	}
	if in.Child == xproto.WindowNone && e.Event != wm.root {
		in.Child = e.Event
	}
	if err := bind.Do(in); err != nil {
		wm.log.Warn("button action", "error", err)
	}
}

// handleTitlebarPress runs the titlebar button bindings.
func (wm *WM) handleTitlebarPress(c *Client, e xproto.ButtonPressEvent) bool {
	action, ok := wm.titlebarAction(c, e.Detail)
	if !ok {
		return false
	}
	in := Input{Time: e.Time, RootX: e.RootX, RootY: e.RootY, State: e.State, Child: c.Frame, Press: true}
	if err := action(in); err != nil {
		wm.log.Warn("titlebar action", "error", err)
	}
	return true
}

func (wm *WM) handleClientMessage(e xproto.ClientMessageEvent) error {
	switch e.Type {
	case wm.atomDimEnsureFocus:
		t := xproto.Timestamp(e.Data.Data32[0])
		if t == 0 {
			t = wm.lastTimestamp()
		}
		wm.handleEnsureFocus(t)
	case wm.atomDimWMExit:
		return wm.handleExitMessage(xproto.Timestamp(e.Data.Data32[0]))
	case wm.atomDimTagsetUpdate:
		t := xproto.Timestamp(e.Data.Data32[0])
		if t == 0 {
			t = wm.lastTimestamp()
		}
		wm.tags.HandleUpdate(t)
	case wm.atomWMChangeState:
		if c, ok := wm.clients[e.Window]; ok && e.Data.Data32[0] == StateIconic {
			c.Iconify()
			wm.EnsureFocus(wm.lastTimestamp())
		}
	case wm.atomNetWMState:
		wm.handleNetWMStateMessage(e)
	case wm.atomNetActiveWindow:
		if c, ok := wm.clients[e.Window]; ok {
			wm.focusClient(c, wm.lastTimestamp())
			c.Raise()
		}
	}
	return nil
}

// _NET_WM_STATE client message: data32[0] is 0 remove / 1 add /
// 2 toggle, data32[1..2] are the state atoms.
func (wm *WM) handleNetWMStateMessage(e xproto.ClientMessageEvent) {
	c, ok := wm.clients[e.Window]
	if !ok {
		return
	}
	data := e.Data.Data32
	action := data[0]
	apply := func(current bool) bool {
		switch action {
		case 0:
			return false
		case 1:
			return true
		default:
			return !current
		}
	}
	for _, raw := range data[1:3] {
		switch xproto.Atom(raw) {
		case wm.atomNetWMStateFullscreen:
			c.SetFullscreen(apply(c.Net.Fullscreen))
		case wm.atomNetWMStateMaxHorz:
			c.SetMaximized(apply(c.Net.MaxHorz), c.Net.MaxVert)
		case wm.atomNetWMStateMaxVert:
			c.SetMaximized(c.Net.MaxHorz, apply(c.Net.MaxVert))
		case wm.atomNetWMStateAbove:
			c.Net.Above = apply(c.Net.Above)
			if c.Net.Above {
				c.Raise()
			}
			c.publishNetState()
		}
	}
}

// handleExitMessage implements _DIM_WM_EXIT: a zero timestamp is a
// plain exit; otherwise WM_COMMAND on the root carries the command to
// exec in place (empty means re-exec self).
func (wm *WM) handleExitMessage(time xproto.Timestamp) error {
	if time == 0 {
		return errQuit
	}
	argv := wm.props.GetStringList(wm.root, "WM_COMMAND")
	if len(argv) == 0 {
		argv = os.Args
	}
	wm.execArgv = argv
	return errQuit
}

// sendProtocolMessage delivers a WM_PROTOCOLS client message.
func (wm *WM) sendProtocolMessage(win xproto.Window, protocol xproto.Atom, time xproto.Timestamp) {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   wm.atomWMProtocols,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(protocol), uint32(time), 0, 0, 0,
		}),
	}
	xproto.SendEvent(wm.xc, false, win, xproto.EventMaskNoEvent, string(ev.Bytes()))
}

// sendRootMessage posts a message to ourselves through the root
// window, so it is processed after everything already queued.
func (wm *WM) sendRootMessage(kind xproto.Atom, data ...uint32) {
	var d [5]uint32
	copy(d[:], data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: wm.root,
		Type:   kind,
		Data:   xproto.ClientMessageDataUnionData32New(d[:]),
	}
	xproto.SendEvent(wm.xc, false, wm.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskStructureNotify,
		string(ev.Bytes()))
}

// Shutdown reparents every client back to the root and disconnects.
// It is idempotent and safe to call from a half-initialized state.
func (wm *WM) Shutdown() {
	if wm.shutdownDone || wm.xc == nil {
		return
	}
	wm.shutdownDone = true

	// Abort any active modal so grabs are released.
	for m := wm.topModal(); m != nil; m = wm.topModal() {
		m.Abort()
	}

	if wm.props != nil {
		wm.props.SetStringList(wm.root, "WM_COMMAND", os.Args)
		for _, c := range wm.clients {
			fg := c.frameGeometry()
			xproto.UnmapWindow(wm.xc, c.Frame)
			xproto.ReparentWindow(wm.xc, c.Window, wm.root, int16(fg.X), int16(fg.Y))
			xproto.ConfigureWindow(wm.xc, c.Window, xproto.ConfigWindowBorderWidth,
				[]uint32{uint32(c.origBorder)})
			xproto.ChangeSaveSet(wm.xc, xproto.SetModeDelete, c.Window)
			xproto.DestroyWindow(wm.xc, c.Frame)
		}
	}
	xproto.ChangeWindowAttributes(wm.xc, wm.root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskNoEvent})
	wm.xc.Sync()
	wm.xc.Close()
	wm.log.Info("shut down")
}

// ExecInPlace replaces the process per the exit message, if one asked
// for it. Returns false when a plain exit was requested.
func (wm *WM) ExecInPlace() bool {
	if len(wm.execArgv) == 0 {
		return false
	}
	path := wm.execArgv[0]
	wm.log.Info("exec", "argv", wm.execArgv)
	if err := syscall.Exec(path, wm.execArgv, os.Environ()); err != nil {
		wm.log.Error("exec failed", "path", path, "error", err)
	}
	return true
}

func (wm *WM) pushKill(s string) {
	if s == "" {
		return
	}
	wm.killRing = append(wm.killRing, s)
	if len(wm.killRing) > killRingSize {
		wm.killRing = wm.killRing[len(wm.killRing)-killRingSize:]
	}
}

func (wm *WM) topKill() string {
	if len(wm.killRing) == 0 {
		return ""
	}
	return wm.killRing[len(wm.killRing)-1]
}

// broadcast publishes a fresh state snapshot and feeds the websocket
// event stream, when the API is up. It runs on the event loop thread.
func (wm *WM) broadcast(kind string, detail interface{}) {
	if wm.api != nil {
		wm.api.Publish(wm.buildSnapshot())
		wm.api.Broadcast(Event{Kind: kind, Detail: detail})
	}
}
