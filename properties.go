package main

import (
	"log/slog"
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// WM_STATE values (ICCCM §4.1.3.1).
const (
	StateWithdrawn = 0
	StateNormal    = 1
	StateIconic    = 3
)

// WMHints flag bits (ICCCM §4.1.2.4).
const (
	HintInput = 1 << iota
	HintState
)

// WMHints is the decoded WM_HINTS property. Only the fields the
// manager consumes are kept.
type WMHints struct {
	Flags        uint32
	Input        bool
	InitialState uint32
}

// WMClass is the decoded WM_CLASS property (ICCCM §4.1.2.5).
type WMClass struct {
	Instance string
	Class    string
}

type propKey struct {
	win  xproto.Window
	atom xproto.Atom
}

type propFetch struct {
	cookie    xproto.GetPropertyCookie
	callbacks []func([]byte)
}

// PropertyEngine reads, writes and watches typed window properties.
// Each semantic type has an explicit codec; watchers are fired from
// PropertyNotify dispatch. Asynchronous gets are coalesced so at most
// one request per (window, atom) is outstanding.
type PropertyEngine struct {
	xc       *xgb.Conn
	atoms    *AtomCache
	log      *slog.Logger
	watchers map[propKey][]func(deleted bool, time xproto.Timestamp)
	pending  map[propKey]*propFetch
}

func NewPropertyEngine(xc *xgb.Conn, atoms *AtomCache, log *slog.Logger) *PropertyEngine {
	return &PropertyEngine{
		xc:       xc,
		atoms:    atoms,
		log:      log.With("sub", "props"),
		watchers: make(map[propKey][]func(bool, xproto.Timestamp)),
		pending:  make(map[propKey]*propFetch),
	}
}

func (pe *PropertyEngine) atom(name string) xproto.Atom {
	atom, err := pe.atoms.Intern(name)
	if err != nil {
		pe.log.Warn("intern failed", "name", name, "error", err)
		return xproto.AtomNone
	}
	return atom
}

// raw fetches the full value of a property; nil means absent.
func (pe *PropertyEngine) raw(win xproto.Window, name string) []byte {
	reply, err := xproto.GetProperty(pe.xc, false, win, pe.atom(name),
		xproto.GetPropertyTypeAny, 0, 1<<22).Reply()
	if err != nil || reply == nil || reply.Format == 0 {
		return nil
	}
	return reply.Value
}

// GetAsync fetches a property without blocking the caller; fn runs with
// the raw value (nil if absent) when Flush drains the reply. A second
// GetAsync for the same (window, atom) while one is outstanding only
// queues the callback.
func (pe *PropertyEngine) GetAsync(win xproto.Window, name string, fn func([]byte)) {
	key := propKey{win, pe.atom(name)}
	if f, ok := pe.pending[key]; ok {
		f.callbacks = append(f.callbacks, fn)
		return
	}
	pe.pending[key] = &propFetch{
		cookie:    xproto.GetProperty(pe.xc, false, win, key.atom, xproto.GetPropertyTypeAny, 0, 1<<22),
		callbacks: []func([]byte){fn},
	}
}

// Flush resolves all outstanding asynchronous gets, including any a
// callback starts in turn.
func (pe *PropertyEngine) Flush() {
	for len(pe.pending) > 0 {
		keys := make([]propKey, 0, len(pe.pending))
		for key := range pe.pending {
			keys = append(keys, key)
		}
		for _, key := range keys {
			f := pe.pending[key]
			delete(pe.pending, key)
			var value []byte
			if reply, err := f.cookie.Reply(); err == nil && reply != nil && reply.Format != 0 {
				value = reply.Value
			}
			for _, fn := range f.callbacks {
				fn(value)
			}
		}
	}
}

// Watch registers fn to run whenever the named property changes on win.
func (pe *PropertyEngine) Watch(win xproto.Window, name string, fn func(deleted bool, time xproto.Timestamp)) {
	key := propKey{win, pe.atom(name)}
	pe.watchers[key] = append(pe.watchers[key], fn)
}

// Unwatch drops every watcher for the window.
func (pe *PropertyEngine) Unwatch(win xproto.Window) {
	for key := range pe.watchers {
		if key.win == win {
			delete(pe.watchers, key)
		}
	}
}

// HandlePropertyNotify fans a PropertyNotify out to the watchers.
func (pe *PropertyEngine) HandlePropertyNotify(e xproto.PropertyNotifyEvent) {
	key := propKey{e.Window, e.Atom}
	for _, fn := range pe.watchers[key] {
		fn(e.State == xproto.PropertyDelete, e.Time)
	}
}

// String properties. STRING values are Latin-1; UTF8_STRING is UTF-8.
// Both arrive as byte arrays, possibly null-separated for lists.

func (pe *PropertyEngine) GetUTF8String(win xproto.Window, name string) string {
	return string(pe.raw(win, name))
}

func (pe *PropertyEngine) SetUTF8String(win xproto.Window, name, value string) {
	xproto.ChangeProperty(pe.xc, xproto.PropModeReplace, win, pe.atom(name),
		pe.atom("UTF8_STRING"), 8, uint32(len(value)), []byte(value))
}

// GetStringList decodes a null-separated string list (WM_CLASS, WM_COMMAND).
func (pe *PropertyEngine) GetStringList(win xproto.Window, name string) []string {
	raw := pe.raw(win, name)
	if raw == nil {
		return nil
	}
	parts := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

func (pe *PropertyEngine) SetStringList(win xproto.Window, name string, values []string) {
	data := []byte(strings.Join(values, "\x00") + "\x00")
	xproto.ChangeProperty(pe.xc, xproto.PropModeReplace, win, pe.atom(name),
		pe.atom("UTF8_STRING"), 8, uint32(len(data)), data)
}

func (pe *PropertyEngine) GetAtomList(win xproto.Window, name string) []xproto.Atom {
	raw := pe.raw(win, name)
	atoms := make([]xproto.Atom, 0, len(raw)/4)
	for ; len(raw) >= 4; raw = raw[4:] {
		atoms = append(atoms, xproto.Atom(xgb.Get32(raw)))
	}
	return atoms
}

func (pe *PropertyEngine) SetAtomList(win xproto.Window, name string, atoms []xproto.Atom) {
	data := make([]byte, 4*len(atoms))
	for i, atom := range atoms {
		xgb.Put32(data[i*4:], uint32(atom))
	}
	xproto.ChangeProperty(pe.xc, xproto.PropModeReplace, win, pe.atom(name),
		xproto.AtomAtom, 32, uint32(len(atoms)), data)
}

func (pe *PropertyEngine) GetIntList(win xproto.Window, name string) []uint32 {
	raw := pe.raw(win, name)
	values := make([]uint32, 0, len(raw)/4)
	for ; len(raw) >= 4; raw = raw[4:] {
		values = append(values, xgb.Get32(raw))
	}
	return values
}

// SetWindow stores a single-window property such as _NET_ACTIVE_WINDOW.
func (pe *PropertyEngine) SetWindow(win xproto.Window, name string, value xproto.Window) {
	data := make([]byte, 4)
	xgb.Put32(data, uint32(value))
	xproto.ChangeProperty(pe.xc, xproto.PropModeReplace, win, pe.atom(name),
		xproto.AtomWindow, 32, 1, data)
}

// GetWindow decodes a single-window property such as WM_TRANSIENT_FOR.
func (pe *PropertyEngine) GetWindow(win xproto.Window, name string) xproto.Window {
	raw := pe.raw(win, name)
	if len(raw) < 4 {
		return xproto.WindowNone
	}
	return xproto.Window(xgb.Get32(raw))
}

func (pe *PropertyEngine) GetWMClass(win xproto.Window) WMClass {
	parts := pe.GetStringList(win, "WM_CLASS")
	var c WMClass
	if len(parts) > 0 {
		c.Instance = parts[0]
	}
	if len(parts) > 1 {
		c.Class = parts[1]
	}
	return c
}

// GetWMState returns the WM_STATE value, or StateWithdrawn if unset.
func (pe *PropertyEngine) GetWMState(win xproto.Window) uint32 {
	raw := pe.raw(win, "WM_STATE")
	if len(raw) < 4 {
		return StateWithdrawn
	}
	return xgb.Get32(raw)
}

func (pe *PropertyEngine) SetWMState(win xproto.Window, state uint32) {
	data := make([]byte, 8)
	xgb.Put32(data, state)
	xgb.Put32(data[4:], uint32(xproto.WindowNone)) // icon window
	xproto.ChangeProperty(pe.xc, xproto.PropModeReplace, win, pe.atom("WM_STATE"),
		pe.atom("WM_STATE"), 32, 2, data)
}

func (pe *PropertyEngine) GetSizeHints(win xproto.Window) SizeHints {
	return decodeSizeHints(pe.raw(win, "WM_NORMAL_HINTS"))
}

func (pe *PropertyEngine) GetWMHints(win xproto.Window) WMHints {
	return decodeWMHints(pe.raw(win, "WM_HINTS"))
}

func decodeSizeHints(raw []byte) SizeHints {
	// 18 CARD32 fields; short or absent properties keep the defaults.
	var h SizeHints
	fields := make([]uint32, 0, 18)
	for ; len(raw) >= 4; raw = raw[4:] {
		fields = append(fields, xgb.Get32(raw))
	}
	get := func(i int) int {
		if i < len(fields) {
			return int(int32(fields[i]))
		}
		return 0
	}
	if len(fields) > 0 {
		h.Flags = fields[0]
	}
	h.MinWidth, h.MinHeight = get(5), get(6)
	h.MaxWidth, h.MaxHeight = get(7), get(8)
	h.WidthInc, h.HeightInc = get(9), get(10)
	h.MinAspectX, h.MinAspectY = get(11), get(12)
	h.MaxAspectX, h.MaxAspectY = get(13), get(14)
	h.BaseWidth, h.BaseHeight = get(15), get(16)
	h.WinGravity = get(17)
	return h
}

func decodeWMHints(raw []byte) WMHints {
	// The input hint defaults to true when absent (ICCCM §4.1.7).
	h := WMHints{Input: true}
	if len(raw) < 4 {
		return h
	}
	h.Flags = xgb.Get32(raw)
	if h.Flags&HintInput != 0 && len(raw) >= 8 {
		h.Input = xgb.Get32(raw[4:]) != 0
	}
	if h.Flags&HintState != 0 && len(raw) >= 12 {
		h.InitialState = xgb.Get32(raw[8:])
	}
	return h
}
