package main

import (
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// EventHandler consumes an event for a window it registered for.
// Returning false propagates the event to the next handler in the
// chain, and eventually to the manager's default handling.
type EventHandler func(ev xgb.Event) bool

// Demux dispatches wire events to per-window handler chains. Root
// substructure-redirect events are owned by the manager and never
// pass through here.
type Demux struct {
	log      *slog.Logger
	handlers map[xproto.Window][]EventHandler
}

func NewDemux(log *slog.Logger) *Demux {
	return &Demux{
		log:      log.With("sub", "events"),
		handlers: make(map[xproto.Window][]EventHandler),
	}
}

func (d *Demux) Register(win xproto.Window, h EventHandler) {
	d.handlers[win] = append(d.handlers[win], h)
}

func (d *Demux) Unregister(win xproto.Window) {
	delete(d.handlers, win)
}

// Dispatch routes an event to the handlers registered for its target
// window. It reports whether any handler consumed the event.
func (d *Demux) Dispatch(ev xgb.Event) bool {
	win, ok := eventWindow(ev)
	if !ok {
		return false
	}
	for _, h := range d.handlers[win] {
		if h(ev) {
			return true
		}
	}
	return false
}

// HandleError routes a server error. Errors about vanished windows are
// expected races with clients and only logged at debug level.
func (d *Demux) HandleError(err xgb.Error) {
	switch err.(type) {
	case xproto.WindowError, xproto.DrawableError, xproto.MatchError:
		d.log.Debug("stale resource", "error", err)
	default:
		d.log.Warn("server error", "error", err)
	}
}

// eventWindow extracts the window an event should be dispatched on:
// the event window for input events, the affected window otherwise.
func eventWindow(ev xgb.Event) (xproto.Window, bool) {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return e.Event, true
	case xproto.KeyReleaseEvent:
		return e.Event, true
	case xproto.ButtonPressEvent:
		return e.Event, true
	case xproto.ButtonReleaseEvent:
		return e.Event, true
	case xproto.MotionNotifyEvent:
		return e.Event, true
	case xproto.EnterNotifyEvent:
		return e.Event, true
	case xproto.LeaveNotifyEvent:
		return e.Event, true
	case xproto.FocusInEvent:
		return e.Event, true
	case xproto.FocusOutEvent:
		return e.Event, true
	case xproto.ExposeEvent:
		return e.Window, true
	case xproto.PropertyNotifyEvent:
		return e.Window, true
	case xproto.MapNotifyEvent:
		return e.Window, true
	case xproto.UnmapNotifyEvent:
		return e.Window, true
	case xproto.DestroyNotifyEvent:
		return e.Window, true
	case xproto.ConfigureNotifyEvent:
		return e.Window, true
	case xproto.ReparentNotifyEvent:
		return e.Window, true
	case xproto.ClientMessageEvent:
		return e.Window, true
	}
	return 0, false
}

// eventTimestamp extracts the server timestamp carried by an event, if
// any. The manager threads the latest one through focus and grab
// requests instead of CurrentTime.
func eventTimestamp(ev xgb.Event) (xproto.Timestamp, bool) {
	switch e := ev.(type) {
	case xproto.KeyPressEvent:
		return e.Time, true
	case xproto.KeyReleaseEvent:
		return e.Time, true
	case xproto.ButtonPressEvent:
		return e.Time, true
	case xproto.ButtonReleaseEvent:
		return e.Time, true
	case xproto.MotionNotifyEvent:
		return e.Time, true
	case xproto.EnterNotifyEvent:
		return e.Time, true
	case xproto.LeaveNotifyEvent:
		return e.Time, true
	case xproto.PropertyNotifyEvent:
		return e.Time, true
	}
	return 0, false
}
